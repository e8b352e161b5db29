// Package sheets defines the spreadsheet mirror port.
package sheets

import "context"

// Ports for outbound adapters.
type (
	// TableWriter replaces the content of a named tab with rows. The first
	// row is the header.
	TableWriter interface {
		WriteTable(ctx context.Context, tab string, rows [][]string) error
	}
)

// Tab names used by the ledger mirror.
const (
	TabPurchases = "Purchases"
	TabSales     = "Sales"
	TabDashboard = "Dashboard"
)
