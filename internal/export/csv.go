// Package export renders ledger records and reports as CSV text.
//
// Every cell is wrapped in double quotes and nothing inside a cell is
// escaped, so a value containing a double quote yields malformed output.
// Rows are separated by a single newline with none after the last row.
package export

import (
	"strconv"
	"strings"
	"time"

	"mstore/internal/core"
	"mstore/internal/report"
)

var (
	purchaseHeader = []string{"Item Name", "Quantity", "Price (Rs)", "Purchased From", "Date"}
	saleHeader     = []string{"Item Name", "Quantity", "Price (Rs)", "Sold To", "Recovery (Rs)", "Date"}
	dashboardHead  = []string{"Period", "Purchase Amount (Rs)", "Purchase Items", "Sale Amount (Rs)", "Sale Items", "Profit (Rs)"}
)

// Header returns the column titles used for records of kind.
func Header(kind core.Kind) []string {
	if kind == core.Sale {
		return append([]string(nil), saleHeader...)
	}
	return append([]string(nil), purchaseHeader...)
}

// Row returns the cells of r in Header(kind) order, using the raw stored text.
func Row(r core.Record, kind core.Kind) []string {
	if kind == core.Sale {
		return []string{r.ItemName, r.Quantity, r.Price, r.Counterparty(), r.Recovery, r.Date}
	}
	return []string{r.ItemName, r.Quantity, r.Price, r.Counterparty(), r.Date}
}

// Table returns the header of kind followed by one row per record.
func Table(records []core.Record, kind core.Kind) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header(kind))
	for _, r := range records {
		rows = append(rows, Row(r, kind))
	}
	return rows
}

// ToCSV serializes records with the header of kind.
func ToCSV(records []core.Record, kind core.Kind) string {
	return join(Table(records, kind))
}

// DashboardCSV serializes the statistics table.
func DashboardCSV(rows []report.DashboardRow) string {
	return join(DashboardTable(rows))
}

// DashboardTable returns the statistics table with its header row.
func DashboardTable(rows []report.DashboardRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), dashboardHead...))
	for _, r := range rows {
		out = append(out, []string{
			r.Name,
			r.Purchases.Amount.String(),
			strconv.FormatInt(r.Purchases.Items, 10),
			r.Sales.Amount.String(),
			strconv.FormatInt(r.Sales.Items, 10),
			r.Profit.String(),
		})
	}
	return out
}

// CounterpartiesCSV serializes counterparty totals. Sale summaries carry
// recovery and remaining columns.
func CounterpartiesCSV(summaries []*report.CounterpartySummary, kind core.Kind) string {
	head := []string{"Name", "Total Quantity", "Total Amount (Rs)"}
	if kind == core.Sale {
		head = append(head, "Total Recovery (Rs)", "Remaining (Rs)")
	}
	out := [][]string{head}
	for _, s := range summaries {
		row := []string{s.Name, strconv.FormatInt(s.TotalQuantity, 10), s.TotalAmount.String()}
		if kind == core.Sale {
			recovery := "0"
			if s.TotalRecovery != nil {
				recovery = s.TotalRecovery.String()
			}
			row = append(row, recovery, s.Remaining().String())
		}
		out = append(out, row)
	}
	return join(out)
}

// PeriodLabel names an export period: the reference date key for daily
// exports, a capitalized period name otherwise.
func PeriodLabel(p report.Period, ref time.Time) string {
	switch p {
	case report.Daily:
		return core.DateKey(ref)
	case report.Weekly:
		return "Weekly"
	case report.Monthly:
		return "Monthly"
	default:
		return "Overall"
	}
}

// Filename is the download name of an export: <kind>-<label>.csv.
func Filename(kind core.Kind, p report.Period, ref time.Time) string {
	return kind.String() + "-" + PeriodLabel(p, ref) + ".csv"
}

func join(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(cell)
			b.WriteByte('"')
		}
	}
	return b.String()
}
