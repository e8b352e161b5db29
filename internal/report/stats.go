// Package report aggregates ledger records over periods and counterparties.
//
// Every figure is derived on demand from the ledgers; nothing here is stored.
package report

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"mstore/internal/core"
	"mstore/internal/ledger"
)

// Stats summarizes a set of records.
type Stats struct {
	Amount decimal.Decimal `json:"amount"`
	Items  int64           `json:"items"`
}

// DashboardRow is one line of the statistics table.
type DashboardRow struct {
	Period    Period          `json:"-"`
	Name      string          `json:"period"`
	Purchases Stats           `json:"purchases"`
	Sales     Stats           `json:"sales"`
	Profit    decimal.Decimal `json:"profit"`
}

// Collect flattens the records of l that fall in p, keeping date-key order
// and insertion order within each date.
func Collect(l *ledger.Ledger, p Period, ref time.Time) []core.Record {
	var out []core.Record
	for _, key := range ResolveDateKeys(p, ref, l) {
		out = append(out, l.Records(key)...)
	}
	return out
}

// Summarize adds up prices and quantities of records; unparsable values count as zero.
func Summarize(records []core.Record) Stats {
	s := Stats{Amount: decimal.Zero}
	for _, r := range records {
		s.Amount = s.Amount.Add(core.ParseAmount(r.Price))
		s.Items = addItems(s.Items, core.ParseQuantity(r.Quantity))
	}
	return s
}

// addItems sums item counts, clamping at the int64 bounds instead of wrapping.
func addItems(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// ComputeStats returns the amount and item count of l over p.
func ComputeStats(l *ledger.Ledger, p Period, ref time.Time) Stats {
	return Summarize(Collect(l, p, ref))
}

// ComputeProfit is sales amount minus purchases amount over p.
func ComputeProfit(b *ledger.Book, p Period, ref time.Time) decimal.Decimal {
	sales := ComputeStats(b.Sales, p, ref)
	purchases := ComputeStats(b.Purchases, p, ref)
	return sales.Amount.Sub(purchases.Amount)
}

// Dashboard computes one row per period, in Periods order.
func Dashboard(b *ledger.Book, ref time.Time) []DashboardRow {
	rows := make([]DashboardRow, 0, 4)
	for _, p := range Periods() {
		purchases := ComputeStats(b.Purchases, p, ref)
		sales := ComputeStats(b.Sales, p, ref)
		rows = append(rows, DashboardRow{
			Period:    p,
			Name:      p.String(),
			Purchases: purchases,
			Sales:     sales,
			Profit:    sales.Amount.Sub(purchases.Amount),
		})
	}
	return rows
}
