package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"mstore/internal/core"
	"mstore/internal/ledger"
)

// DatedRecord is a record annotated with the date key it was found under.
type DatedRecord struct {
	DateKey string `json:"dateKey"`
	core.Record
}

// CounterpartySummary totals the records of one supplier or buyer.
// TotalRecovery is set only for sale ledgers.
type CounterpartySummary struct {
	Name          string           `json:"name"`
	TotalQuantity int64            `json:"totalQuantity"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	TotalRecovery *decimal.Decimal `json:"totalRecovery,omitempty"`
	Items         []DatedRecord    `json:"items"`
}

// Remaining is the amount still owed: TotalAmount - TotalRecovery.
// It is negative when more was recovered than sold.
func (s CounterpartySummary) Remaining() decimal.Decimal {
	if s.TotalRecovery == nil {
		return s.TotalAmount
	}
	return s.TotalAmount.Sub(*s.TotalRecovery)
}

// AggregateByCounterparty groups every record of l by counterparty, walking
// date keys in ledger order. Records without a counterparty are grouped
// under core.UnknownCounterparty.
func AggregateByCounterparty(l *ledger.Ledger) map[string]*CounterpartySummary {
	withRecovery := l.Kind() == core.Sale
	out := make(map[string]*CounterpartySummary)
	for _, key := range l.Keys() {
		for _, r := range l.Records(key) {
			name := strings.TrimSpace(r.Counterparty())
			if name == "" {
				name = core.UnknownCounterparty
			}
			s, ok := out[name]
			if !ok {
				s = &CounterpartySummary{Name: name, TotalAmount: decimal.Zero}
				if withRecovery {
					zero := decimal.Zero
					s.TotalRecovery = &zero
				}
				out[name] = s
			}
			s.TotalQuantity = addItems(s.TotalQuantity, core.ParseQuantity(r.Quantity))
			s.TotalAmount = s.TotalAmount.Add(core.ParseAmount(r.Price))
			if withRecovery {
				total := s.TotalRecovery.Add(core.ParseAmount(r.Recovery))
				s.TotalRecovery = &total
			}
			s.Items = append(s.Items, DatedRecord{DateKey: key, Record: r})
		}
	}
	return out
}

// SortedCounterparties returns the summaries ordered by name.
func SortedCounterparties(m map[string]*CounterpartySummary) []*CounterpartySummary {
	out := make([]*CounterpartySummary, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
