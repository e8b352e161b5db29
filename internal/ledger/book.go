package ledger

import (
	"fmt"

	"mstore/internal/core"
)

// Book is the application state: one ledger per transaction kind.
type Book struct {
	Purchases *Ledger
	Sales     *Ledger
}

func NewBook() *Book {
	return &Book{Purchases: New(core.Purchase), Sales: New(core.Sale)}
}

// Ledger returns the ledger of kind.
func (b *Book) Ledger(kind core.Kind) (*Ledger, error) {
	switch kind {
	case core.Purchase:
		return b.Purchases, nil
	case core.Sale:
		return b.Sales, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
}

// MustLedger is Ledger for callers that already validated kind.
func (b *Book) MustLedger(kind core.Kind) *Ledger {
	l, err := b.Ledger(kind)
	if err != nil {
		panic(err)
	}
	return l
}

func (b *Book) Clone() *Book {
	return &Book{Purchases: b.Purchases.Clone(), Sales: b.Sales.Clone()}
}

// Empty reports whether neither ledger has any date key.
func (b *Book) Empty() bool {
	return len(b.Purchases.keys) == 0 && len(b.Sales.keys) == 0
}
