package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Purchase Kind = "purchase"
	Sale     Kind = "sale"
)

// DateKeyLayout is the calendar date format used for ledger bucket keys.
const DateKeyLayout = "2006-01-02"

// UnknownCounterparty groups records that carry no supplier or buyer.
const UnknownCounterparty = "Unknown"

type (
	Kind string

	// Record is a single purchase or sale line. Numeric fields keep the raw
	// text the user typed; they are parsed only when aggregated.
	Record struct {
		ItemName      string `json:"itemName"`
		Quantity      string `json:"quantity"`
		Price         string `json:"price"`
		PurchasedFrom string `json:"purchasedFrom,omitempty"`
		SoldTo        string `json:"soldTo,omitempty"`
		Recovery      string `json:"recovery,omitempty"`
		Date          string `json:"date"`
	}

	// Fields is the raw input of an add operation.
	Fields struct {
		ItemName     string `json:"itemName"`
		Quantity     string `json:"quantity"`
		Price        string `json:"price"`
		Counterparty string `json:"counterparty"`
		Recovery     string `json:"recovery"`
	}
)

var (
	ErrEmptyItemName  = errors.New("empty item name")
	ErrEmptyQuantity  = errors.New("empty quantity")
	ErrEmptyPrice     = errors.New("empty price")
	ErrInvalidDateKey = errors.New("invalid date key")
	ErrUnknownKind    = errors.New("unknown transaction kind")
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchase", "purchases", "purchasing":
		return Purchase, nil
	case "sale", "sales", "selling":
		return Sale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string { return string(k) }

// IsValid reports whether k is one of the two ledger kinds.
func (k Kind) IsValid() bool {
	return k == Purchase || k == Sale
}

// StorageKey is the persistence key holding the serialized ledger of k.
func (k Kind) StorageKey() string {
	if k == Sale {
		return "sales"
	}
	return "purchases"
}

// CounterpartyLabel is the column title for the other party of a transaction.
func (k Kind) CounterpartyLabel() string {
	if k == Sale {
		return "Sold To"
	}
	return "Purchased From"
}

// Kinds returns both ledger kinds, purchases first.
func Kinds() []Kind {
	return []Kind{Purchase, Sale}
}

// Counterparty returns the supplier or the buyer, whichever is populated.
func (r Record) Counterparty() string {
	if r.PurchasedFrom != "" {
		return r.PurchasedFrom
	}
	return r.SoldTo
}

// Validate checks the fields that must be present before a record is stored.
// Every missing field is reported.
func (f Fields) Validate() error {
	var errs []error
	if strings.TrimSpace(f.ItemName) == "" {
		errs = append(errs, ErrEmptyItemName)
	}
	if strings.TrimSpace(f.Quantity) == "" {
		errs = append(errs, ErrEmptyQuantity)
	}
	if strings.TrimSpace(f.Price) == "" {
		errs = append(errs, ErrEmptyPrice)
	}
	return errors.Join(errs...)
}

// NewRecord builds the stored form of f for a ledger of the given kind.
// Recovery is kept only on sale records.
func NewRecord(kind Kind, dateKey string, f Fields) Record {
	r := Record{
		ItemName: strings.TrimSpace(f.ItemName),
		Quantity: strings.TrimSpace(f.Quantity),
		Price:    strings.TrimSpace(f.Price),
		Date:     dateKey,
	}
	cp := strings.TrimSpace(f.Counterparty)
	switch kind {
	case Sale:
		r.SoldTo = cp
		r.Recovery = strings.TrimSpace(f.Recovery)
	default:
		r.PurchasedFrom = cp
	}
	return r
}

// DateKey returns the calendar date of t, in t's location, as a ledger key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey validates a YYYY-MM-DD key and returns midnight UTC of that day.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return t, nil
}

// MonthPrefix is the key prefix shared by every day of the given month.
func MonthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
