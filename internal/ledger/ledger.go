// Package ledger stores transaction records in date-keyed buckets.
//
// A Ledger keeps its date keys in insertion order; that order is what
// whole-ledger reports iterate over and what the persisted form preserves.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"mstore/internal/core"
)

var (
	ErrNoBucket        = errors.New("no records for date")
	ErrIndexOutOfRange = errors.New("record index out of range")
)

// ValidationError reports an add that was rejected because required input
// was missing. Unwrap exposes the individual core.ErrEmpty* errors.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Ledger is the date-keyed record collection of one transaction kind.
// It is not safe for concurrent use; services.LedgerService serializes access.
type Ledger struct {
	kind    core.Kind
	keys    []string
	buckets map[string][]core.Record
}

func New(kind core.Kind) *Ledger {
	return &Ledger{kind: kind, buckets: make(map[string][]core.Record)}
}

func (l *Ledger) Kind() core.Kind { return l.kind }

// AddRecord validates f and appends it to the bucket of dateKey, creating the
// bucket when absent. The stored record always carries Date == dateKey.
func (l *Ledger) AddRecord(dateKey string, f core.Fields) (core.Record, error) {
	if _, err := core.ParseDateKey(dateKey); err != nil {
		return core.Record{}, err
	}
	if err := f.Validate(); err != nil {
		return core.Record{}, &ValidationError{Err: err}
	}
	r := core.NewRecord(l.kind, dateKey, f)
	l.append(dateKey, r)
	return r, nil
}

// DeleteRecord removes the record at index from the bucket of dateKey.
// An emptied bucket stays in the ledger.
func (l *Ledger) DeleteRecord(dateKey string, index int) (core.Record, error) {
	bucket, ok := l.buckets[dateKey]
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %s", ErrNoBucket, dateKey)
	}
	if index < 0 || index >= len(bucket) {
		return core.Record{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(bucket))
	}
	removed := bucket[index]
	next := make([]core.Record, 0, len(bucket)-1)
	next = append(next, bucket[:index]...)
	next = append(next, bucket[index+1:]...)
	l.buckets[dateKey] = next
	return removed, nil
}

func (l *Ledger) append(dateKey string, r core.Record) {
	r.Date = dateKey
	if _, ok := l.buckets[dateKey]; !ok {
		l.keys = append(l.keys, dateKey)
	}
	l.buckets[dateKey] = append(l.buckets[dateKey], r)
}

// Records returns a copy of the bucket of dateKey; nil when there is none.
func (l *Ledger) Records(dateKey string) []core.Record {
	bucket, ok := l.buckets[dateKey]
	if !ok {
		return nil
	}
	return append([]core.Record{}, bucket...)
}

// Has reports whether a bucket, possibly empty, exists for dateKey.
func (l *Ledger) Has(dateKey string) bool {
	_, ok := l.buckets[dateKey]
	return ok
}

// Keys returns the date keys in insertion order.
func (l *Ledger) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Len returns the total number of records across all buckets.
func (l *Ledger) Len() int {
	n := 0
	for _, b := range l.buckets {
		n += len(b)
	}
	return n
}

func (l *Ledger) Clone() *Ledger {
	c := New(l.kind)
	for _, k := range l.keys {
		c.keys = append(c.keys, k)
		c.buckets[k] = append([]core.Record{}, l.buckets[k]...)
	}
	return c
}

// MarshalJSON writes the ledger as a JSON object whose members follow the
// insertion order of the date keys.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range l.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		bucket := l.buckets[k]
		if bucket == nil {
			bucket = []core.Record{}
		}
		val, err := json.Marshal(bucket)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the ledger content with the decoded object, keeping
// member order. Records are re-stamped with the key they are stored under.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	if tok == nil {
		l.reset()
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode ledger: expected object, got %v", tok)
	}

	l.reset()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode ledger key: %w", err)
		}
		key, _ := tok.(string)
		if _, err := core.ParseDateKey(key); err != nil {
			return fmt.Errorf("decode ledger: %w", err)
		}
		var bucket []core.Record
		if err := dec.Decode(&bucket); err != nil {
			return fmt.Errorf("decode ledger bucket %s: %w", key, err)
		}
		if _, ok := l.buckets[key]; !ok {
			l.keys = append(l.keys, key)
			l.buckets[key] = []core.Record{}
		}
		for _, r := range bucket {
			r.Date = key
			l.buckets[key] = append(l.buckets[key], r)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	return nil
}

func (l *Ledger) reset() {
	l.keys = nil
	l.buckets = make(map[string][]core.Record)
}
