// Package storage persists the serialized ledgers in a key-value store.
//
// The ledgers are stored as two JSON blobs under the keys "purchases" and
// "sales". Backends only move text; they know nothing about records.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"mstore/internal/core"
	"mstore/internal/ledger"
)

// KeyValue is the persistence port used by the ledger service.
// Get reports ok=false when the key has never been written.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemoryStore keeps values in process memory; used for tests and the
// "memory" backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// LoadBook reads both ledgers concurrently. A missing key yields an empty
// ledger. The returned book is only complete when err is nil.
func LoadBook(ctx context.Context, kv KeyValue) (*ledger.Book, error) {
	book := ledger.NewBook()
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range core.Kinds() {
		l := book.MustLedger(kind)
		g.Go(func() error {
			return loadLedger(gctx, kv, l)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return book, nil
}

func loadLedger(ctx context.Context, kv KeyValue, l *ledger.Ledger) error {
	key := l.Kind().StorageKey()
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), l); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveBook writes both ledgers. Every key is attempted; the joined error
// reports each key that failed.
func SaveBook(ctx context.Context, kv KeyValue, book *ledger.Book) error {
	var errs []error
	for _, kind := range core.Kinds() {
		if err := SaveLedger(ctx, kv, book.MustLedger(kind)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveLedger writes a single ledger under its storage key.
func SaveLedger(ctx context.Context, kv KeyValue, l *ledger.Ledger) error {
	key := l.Kind().StorageKey()
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
