package memory

import (
	"context"
	"sort"
	"sync"
)

// Store keeps the last table written to each tab.
type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	writes int
}

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

func (s *Store) WriteTable(_ context.Context, tab string, rows [][]string) error {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = cp
	s.writes++
	return nil
}

// Table returns the rows last written to tab.
func (s *Store) Table(tab string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	return rows, ok
}

// Tabs lists the written tab names in order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for k := range s.tabs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Writes counts WriteTable calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
