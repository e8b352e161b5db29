// Package services holds the controller that owns the application state.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mstore/internal/amqp"
	"mstore/internal/cache"
	"mstore/internal/core"
	"mstore/internal/export"
	"mstore/internal/ledger"
	applog "mstore/internal/log"
	"mstore/internal/report"
	"mstore/internal/storage"
)

// ErrNotToday is returned when the today-only policy rejects an edit.
var ErrNotToday = errors.New("only today's records can be changed")

// Publisher announces committed ledger changes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService owns the purchase and sale ledgers. Mutations are applied
// to memory first and then written to the store; a failed write is logged
// and the in-memory book stays authoritative.
type LedgerService struct {
	mu   sync.RWMutex
	book *ledger.Book

	kv        storage.KeyValue
	publisher Publisher
	dashboard cache.Cache[[]report.DashboardRow]
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time
	loc       *time.Location
	todayOnly bool
}

type Option func(*LedgerService)

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithDashboardCache memoizes dashboard rows per reference day until the next mutation.
func WithDashboardCache(c cache.Cache[[]report.DashboardRow]) Option {
	return func(s *LedgerService) { s.dashboard = c }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *LedgerService) { s.logger = l.WithComponent(applog.ComponentLedger) }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithLocation sets the time zone whose calendar days become date keys.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTodayOnly restricts adds and deletes to today's date key.
func WithTodayOnly(enabled bool) Option {
	return func(s *LedgerService) { s.todayOnly = enabled }
}

func NewLedgerService(kv storage.KeyValue, opts ...Option) *LedgerService {
	s := &LedgerService{
		book:   ledger.NewBook(),
		kv:     kv,
		logger: applog.FromSlog(nil, applog.ComponentLedger),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = applog.NewStructuredLogger(s.logger)
	return s
}

// Now is the current time in the ledger's time zone.
func (s *LedgerService) Now() time.Time {
	return s.now().In(s.loc)
}

// Today is the date key of Now.
func (s *LedgerService) Today() string {
	return core.DateKey(s.Now())
}

// Load replaces the in-memory book with the stored one. On failure the
// current book is kept and the error is returned for the caller to log.
func (s *LedgerService) Load(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	book, err := storage.LoadBook(ctx, s.kv)
	if err != nil {
		s.events.LogError(ctx, "Failed to load ledgers", err, applog.OpLoad, nil)
		return fmt.Errorf("load ledgers: %w", err)
	}

	s.mu.Lock()
	s.book = book
	s.invalidate()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Loaded ledgers",
		applog.FieldBackend, fmt.Sprintf("%T", s.kv),
		"purchase_dates", book.Purchases.Len(),
		"sale_dates", book.Sales.Len())
	return nil
}

func (s *LedgerService) checkEditable(dateKey string) error {
	if !s.todayOnly {
		return nil
	}
	if today := s.Today(); dateKey != today {
		return fmt.Errorf("%w: %s is not %s", ErrNotToday, dateKey, today)
	}
	return nil
}

// AddRecord appends a record of kind under dateKey; an empty dateKey means today.
func (s *LedgerService) AddRecord(ctx context.Context, kind core.Kind, dateKey string, f core.Fields) (core.Record, error) {
	if dateKey == "" {
		dateKey = s.Today()
	}
	if _, err := core.ParseDateKey(dateKey); err != nil {
		return core.Record{}, err
	}
	if err := s.checkEditable(dateKey); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.book.Ledger(kind)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := l.AddRecord(dateKey, f)
	if err != nil {
		return core.Record{}, err
	}
	s.committed(ctx, l, amqp.OpAdd, dateKey, len(l.Records(dateKey))-1, rec.ItemName)
	return rec, nil
}

// DeleteRecord removes the record at index under dateKey and returns it.
func (s *LedgerService) DeleteRecord(ctx context.Context, kind core.Kind, dateKey string, index int) (core.Record, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.book.Ledger(kind)
	if err != nil {
		return core.Record{}, err
	}
	rec, err := l.DeleteRecord(dateKey, index)
	if err != nil {
		return core.Record{}, err
	}
	s.committed(ctx, l, amqp.OpDelete, dateKey, index, rec.ItemName)
	return rec, nil
}

// committed runs after a mutation with s.mu held, so saves follow mutation order.
func (s *LedgerService) committed(ctx context.Context, l *ledger.Ledger, op amqp.Op, dateKey string, index int, itemName string) {
	s.invalidate()
	s.events.LogRecordChanged(ctx, string(op), l.Kind().String(), dateKey, index, itemName)

	if s.kv != nil {
		if err := storage.SaveLedger(ctx, s.kv, l); err != nil {
			s.events.LogError(ctx, "Failed to save ledger", err, applog.OpSave,
				applog.NewFields().WithRecord(l.Kind().String(), dateKey, index, itemName))
		}
	}

	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(l.Kind(), dateKey, op)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			"error", err,
			applog.FieldMessageID, msg.ID,
			applog.FieldKind, l.Kind())
	}
}

func (s *LedgerService) invalidate() {
	if s.dashboard != nil {
		s.dashboard.Clear()
	}
}

func (s *LedgerService) ledger(kind core.Kind) (*ledger.Ledger, error) {
	return s.book.Ledger(kind)
}

// Records returns the records of kind stored under dateKey.
func (s *LedgerService) Records(kind core.Kind, dateKey string) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}
	return l.Records(dateKey), nil
}

// Stats aggregates kind over period p relative to now.
func (s *LedgerService) Stats(kind core.Kind, p report.Period) (report.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ledger(kind)
	if err != nil {
		return report.Stats{}, err
	}
	return report.ComputeStats(l, p, s.Now()), nil
}

// Profit is sales minus purchases over p.
func (s *LedgerService) Profit(p report.Period) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.ComputeProfit(s.book, p, s.Now())
}

// Dashboard returns the statistics table for every period.
func (s *LedgerService) Dashboard() []report.DashboardRow {
	ref := s.Now()
	key := core.DateKey(ref)
	if s.dashboard != nil {
		if rows, ok := s.dashboard.Get(key); ok {
			return append([]report.DashboardRow(nil), rows...)
		}
	}

	s.mu.RLock()
	rows := report.Dashboard(s.book, ref)
	// Stored under the lock so a concurrent mutation cannot clear the cache
	// before stale rows land in it.
	if s.dashboard != nil {
		s.dashboard.Set(key, rows)
	}
	s.mu.RUnlock()
	return append([]report.DashboardRow(nil), rows...)
}

// Counterparties totals kind per counterparty, sorted by name.
func (s *LedgerService) Counterparties(kind core.Kind) ([]*report.CounterpartySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}
	return report.SortedCounterparties(report.AggregateByCounterparty(l)), nil
}

// Month lists every day of a calendar month with its records of kind.
func (s *LedgerService) Month(kind core.Kind, year int, month time.Month) ([]report.Day, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ledger(kind)
	if err != nil {
		return nil, err
	}
	return report.DayBreakdown(l, year, month), nil
}

// Export renders the records of kind over p as CSV with its download name.
func (s *LedgerService) Export(kind core.Kind, p report.Period) (filename, body string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ledger(kind)
	if err != nil {
		return "", "", err
	}
	ref := s.Now()
	records := report.Collect(l, p, ref)
	s.logger.Debug("Exporting records",
		applog.FieldKind, kind,
		applog.FieldPeriod, p.String(),
		applog.FieldRecordCount, len(records))
	return export.Filename(kind, p, ref), export.ToCSV(records, kind), nil
}

// ExportDashboard renders the statistics table as CSV.
func (s *LedgerService) ExportDashboard() (filename, body string) {
	return "dashboard-" + s.Today() + ".csv", export.DashboardCSV(s.Dashboard())
}

// ExportCounterparties renders per-counterparty totals of kind as CSV.
func (s *LedgerService) ExportCounterparties(kind core.Kind) (filename, body string, err error) {
	summaries, err := s.Counterparties(kind)
	if err != nil {
		return "", "", err
	}
	return kind.String() + "-counterparties.csv", export.CounterpartiesCSV(summaries, kind), nil
}

// Snapshot returns a deep copy of the current book.
func (s *LedgerService) Snapshot() *ledger.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Clone()
}

// Close releases the store.
func (s *LedgerService) Close() error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Close()
}
