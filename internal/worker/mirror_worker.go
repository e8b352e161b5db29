// Package worker mirrors the persisted ledgers to a spreadsheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mstore/internal/amqp"
	"mstore/internal/core"
	"mstore/internal/export"
	applog "mstore/internal/log"
	"mstore/internal/report"
	"mstore/internal/sheets"
	"mstore/internal/storage"
)

// MirrorWorker copies the stored ledgers into spreadsheet tabs: one tab per
// kind with every record, plus the dashboard table.
type MirrorWorker struct {
	kv     storage.KeyValue
	sheets sheets.TableWriter
	logger *applog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewMirrorWorker(kv storage.KeyValue, writer sheets.TableWriter, loc *time.Location, logger *applog.Logger) *MirrorWorker {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentWorker)
	}
	return &MirrorWorker{
		kv:     kv,
		sheets: writer,
		logger: logger.WithComponent(applog.ComponentWorker),
		now:    time.Now,
		loc:    loc,
	}
}

// HandleLedgerChanged is the AMQP handler. Messages only signal that the
// store changed, so every change triggers a full mirror.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		applog.FieldMessageID, msg.ID,
		applog.FieldKind, msg.Kind,
		applog.FieldOperation, msg.Op,
		applog.FieldDateKey, msg.DateKey)

	if err := w.MirrorAll(ctx); err != nil {
		return fmt.Errorf("mirror after %s %s: %w", msg.Op, msg.Kind, err)
	}
	return nil
}

// MirrorAll loads the book and writes the three tables concurrently.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	book, err := storage.LoadBook(ctx, w.kv)
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	ref := w.now().In(w.loc)

	tables := map[string][][]string{
		sheets.TabDashboard: export.DashboardTable(report.Dashboard(book, ref)),
	}
	for _, kind := range core.Kinds() {
		l := book.MustLedger(kind)
		tables[tabFor(kind)] = export.Table(report.Collect(l, report.Overall, ref), kind)
	}

	g, gctx := errgroup.WithContext(ctx)
	for tab, rows := range tables {
		g.Go(func() error {
			if err := w.sheets.WriteTable(gctx, tab, rows); err != nil {
				return fmt.Errorf("write %s: %w", tab, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Mirrored ledgers",
		applog.FieldOperation, applog.OpMirror,
		"purchase_rows", len(tables[sheets.TabPurchases])-1,
		"sale_rows", len(tables[sheets.TabSales])-1)
	return nil
}

func tabFor(kind core.Kind) string {
	if kind == core.Sale {
		return sheets.TabSales
	}
	return sheets.TabPurchases
}
