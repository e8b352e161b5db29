// Package reportcli implements the mstore-report subcommands.
package reportcli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"mstore/internal/core"
	"mstore/internal/report"
)

// Reader is the read side of the ledger service.
type Reader interface {
	Today() string
	Records(kind core.Kind, dateKey string) ([]core.Record, error)
	Stats(kind core.Kind, p report.Period) (report.Stats, error)
	Profit(p report.Period) decimal.Decimal
	Dashboard() []report.DashboardRow
	Counterparties(kind core.Kind) ([]*report.CounterpartySummary, error)
	Month(kind core.Kind, year int, month time.Month) ([]report.Day, error)
	Export(kind core.Kind, p report.Period) (filename, body string, err error)
	ExportDashboard() (filename, body string)
	ExportCounterparties(kind core.Kind) (filename, body string, err error)
}

// Env is shared by every subcommand.
type Env struct {
	// Open loads the ledgers; the returned func releases them.
	Open     func(ctx context.Context) (Reader, func() error, error)
	Out      io.Writer
	Plain    bool
	Currency string
}

// Register adds every report subcommand to c.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&dashboardCmd{env: env}, "reports")
	c.Register(&statsCmd{env: env}, "reports")
	c.Register(&recordsCmd{env: env}, "reports")
	c.Register(&counterpartiesCmd{env: env}, "reports")
	c.Register(&monthCmd{env: env}, "reports")
	c.Register(&exportCmd{env: env}, "export")
}

func (e *Env) money() MoneyFormatter {
	return NewMoneyFormatter(e.Currency)
}

// print writes md, styled for the terminal unless Plain is set.
func (e *Env) print(md string) error {
	if !e.Plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err == nil {
			if styled, err := r.Render(md); err == nil {
				md = styled
			}
		}
	}
	_, err := io.WriteString(e.Out, md)
	return err
}

// run opens the ledgers and hands them to fn, mapping errors to exit codes.
func (e *Env) run(ctx context.Context, fn func(Reader) error) subcommands.ExitStatus {
	r, closeFn, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = closeFn() }()
	if err := fn(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func kindFlag(f *flag.FlagSet, dst *string) {
	f.StringVar(dst, "kind", "sale", "Ledger kind (purchase, sale)")
}

func periodFlag(f *flag.FlagSet, dst *string) {
	f.StringVar(dst, "period", "daily", "Period (daily, weekly, monthly, overall)")
}

func usageError(f *flag.FlagSet, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	f.Usage()
	return subcommands.ExitUsageError
}

type dashboardCmd struct {
	env *Env
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display purchases, sales and profit per period" }
func (*dashboardCmd) Usage() string {
	return `mstore-report dashboard

  Displays amount and item totals of both ledgers for every period.
`
}
func (*dashboardCmd) SetFlags(*flag.FlagSet) {}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(r Reader) error {
		return c.env.print(DashboardMarkdown(r.Dashboard(), c.env.money(), r.Today()))
	})
}

type statsCmd struct {
	env    *Env
	kind   string
	period string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "display amount and items of one ledger over a period" }
func (*statsCmd) Usage() string {
	return `mstore-report stats [-kind <kind>] [-period <period>]
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind)
	periodFlag(f, &c.period)
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return usageError(f, err)
	}
	p, err := report.ParsePeriod(c.period)
	if err != nil {
		return usageError(f, err)
	}
	return c.env.run(ctx, func(r Reader) error {
		st, err := r.Stats(kind, p)
		if err != nil {
			return err
		}
		md := StatsMarkdown(kind, p, st, c.env.money())
		md += fmt.Sprintf("- Profit (both ledgers): %s\n", c.env.money().Format(r.Profit(p)))
		return c.env.print(md)
	})
}

type recordsCmd struct {
	env  *Env
	kind string
	date string
}

func (*recordsCmd) Name() string     { return "records" }
func (*recordsCmd) Synopsis() string { return "list the records of one day" }
func (*recordsCmd) Usage() string {
	return `mstore-report records [-kind <kind>] [-d <YYYY-MM-DD>]

  Lists the records of a day (defaults to today) with their indexes.
`
}

func (c *recordsCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind)
	f.StringVar(&c.date, "d", "", "Date (defaults to today)")
}

func (c *recordsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return usageError(f, err)
	}
	if c.date != "" {
		if _, err := core.ParseDateKey(c.date); err != nil {
			return usageError(f, err)
		}
	}
	return c.env.run(ctx, func(r Reader) error {
		dateKey := c.date
		if dateKey == "" {
			dateKey = r.Today()
		}
		records, err := r.Records(kind, dateKey)
		if err != nil {
			return err
		}
		return c.env.print(RecordsMarkdown(kind, dateKey, records))
	})
}

type counterpartiesCmd struct {
	env  *Env
	kind string
}

func (*counterpartiesCmd) Name() string     { return "counterparties" }
func (*counterpartiesCmd) Synopsis() string { return "display totals per supplier or buyer" }
func (*counterpartiesCmd) Usage() string {
	return `mstore-report counterparties [-kind <kind>]
`
}

func (c *counterpartiesCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind)
}

func (c *counterpartiesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return usageError(f, err)
	}
	return c.env.run(ctx, func(r Reader) error {
		summaries, err := r.Counterparties(kind)
		if err != nil {
			return err
		}
		return c.env.print(CounterpartiesMarkdown(kind, summaries, c.env.money()))
	})
}

type monthCmd struct {
	env   *Env
	kind  string
	month string
}

func (*monthCmd) Name() string     { return "month" }
func (*monthCmd) Synopsis() string { return "display the days of a month that have records" }
func (*monthCmd) Usage() string {
	return `mstore-report month [-kind <kind>] [-m <YYYY-MM>]
`
}

func (c *monthCmd) SetFlags(f *flag.FlagSet) {
	kindFlag(f, &c.kind)
	f.StringVar(&c.month, "m", "", "Month (defaults to the current month)")
}

func (c *monthCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return usageError(f, err)
	}
	var ym time.Time
	if c.month != "" {
		if ym, err = time.Parse("2006-01", c.month); err != nil {
			return usageError(f, fmt.Errorf("invalid month %q", c.month))
		}
	}
	return c.env.run(ctx, func(r Reader) error {
		if ym.IsZero() {
			today, err := core.ParseDateKey(r.Today())
			if err != nil {
				return err
			}
			ym = today
		}
		days, err := r.Month(kind, ym.Year(), ym.Month())
		if err != nil {
			return err
		}
		return c.env.print(MonthMarkdown(kind, core.MonthPrefix(ym.Year(), ym.Month()), days, c.env.money()))
	})
}

type exportCmd struct {
	env    *Env
	what   string
	kind   string
	period string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a CSV export" }
func (*exportCmd) Usage() string {
	return `mstore-report export [-what records|counterparties|dashboard] [-kind <kind>] [-period <period>] [-o <dir>|-]

  Writes the export under its download name in the output directory,
  or to standard output with -o -.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.what, "what", "records", "Export to write (records, counterparties, dashboard)")
	kindFlag(f, &c.kind)
	periodFlag(f, &c.period)
	f.StringVar(&c.out, "o", ".", "Output directory, or - for standard output")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var (
		kind core.Kind
		p    report.Period
		err  error
	)
	switch c.what {
	case "records", "counterparties":
		if kind, err = core.ParseKind(c.kind); err != nil {
			return usageError(f, err)
		}
		if p, err = report.ParsePeriod(c.period); err != nil {
			return usageError(f, err)
		}
	case "dashboard":
	default:
		return usageError(f, fmt.Errorf("unknown export %q", c.what))
	}

	return c.env.run(ctx, func(r Reader) error {
		var filename, body string
		switch c.what {
		case "records":
			filename, body, err = r.Export(kind, p)
		case "counterparties":
			filename, body, err = r.ExportCounterparties(kind)
		default:
			filename, body = r.ExportDashboard()
		}
		if err != nil {
			return err
		}
		if c.out == "-" {
			_, err := io.WriteString(c.env.Out, body+"\n")
			return err
		}
		path := filepath.Join(c.out, filename)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(c.env.Out, "Wrote %s\n", path)
		return nil
	})
}
