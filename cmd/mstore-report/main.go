package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"mstore/internal/cli"
	applog "mstore/internal/log"
	"mstore/internal/reportcli"
	"mstore/internal/services"
)

func main() {
	cli.LoadEnvFile()
	// Reports go to stdout, so logs stay on stderr and quiet by default.
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(envOr("LOG_LEVEL", "warn")),
		Component: applog.ComponentExport,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	env := &reportcli.Env{
		Out: os.Stdout,
		Open: func(ctx context.Context) (reportcli.Reader, func() error, error) {
			loc, err := cfg.Location()
			if err != nil {
				return nil, nil, err
			}
			storeCfg := *cfg
			storeCfg.AMQPURL = ""
			be, err := cli.OpenBackend(ctx, logger, &storeCfg)
			if err != nil {
				return nil, nil, err
			}
			svc := services.NewLedgerService(be.Store, services.WithLocation(loc), services.WithLogger(logger))
			if err := svc.Load(ctx); err != nil {
				_ = be.Cleanup()
				return nil, nil, fmt.Errorf("load ledgers: %w", err)
			}
			return svc, be.Cleanup, nil
		},
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	reportcli.Register(commander, env)

	flag.BoolVar(&env.Plain, "plain", false, "Print raw markdown instead of styled output")
	flag.StringVar(&env.Currency, "currency", reportcli.DefaultCurrency, "ISO 4217 code used to display amounts")
	flag.Parse()

	os.Exit(int(commander.Execute(context.Background())))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
