package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"evpanel/internal/backend"
	"evpanel/internal/cli"
	"evpanel/internal/core"
	"evpanel/internal/report"
	"evpanel/internal/session"
)

// evpanel-report renders the current month's PDF report to a file and exits.
func main() {
	outDir := flag.String("out", ".", "directory the report file is written to")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx := context.Background()
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	sess := session.New(result.Backend, result.Backend, result.Backend, result.Backend)
	view := sess.Snapshot(ctx)
	for _, advisory := range view.Advisories {
		logger.Warn("Report rendered from a degraded view", "advisory", advisory)
	}

	fileName := report.FileName(view.PeriodStart)
	path := filepath.Join(*outDir, fileName)

	f, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create report file", "error", err, "path", path)
		os.Exit(1)
	}
	defer f.Close()

	data := report.Data{
		GeneratedAt:   core.Today().Time,
		PeriodStart:   view.PeriodStart,
		Charges:       view.FixedCharges,
		Transactions:  view.Transactions,
		Balance:       view.Balance,
		CurrencyLabel: cfg.CurrencyLabel,
	}
	if err := report.Generate(f, data); err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Report written", "path", path,
		"charges", len(view.FixedCharges), "transactions", len(view.Transactions))
}
