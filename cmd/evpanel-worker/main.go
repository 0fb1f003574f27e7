package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evpanel/internal/amqp"
	"evpanel/internal/cli"
	"evpanel/internal/services"
	"evpanel/internal/store"
	"evpanel/internal/store/sheets"
	"evpanel/internal/store/supabase"
	"evpanel/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting evpanel-worker")

	// Local queue of pending transactions.
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Hosted store that pending transactions are pushed to.
	var hosted store.TransactionAppender
	switch {
	case cfg.StoreURL != "":
		hosted = supabase.New(cfg.StoreURL, cfg.StoreKey)
		logger.Info("Hosted store initialized", "kind", "supabase")
	case cfg.GoogleSpreadsheetID != "":
		client, err := sheets.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		hosted = client
		logger.Info("Hosted store initialized", "kind", "sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		logger.Error("No hosted store configured; set STORE_URL or GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(sqliteRepo, hosted, cfg.SyncBatchSize)

	// Catch up on transactions recorded while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Continue with normal operation
	}

	// AMQP consumption is optional; the periodic processor covers missed
	// messages either way.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic sync only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic sync only")
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	processorConfig := services.DefaultSyncProcessorConfig()
	processorConfig.PollInterval = cfg.SyncInterval
	processorConfig.BatchSize = cfg.SyncBatchSize
	processor := services.NewSyncProcessor(sqliteRepo, hosted, processorConfig)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Sync processor stop error", "error", err)
	}
	cancel()

	logger.Info("Worker shutdown complete")
}
