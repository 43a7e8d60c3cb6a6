package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/cli"
	"fintrack/internal/currency"
	"fintrack/internal/events"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("summary-worker")
	logger.Info("Starting summary-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// This worker exists to consume ledger events; there is no SQLite-only
	// fallback mode here.
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the summary worker")
		os.Exit(1)
	}
	eventClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer eventClient.Close()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	provider := currency.NewProvider(cfg.RatesAPIURL, logger)
	converter := currency.NewConverter(provider, cfg.RatesTTL, logger)
	summaries := services.NewSummaryService(repo, converter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summaryWorker := worker.NewSummaryWorker(eventClient, summaries, cfg.SummaryBatchSize)
	if err := summaryWorker.Start(ctx); err != nil {
		logger.Error("Failed to start summary worker", "error", err)
		os.Exit(1)
	}
	logger.Info("Summary worker consuming ledger events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	if err := summaryWorker.Wait(context.Background()); err != nil {
		logger.Warn("Worker did not stop cleanly", "error", err)
	}
	logger.Info("summary-worker shutdown complete")
}
