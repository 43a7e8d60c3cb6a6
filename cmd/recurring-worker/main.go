package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("recurring-worker")
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	eventClient := cli.InitEventClient(logger, cfg)
	if eventClient != nil {
		defer eventClient.Close()
	}

	transactions := services.NewTransactionService(repo, eventClient)
	processor := services.NewRecurringProcessor(repo, transactions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Catch up missed occurrences on startup before the first tick.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDue(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
					continue
				}
				logger.Info("Periodic processing complete",
					"transactions_created", count,
					"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	logger.Info("recurring-worker shutdown complete")
}
