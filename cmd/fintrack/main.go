package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/currency"
	api "fintrack/internal/http"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("fintrack")
	logger.Info("Starting fintrack API server")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	eventClient := cli.InitEventClient(logger, cfg)
	if eventClient != nil {
		defer eventClient.Close()
	}

	provider := currency.NewProvider(cfg.RatesAPIURL, logger)
	converter := currency.NewConverter(provider, cfg.RatesTTL, logger)

	transactions := services.NewTransactionService(repo, eventClient)
	summaries := services.NewSummaryService(repo, converter)

	server := api.NewServer(cfg, api.Dependencies{
		Store:        repo,
		Auth:         auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Transactions: transactions,
		Groups:       services.NewGroupService(repo),
		Imports:      services.NewImportService(repo, transactions),
		Summaries:    summaries,
		Converter:    converter,
		Events:       eventClient,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("fintrack shutdown complete")
}
