// Package cli consolidates the initialization shared by the fintrack
// binaries: logging, env loading, config validation and storage setup.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SetupLogger initializes structured logging for a binary and installs it
// as the slog default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. Missing files are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration or exits on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository (running migrations) or exits.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitEventClient connects to the broker when configured. A nil return
// means the binary runs in SQLite-only mode; callers must tolerate it.
func InitEventClient(logger *log.Logger, cfg *config.Config) *events.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, summaries will be computed on demand")
		return nil
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, continuing in SQLite-only mode", "error", err)
		return nil
	}
	return client
}
