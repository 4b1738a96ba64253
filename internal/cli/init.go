// Package cli provides common CLI initialization utilities.
// This package consolidates the startup and shutdown steps shared by
// cmd/paycal, cmd/reminder-worker, and cmd/notify-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paycal/internal/config"
	"paycal/internal/log"
	"paycal/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap reads the environment into a validated Config and builds the
// process logger at the configured level, tagged with component.
// The logger is returned even when validation fails so the caller can report it.
func Bootstrap(component string) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	logger := log.NewFromLevel(cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// MustBootstrap loads .env, then runs Bootstrap and installs the logger as the
// slog default. It exits the process on validation failure.
func MustBootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg, logger, err := Bootstrap(component)
	log.SetDefault(logger)
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
// The received signal is logged once.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Fatal logs err with msg and exits. Used by mains once startup has failed.
func Fatal(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}
