// Package cli holds the bootstrapping shared by cmd/finanzas and
// cmd/recurring-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"finanzas/internal/backend"
	"finanzas/internal/config"
	"finanzas/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error; production sets the environment directly.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from LOG_LEVEL and makes it the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = cfg.Level()
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs validate on it.
// Exits the process on validation failure.
func LoadAndValidateConfig(validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured backend or exits the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	return res
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
