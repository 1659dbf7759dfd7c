package main

import (
	"os"

	"finanzas/internal/cli"
	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	logger.Info("Starting recurring-worker",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"schedule", cfg.RecurringSchedule)

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := services.New(services.Deps{
		Ledger:    be.Ledger,
		Settings:  be.Settings,
		Publisher: be.Publisher,
	})

	w, err := worker.NewRecurringWorker(svc.Recurring, cfg.RecurringSchedule, logger)
	if err != nil {
		logger.Error("Invalid recurring schedule", log.FieldError, err)
		os.Exit(1)
	}
	if err := w.Run(ctx); err != nil {
		logger.Error("Recurring worker failed", log.FieldError, err)
		os.Exit(1)
	}
}
