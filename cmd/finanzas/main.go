package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finanzas/internal/cli"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	logger.Info("Starting finanzas",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"port", cfg.Port)

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := services.New(services.Deps{
		Ledger:         be.Ledger,
		Settings:       be.Settings,
		Publisher:      be.Publisher,
		StrictTaxonomy: cfg.StrictTaxonomy,
	})

	// Every launch makes sure this month's fixed charges are in the ledger.
	if res, err := svc.Recurring.Reconcile(ctx, time.Now()); err != nil {
		logger.Error("Recurring reconciliation failed", log.FieldOperation, log.OpReconcile, log.FieldError, err)
	} else {
		logger.Info("Recurring reconciliation complete",
			log.FieldMonth, res.Month.String(),
			log.FieldAdded, len(res.Added),
			log.FieldSkipped, res.Skipped)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger: logger.WithComponent(log.ComponentHTTP),
		Ready:  be.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
