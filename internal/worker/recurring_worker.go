// Package worker runs recurring-charge reconciliation on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/services"

	"github.com/robfig/cron/v3"
)

// Reconciler adds the month's missing recurring charges.
type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) (services.ReconcileResult, error)
}

// RecurringWorker triggers a Reconciler on a standard five-field cron
// schedule. Overlapping runs are skipped.
type RecurringWorker struct {
	reconciler Reconciler
	schedule   string
	logger     *log.Logger
	now        func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	runs int
}

func NewRecurringWorker(r Reconciler, schedule string, logger *log.Logger) (*RecurringWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecurringWorker{
		reconciler: r,
		schedule:   schedule,
		logger:     logger.WithComponent(log.ComponentWorker),
		now:        time.Now,
	}, nil
}

// RunOnce reconciles the month containing the worker's current time.
func (w *RecurringWorker) RunOnce(ctx context.Context) (services.ReconcileResult, error) {
	start := w.now()
	res, err := w.reconciler.Reconcile(ctx, start)

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "Recurring reconciliation failed",
			log.FieldOperation, log.OpReconcile,
			log.FieldError, err)
		return res, err
	}
	w.logger.InfoContext(ctx, "Recurring reconciliation complete",
		log.FieldOperation, log.OpReconcile,
		log.FieldMonth, res.Month.String(),
		log.FieldAdded, len(res.Added),
		log.FieldSkipped, res.Skipped,
		log.FieldDuration, time.Since(start).Milliseconds())
	return res, nil
}

// Runs reports how many reconciliations were attempted.
func (w *RecurringWorker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Run reconciles once, then on every schedule tick until ctx is done. It
// waits for an in-flight run before returning.
func (w *RecurringWorker) Run(ctx context.Context) error {
	_, _ = w.RunOnce(ctx)

	cl := cronLogger{w.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(w.schedule, func() { _, _ = w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule reconciliation: %w", err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	w.logger.Info("Recurring worker scheduled", "schedule", w.schedule, "next_run", w.nextRun())

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("Recurring worker stopped", log.FieldOperation, log.OpShutdown)
	return nil
}

func (w *RecurringWorker) nextRun() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron == nil {
		return ""
	}
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Next.Format(time.RFC3339)
}

// cronLogger routes the scheduler's own messages through the app logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
