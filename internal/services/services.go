// Package services orchestrates the ledger and settings stores behind the
// operations the HTTP API and the worker expose.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/store"
)

// ErrEmptyLedger is returned by the dashboard when there is no month to show.
var ErrEmptyLedger = errors.New("ledger is empty")

// EventPublisher announces transactions appended to the ledger. Publishing
// is best effort: failures are logged and never undo a persisted write.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, eventType string, t core.Transaction) error
}

// Ledger event types published by the services.
const (
	EventTransactionRecorded = "transaction.recorded"
	EventRecurringApplied    = "recurring.applied"
)

type Deps struct {
	Ledger         store.Ledger
	Settings       store.SettingsStore
	Publisher      EventPublisher // optional
	StrictTaxonomy bool
	Now            func() time.Time // date of entries recorded without one
}

// Services bundles the collaborators over one ledger. Recording and
// reconciling share a single writer lock.
type Services struct {
	Settings     *SettingsService
	Transactions *TransactionService
	Recurring    *RecurringProcessor
	Dashboard    *DashboardService
}

func New(d Deps) *Services {
	writeMu := &sync.Mutex{}
	settings := NewSettingsService(d.Settings)

	tx := NewTransactionService(d.Ledger, d.Publisher, d.StrictTaxonomy)
	tx.mu = writeMu

	rec := NewRecurringProcessor(d.Ledger, settings, d.Publisher)
	rec.mu = writeMu

	dash := NewDashboardService(d.Ledger, settings)
	if d.Now != nil {
		tx.now = d.Now
	}

	return &Services{
		Settings:     settings,
		Transactions: tx,
		Recurring:    rec,
		Dashboard:    dash,
	}
}
