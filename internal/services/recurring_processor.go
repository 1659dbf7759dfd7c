package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"
)

// ReconcileResult reports one reconciliation pass.
type ReconcileResult struct {
	Month core.MonthKey
	Added []core.Transaction
	// Skipped counts charges already present in the month or not usable
	// (zero amount, empty category).
	Skipped int
}

// RecurringProcessor makes sure every configured recurring charge appears
// once in the current month's ledger.
type RecurringProcessor struct {
	mu        *sync.Mutex
	ledger    store.Ledger
	settings  *SettingsService
	publisher EventPublisher
	logger    *log.Logger
}

func NewRecurringProcessor(ledger store.Ledger, settings *SettingsService, publisher EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		mu:        &sync.Mutex{},
		ledger:    ledger,
		settings:  settings,
		publisher: publisher,
		logger:    log.Default(log.ComponentRecurring),
	}
}

// Reconcile adds the charges missing from the month of now. A charge is
// present when a transaction of that month carries the recurring marker and
// the charge's subcategory. New entries are dated on the first day of the
// month, use the personal channel and are persisted with one write. Running
// it twice in the same month adds nothing the second time, also across
// processes when the ledger is a store.RecurringWriter.
func (p *RecurringProcessor) Reconcile(ctx context.Context, now time.Time) (ReconcileResult, error) {
	month := core.MonthKeyOf(now)
	res := ReconcileResult{Month: month}

	settings, err := p.settings.Load(ctx)
	if err != nil {
		return res, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	l, err := p.ledger.LoadAll(ctx)
	if err != nil {
		return res, fmt.Errorf("load ledger: %w", err)
	}

	present := make(map[string]bool)
	for _, t := range l.Transactions {
		if t.Month == month && t.IsRecurring() {
			present[t.Subcategory] = true
		}
	}

	first := month.FirstDay()
	for _, c := range settings.RecurringCharges {
		if present[c.Subcategory] {
			res.Skipped++
			continue
		}
		t := core.NewTransaction(first, c.Category, c.Subcategory, c.Amount.Abs().Neg(), core.PaymentPersonal, core.RecurringMarker)
		if err := t.Validate(); err != nil {
			p.logger.WarnContext(ctx, "Skipping invalid recurring charge",
				"title", c.Title,
				log.FieldCategory, c.Category,
				log.FieldError, err)
			res.Skipped++
			continue
		}
		present[c.Subcategory] = true
		res.Added = append(res.Added, t)
	}

	if len(res.Added) == 0 {
		p.logger.DebugContext(ctx, "Recurring charges up to date", log.FieldMonth, month.String(), "checked", len(settings.RecurringCharges))
		return res, nil
	}

	candidates := len(res.Added)
	added, err := p.persist(ctx, res.Added)
	if err != nil {
		p.logger.LogFields(ctx, slog.LevelError, "Failed to persist recurring charges", log.NewFields().
			WithOperation(log.OpReconcile).
			WithMonth(month.String()).
			WithError(err, log.ErrorTypeDatabase))
		return ReconcileResult{Month: month}, err
	}
	res.Added = added
	res.Skipped += candidates - len(added)

	p.logger.InfoContext(ctx, "Recurring charges applied",
		log.FieldMonth, month.String(),
		log.FieldAdded, len(res.Added),
		log.FieldSkipped, res.Skipped)

	for _, t := range res.Added {
		publish(ctx, p.logger, p.publisher, EventRecurringApplied, t)
	}
	return res, nil
}

// persist writes ts and returns the entries actually appended.
func (p *RecurringProcessor) persist(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	if rw, ok := p.ledger.(store.RecurringWriter); ok {
		added, err := rw.AppendRecurring(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("append recurring charges: %w", err)
		}
		return added, nil
	}
	if bw, ok := p.ledger.(store.LedgerBatchWriter); ok {
		if err := bw.AppendAll(ctx, ts); err != nil {
			return nil, fmt.Errorf("append recurring charges: %w", err)
		}
		return ts, nil
	}
	for _, t := range ts {
		if err := p.ledger.Append(ctx, t); err != nil {
			return nil, fmt.Errorf("append recurring charge %q: %w", t.Subcategory, err)
		}
	}
	return ts, nil
}
