package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"
)

// TransactionService records user-entered movements.
type TransactionService struct {
	mu        *sync.Mutex
	ledger    store.Ledger
	publisher EventPublisher
	taxonomy  core.Taxonomy
	strict    bool
	now       func() time.Time
	logger    *log.Logger
}

// NewTransactionService creates the recording collaborator. With strict set,
// category pairs outside the taxonomy are rejected. publisher may be nil.
func NewTransactionService(ledger store.Ledger, publisher EventPublisher, strict bool) *TransactionService {
	return &TransactionService{
		mu:        &sync.Mutex{},
		ledger:    ledger,
		publisher: publisher,
		taxonomy:  core.DefaultTaxonomy(),
		strict:    strict,
		now:       time.Now,
		logger:    log.Default(log.ComponentLedger),
	}
}

// Record validates req, applies the sign convention and appends the entry.
// Nothing is persisted when validation fails.
func (s *TransactionService) Record(ctx context.Context, req core.RecordRequest) (core.Transaction, error) {
	if req.Kind == core.KindIncome && strings.TrimSpace(req.Category) == "" {
		req.Category = core.IncomeCategory
	}
	if req.Date.IsZero() {
		req.Date = core.DateOf(s.now())
	}
	if err := req.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := req.Transaction()
	if s.strict {
		if err := s.taxonomy.Validate(t.Category, t.Subcategory); err != nil {
			return core.Transaction{}, err
		}
	}

	s.mu.Lock()
	err := s.ledger.Append(ctx, t)
	s.mu.Unlock()
	if err != nil {
		s.logger.LogFields(ctx, slog.LevelError, "Failed to append transaction", log.NewFields().
			WithOperation(log.OpRecord).
			WithError(err, log.ErrorTypeDatabase))
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	s.logger.LogFields(ctx, slog.LevelInfo, "Transaction recorded", log.NewFields().
		WithOperation(log.OpRecord).
		WithTransaction(t.Month.String(), t.Category, t.Subcategory, t.Amount.String(), t.PaymentMethod))

	s.publish(ctx, EventTransactionRecorded, t)
	return t, nil
}

// Recent returns up to n transactions, newest first by ledger position.
func (s *TransactionService) Recent(ctx context.Context, n int) ([]core.Transaction, error) {
	l, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if n <= 0 || n > len(l.Transactions) {
		n = len(l.Transactions)
	}
	out := make([]core.Transaction, 0, n)
	for i := len(l.Transactions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.Transactions[i])
	}
	return out, nil
}

func (s *TransactionService) publish(ctx context.Context, eventType string, t core.Transaction) {
	publish(ctx, s.logger, s.publisher, eventType, t)
}

func publish(ctx context.Context, logger *log.Logger, p EventPublisher, eventType string, t core.Transaction) {
	if p == nil {
		return
	}
	if err := p.PublishTransaction(ctx, eventType, t); err != nil {
		fields := log.NewFields().
			WithMonth(t.Month.String()).
			WithError(err, log.ErrorTypeNetwork)
		fields["type"] = eventType
		logger.LogFields(ctx, slog.LevelError, "Failed to publish ledger event", fields)
	}
}
