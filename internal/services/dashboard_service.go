package services

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/finance"
	"finanzas/internal/store"
)

// MonthView is one month's derived figures plus the month selector data.
type MonthView struct {
	Result  finance.Result
	Options []core.MonthOption
	// Skipped counts persisted records that could not be read.
	Skipped int
}

type DashboardService struct {
	ledger   store.LedgerReader
	settings *SettingsService
}

func NewDashboardService(ledger store.LedgerReader, settings *SettingsService) *DashboardService {
	return &DashboardService{ledger: ledger, settings: settings}
}

// Months lists the months present in the ledger, oldest first.
func (s *DashboardService) Months(ctx context.Context) ([]core.MonthOption, error) {
	l, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return finance.MonthOptions(l.Transactions), nil
}

// Month derives the view for key. A zero key selects the latest month in
// the ledger. An empty ledger yields ErrEmptyLedger; a key with no
// transactions yields a well-formed all-zero month.
func (s *DashboardService) Month(ctx context.Context, key core.MonthKey) (MonthView, error) {
	l, err := s.ledger.LoadAll(ctx)
	if err != nil {
		return MonthView{}, fmt.Errorf("load ledger: %w", err)
	}
	if len(l.Transactions) == 0 {
		return MonthView{Skipped: l.Skipped}, ErrEmptyLedger
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return MonthView{}, err
	}
	if key.IsZero() {
		key = finance.LatestMonth(l.Transactions)
	}
	return MonthView{
		Result:  finance.DeriveMonth(l.Transactions, key, settings),
		Options: finance.MonthOptions(l.Transactions),
		Skipped: l.Skipped,
	}, nil
}
