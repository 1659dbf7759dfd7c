package services

import (
	"context"
	"errors"
	"sync"
	"path/filepath"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
	"finanzas/internal/store"
	"finanzas/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, eventType string, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+t.Subcategory)
	return p.err
}

// appendOnly hides the batch capability of the wrapped ledger.
type appendOnly struct {
	store.Ledger
	appends int
}

func (a *appendOnly) Append(ctx context.Context, t core.Transaction) error {
	a.appends++
	return a.Ledger.Append(ctx, t)
}

type failingSettings struct{}

func (failingSettings) LoadSettings(context.Context) (core.Settings, bool, error) {
	return core.Settings{}, false, errors.New("disk on fire")
}

func (failingSettings) SaveSettings(context.Context, core.Settings) error {
	return errors.New("disk on fire")
}

func newServices(t *testing.T, pub EventPublisher) (*Services, *memory.Store) {
	t.Helper()
	st := memory.New()
	return New(Deps{Ledger: st, Settings: st, Publisher: pub}), st
}

func TestSettingsService_LoadPersistsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newServices(t, nil)

	first, err := svc.Settings.Load(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(core.DefaultSettings()))

	persisted, ok, err := st.LoadSettings(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, persisted.Equal(first))

	second, err := svc.Settings.Load(ctx)
	require.NoError(t, err)
	assert.True(t, second.Equal(first))
}

func TestSettingsService_SaveReplacesDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t, nil)

	s := core.DefaultSettings()
	s.GrossSalary = dec("-1") // accepted, only warned about
	s.Budgets = map[string]decimal.Decimal{"Ocio": dec("50")}
	s.RecurringCharges = nil
	require.NoError(t, svc.Settings.Save(ctx, s))

	got, err := svc.Settings.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(s))
}

func TestSettingsService_StoreErrors(t *testing.T) {
	svc := NewSettingsService(failingSettings{})
	_, err := svc.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, svc.Save(context.Background(), core.DefaultSettings()))
}

func TestTransactionService_Record(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, st := newServices(t, pub)

	got, err := svc.Transactions.Record(ctx, core.RecordRequest{
		Date:        core.NewDate(2024, 3, 10),
		Category:    " Comida ",
		Subcategory: "Café",
		Amount:      dec("3.5"),
		Kind:        core.KindExpense,
	})
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("-3.5")))
	assert.Equal(t, "Comida", got.Category)
	assert.Equal(t, core.PaymentPersonal, got.PaymentMethod)
	assert.Equal(t, core.MonthKey("2024-03"), got.Month)

	income, err := svc.Transactions.Record(ctx, core.RecordRequest{
		Date:        core.NewDate(2024, 3, 11),
		Subcategory: "Bizum",
		Amount:      dec("20"),
		Kind:        core.KindIncome,
	})
	require.NoError(t, err)
	assert.Equal(t, core.IncomeCategory, income.Category)
	assert.True(t, income.Amount.Equal(dec("20")))

	l, err := st.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 2)
	assert.Equal(t, []string{EventTransactionRecorded + ":Café", EventTransactionRecorded + ":Bizum"}, pub.events)
}

func TestTransactionService_RecordRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  core.RecordRequest
		want error
	}{
		{"zero amount", core.RecordRequest{Category: "Ocio", Amount: decimal.Zero, Kind: core.KindExpense}, core.ErrInvalidAmount},
		{"negative amount", core.RecordRequest{Category: "Ocio", Amount: dec("-5"), Kind: core.KindExpense}, core.ErrInvalidAmount},
		{"empty category", core.RecordRequest{Category: "  ", Amount: dec("5"), Kind: core.KindExpense}, core.ErrEmptyCategory},
		{"unknown kind", core.RecordRequest{Category: "Ocio", Amount: dec("5"), Kind: "gift"}, core.ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc, st := newServices(t, pub)
			tt.req.Date = core.NewDate(2024, 3, 1)

			_, err := svc.Transactions.Record(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)

			l, _ := st.LoadAll(ctx)
			assert.Empty(t, l.Transactions)
			assert.Empty(t, pub.events)
		})
	}
}

func TestTransactionService_StrictTaxonomy(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := New(Deps{Ledger: st, Settings: st, StrictTaxonomy: true})

	_, err := svc.Transactions.Record(ctx, core.RecordRequest{
		Date: core.NewDate(2024, 3, 1), Category: "Mascotas", Amount: dec("5"), Kind: core.KindExpense,
	})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = svc.Transactions.Record(ctx, core.RecordRequest{
		Date: core.NewDate(2024, 3, 1), Category: "Ocio", Subcategory: "Cine", Amount: dec("5"), Kind: core.KindExpense,
	})
	assert.NoError(t, err)
}

func TestTransactionService_DefaultsDateToToday(t *testing.T) {
	st := memory.New()
	svc := New(Deps{Ledger: st, Settings: st, Now: func() time.Time {
		return time.Date(2024, 7, 14, 18, 30, 0, 0, time.UTC)
	}})

	got, err := svc.Transactions.Record(context.Background(), core.RecordRequest{
		Category: "Ocio", Amount: dec("5"), Kind: core.KindExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-14", got.Date.String())
}

func TestTransactionService_PublishFailureKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	svc, st := newServices(t, &recordingPublisher{err: errors.New("broker down")})

	_, err := svc.Transactions.Record(ctx, core.RecordRequest{
		Date: core.NewDate(2024, 3, 1), Category: "Ocio", Amount: dec("5"), Kind: core.KindExpense,
	})
	require.NoError(t, err)
	l, _ := st.LoadAll(ctx)
	assert.Len(t, l.Transactions, 1)
}

func TestTransactionService_Recent(t *testing.T) {
	ctx := context.Background()
	var seed []core.Transaction
	for day := 1; day <= 12; day++ {
		seed = append(seed, core.NewTransaction(core.NewDate(2024, 3, day), "Ocio", "", dec("-1"), core.PaymentPersonal, ""))
	}
	st := memory.New(seed...)
	svc := New(Deps{Ledger: st, Settings: st})

	recent, err := svc.Transactions.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, 12, recent[0].Date.Day())
	assert.Equal(t, 3, recent[9].Date.Day())

	all, err := svc.Transactions.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)
}

func TestRecurringProcessor_SpotifyScenario(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, st := newServices(t, pub)

	s := core.DefaultSettings()
	s.RecurringCharges = []core.RecurringCharge{
		{Title: "Spotify", Amount: dec("9.99"), Category: "Ocio", Subcategory: "Suscripciones"},
	}
	require.NoError(t, svc.Settings.Save(ctx, s))

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	res, err := svc.Recurring.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, core.MonthKey("2024-03"), res.Month)
	require.Len(t, res.Added, 1)

	added := res.Added[0]
	assert.Equal(t, "2024-03-01", added.Date.String())
	assert.True(t, added.Amount.Equal(dec("-9.99")))
	assert.Equal(t, core.PaymentPersonal, added.PaymentMethod)
	assert.Equal(t, core.RecurringMarker, added.Notes)
	assert.Equal(t, "Ocio", added.Category)

	again, err := svc.Recurring.Reconcile(ctx, now.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Empty(t, again.Added)
	assert.Equal(t, 1, again.Skipped)

	l, err := st.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 1)
	assert.Equal(t, []string{EventRecurringApplied + ":Suscripciones"}, pub.events)

	next, err := svc.Recurring.Reconcile(ctx, time.Date(2024, 4, 1, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, next.Added, 1)
	assert.Equal(t, core.MonthKey("2024-04"), next.Added[0].Month)
}

func TestRecurringProcessor_DuplicateChargesAddedOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newServices(t, nil)

	s := core.DefaultSettings()
	s.RecurringCharges = []core.RecurringCharge{
		{Title: "Gym", Amount: dec("30"), Category: "Salud", Subcategory: "Gimnasio"},
		{Title: "Gym again", Amount: dec("30"), Category: "Salud", Subcategory: "Gimnasio"},
		{Title: "Broken", Amount: decimal.Zero, Category: "Salud", Subcategory: "Otros"},
	}
	require.NoError(t, svc.Settings.Save(ctx, s))

	res, err := svc.Recurring.Reconcile(ctx, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Equal(t, 2, res.Skipped)

	l, _ := st.LoadAll(ctx)
	assert.Len(t, l.Transactions, 1)
}

func TestRecurringProcessor_ManualEntryWithoutMarkerDoesNotCount(t *testing.T) {
	ctx := context.Background()
	manual := core.NewTransaction(core.NewDate(2024, 3, 3), "Ocio", "Suscripciones", dec("-9.99"), core.PaymentPersonal, "")
	st := memory.New(manual)
	svc := New(Deps{Ledger: st, Settings: st})

	res, err := svc.Recurring.Reconcile(ctx, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// defaults carry Spotify and iCloud
	assert.Len(t, res.Added, 2)
}

func TestRecurringProcessor_SequentialAppendWithoutBatchWriter(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ledger := &appendOnly{Ledger: st}
	settings := NewSettingsService(st)
	p := NewRecurringProcessor(ledger, settings, nil)

	res, err := p.Reconcile(ctx, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, res.Added, 2)
	assert.Equal(t, 2, ledger.appends)
}

func TestRecurringProcessor_NothingToAddDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ledger := &appendOnly{Ledger: st}
	settings := NewSettingsService(st)
	s := core.DefaultSettings()
	s.RecurringCharges = nil
	require.NoError(t, settings.Save(ctx, s))

	res, err := NewRecurringProcessor(ledger, settings, nil).Reconcile(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Zero(t, ledger.appends)
}

// staleLedger answers LoadAll with the snapshot taken before another
// process wrote its recurring charges.
type staleLedger struct {
	*storage.SQLiteRepository
	snapshot core.Ledger
}

func (s *staleLedger) LoadAll(context.Context) (core.Ledger, error) {
	return s.snapshot, nil
}

func TestRecurringProcessor_SharedSQLiteFileAddsChargesOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finanzas.db")
	now := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)

	appRepo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	defer appRepo.Close()
	workerRepo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	defer workerRepo.Close()

	snapshot, err := workerRepo.LoadAll(ctx)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	app := New(Deps{Ledger: appRepo, Settings: appRepo, Publisher: pub})
	res, err := app.Recurring.Reconcile(ctx, now)
	require.NoError(t, err)
	want := len(core.DefaultSettings().RecurringCharges)
	assert.Len(t, res.Added, want)

	worker := New(Deps{Ledger: &staleLedger{SQLiteRepository: workerRepo, snapshot: snapshot}, Settings: workerRepo, Publisher: pub})
	res, err = worker.Recurring.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, want, res.Skipped)

	n, err := appRepo.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, want, n)
	assert.Len(t, pub.events, want)
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		svc, _ := newServices(t, nil)
		_, err := svc.Dashboard.Month(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyLedger)

		months, err := svc.Dashboard.Months(ctx)
		require.NoError(t, err)
		assert.Empty(t, months)
	})

	t.Run("latest month by default", func(t *testing.T) {
		st := memory.New(
			core.NewTransaction(core.NewDate(2024, 4, 2), "Comida", "Restaurante", dec("-300"), core.PaymentBenefit, ""),
			core.NewTransaction(core.NewDate(2024, 3, 9), "Ocio", "Cine", dec("-10"), core.PaymentPersonal, ""),
		)
		svc := New(Deps{Ledger: st, Settings: st})

		view, err := svc.Dashboard.Month(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, core.MonthKey("2024-04"), view.Result.Month)
		assert.True(t, view.Result.EstimatedNetPay.Equal(dec("1318")))
		require.Len(t, view.Options, 2)
		assert.Equal(t, "marzo 2024", view.Options[0].Label)
	})

	t.Run("month without entries is all zero", func(t *testing.T) {
		st := memory.New(core.NewTransaction(core.NewDate(2024, 3, 9), "Ocio", "Cine", dec("-10"), core.PaymentPersonal, ""))
		svc := New(Deps{Ledger: st, Settings: st})

		view, err := svc.Dashboard.Month(ctx, "2023-01")
		require.NoError(t, err)
		assert.Zero(t, view.Result.TransactionCount)
		assert.True(t, view.Result.PersonalExpense.IsZero())
	})
}
