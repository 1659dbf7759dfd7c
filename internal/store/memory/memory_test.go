package memory

import (
	"context"
	"testing"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

func txn(day int, amount string) core.Transaction {
	return core.NewTransaction(core.NewDate(2024, 3, day), "Comida", "Café", decimal.RequireFromString(amount), core.PaymentPersonal, "")
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New(txn(1, "-1"))

	if err := s.Append(ctx, txn(2, "-2")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendAll(ctx, []core.Transaction{txn(3, "-3"), txn(4, "-4")}); err != nil {
		t.Fatalf("append all: %v", err)
	}

	l, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Transactions) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(l.Transactions))
	}
	for i, tr := range l.Transactions {
		if tr.Date.Day() != i+1 {
			t.Fatalf("order not preserved at %d: %s", i, tr.Date)
		}
	}

	// callers get a copy
	l.Transactions[0].Category = "changed"
	again, _ := s.LoadAll(ctx)
	if again.Transactions[0].Category != "Comida" {
		t.Fatalf("ledger mutated through returned slice")
	}
}

func TestMemoryStoreAppendAllRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	bad := txn(2, "-2")
	bad.Category = ""

	if err := s.AppendAll(ctx, []core.Transaction{txn(1, "-1"), bad}); err == nil {
		t.Fatalf("expected error for invalid batch")
	}
	l, _ := s.LoadAll(ctx)
	if len(l.Transactions) != 0 {
		t.Fatalf("partial batch persisted: %d", len(l.Transactions))
	}
}

func TestMemoryStoreSettings(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.LoadSettings(ctx); err != nil || ok {
		t.Fatalf("expected no settings yet, ok=%v err=%v", ok, err)
	}

	want := core.DefaultSettings()
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	want.Budgets["Ocio"] = decimal.NewFromInt(1)

	got, ok, err := s.LoadSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !got.Equal(core.DefaultSettings()) {
		t.Fatalf("stored settings aliased the caller's map")
	}
}
