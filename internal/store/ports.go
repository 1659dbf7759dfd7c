package store

import (
	"context"

	"finanzas/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerReader loads the full ledger in insertion order. A missing ledger
	// is initialized empty and is not an error.
	LedgerReader interface {
		LoadAll(ctx context.Context) (core.Ledger, error)
	}

	// LedgerWriter appends exactly one transaction at the end of the ledger.
	LedgerWriter interface {
		Append(ctx context.Context, t core.Transaction) error
	}

	// LedgerBatchWriter appends several transactions with a single persist.
	LedgerBatchWriter interface {
		AppendAll(ctx context.Context, ts []core.Transaction) error
	}

	// RecurringWriter appends recurring entries atomically, leaving out any
	// whose month already holds a recurring entry for the same subcategory.
	// It returns the entries actually appended.
	RecurringWriter interface {
		AppendRecurring(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error)
	}

	Ledger interface {
		LedgerReader
		LedgerWriter
	}

	// SettingsStore persists the settings document as a whole.
	SettingsStore interface {
		// LoadSettings returns the persisted settings and whether a document existed.
		LoadSettings(ctx context.Context) (core.Settings, bool, error)
		// SaveSettings replaces the persisted document.
		SaveSettings(ctx context.Context, s core.Settings) error
	}
)
