package memory

import (
	"context"
	"sync"

	"finanzas/internal/core"
)

// Store keeps the ledger and settings in process memory. Used by tests and
// the "memory" backend.
type Store struct {
	mu       sync.Mutex
	items    []core.Transaction
	settings *core.Settings
}

func New(seed ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

// LoadAll returns a copy of the ledger in insertion order.
func (s *Store) LoadAll(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Ledger{Transactions: append([]core.Transaction(nil), s.items...)}, nil
}

// Append stores one transaction at the end of the ledger.
func (s *Store) Append(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return nil
}

// AppendAll stores every transaction or none.
func (s *Store) AppendAll(_ context.Context, ts []core.Transaction) error {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ts...)
	return nil
}

func (s *Store) LoadSettings(_ context.Context) (core.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.Settings{}, false, nil
	}
	return s.settings.Clone(), true, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := settings.Clone()
	s.settings = &c
	return nil
}
