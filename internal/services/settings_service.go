package services

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"
)

type SettingsService struct {
	mu     sync.Mutex
	store  store.SettingsStore
	logger *log.Logger
}

func NewSettingsService(st store.SettingsStore) *SettingsService {
	return &SettingsService{store: st, logger: log.Default(log.ComponentSettings)}
}

// Load returns the persisted settings. On first run the defaults are
// persisted and returned, so a second Load sees the same document.
func (s *SettingsService) Load(ctx context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok, err := s.store.LoadSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if ok {
		return settings, nil
	}

	settings = core.DefaultSettings()
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("persist default settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Default settings persisted")
	return settings, nil
}

// Save replaces the whole document. Out-of-range values are accepted and
// only logged.
func (s *SettingsService) Save(ctx context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range settings.Warnings() {
		s.logger.WarnContext(ctx, "Settings value out of range", "warning", w)
	}
	if err := s.store.SaveSettings(ctx, settings.Clone()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Settings saved",
		log.FieldOperation, log.OpSave,
		"budgets", len(settings.Budgets),
		"recurring_charges", len(settings.RecurringCharges))
	return nil
}
