package backend

import (
	"context"

	"finanzas/internal/services"
	"finanzas/internal/store"
)

// CleanupFunc releases backend resources
type CleanupFunc func() error

// BackendResult holds the stores for the configured backend. Publisher is
// nil when AMQP is not configured or unreachable.
type BackendResult struct {
	Ledger    store.Ledger
	Settings  store.SettingsStore
	Publisher services.EventPublisher
	// Ready reports whether the backend can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
