package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/log"
	"finanzas/internal/store/file"
	"finanzas/internal/store/google"
	"finanzas/internal/store/memory"
	"finanzas/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend. The AMQP publisher is
// attached to every backend type when configured; a broker that cannot be
// reached only disables publishing.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res = f.createMemoryBackend()
	case FileBackend:
		res, err = f.createFileBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(ctx, config, res)
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	st := memory.New()
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Ledger: st, Settings: st}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	st, err := file.New(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	f.logger.Info("Initialized file backend", "ledger", st.LedgerPath())
	return &BackendResult{
		Ledger:   st,
		Settings: st,
		Ready:    dirReady(config.DataDir),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Ledger:   repo,
		Settings: repo,
		Ready:    repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		CacheTTL:        config.LedgerCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	settings, err := file.New(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	manager := cache.NewManager()
	manager.Register(client.Cache())
	if config.LedgerCacheTTL > 0 {
		manager.StartCleanup(config.LedgerCacheTTL)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"sheet", config.GoogleSheetName,
		"cache_ttl", config.LedgerCacheTTL.String())

	return &BackendResult{
		Ledger:   client,
		Settings: settings,
		Ready:    dirReady(config.DataDir),
		Cleanup: func() error {
			manager.Stop()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, res *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"routing_key", config.AMQPRoutingKey)

	res.Publisher = client
	prev := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if prev != nil {
			if err := prev(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

func dirReady(dir string) func(context.Context) error {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("data dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data dir %s is not a directory", dir)
		}
		return nil
	}
}
