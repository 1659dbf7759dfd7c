package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"

	_ "modernc.org/sqlite"
)

var (
	_ store.Ledger            = (*SQLiteRepository)(nil)
	_ store.LedgerBatchWriter = (*SQLiteRepository)(nil)
	_ store.RecurringWriter   = (*SQLiteRepository)(nil)
	_ store.SettingsStore     = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger := log.Default(log.ComponentStorage)
	logger.Info("SQLite ledger ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadAll implements store.LedgerReader. Rows that no longer decode are
// skipped and counted.
func (r *SQLiteRepository) LoadAll(ctx context.Context) (core.Ledger, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("list transactions: %w", err)
	}

	l := core.Ledger{Transactions: make([]core.Transaction, 0, len(rows))}
	for _, row := range rows {
		t, err := store.DecodeRecord([]string{
			row.Fecha, row.Mes, row.Categoria, row.Subcategoria, row.Importe, row.MetodoPago, row.Notas,
		})
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable transaction row",
				"id", row.ID,
				log.FieldOperation, log.OpParse,
				log.FieldError, err)
			l.Skipped++
			continue
		}
		l.Transactions = append(l.Transactions, t)
	}
	return l, nil
}

// Append implements store.LedgerWriter
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	id, err := r.queries.InsertTransaction(ctx, insertParams(t))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert transaction",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		return fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		log.FieldMonth, t.Month.String(),
		log.FieldCategory, t.Category,
		log.FieldAmount, t.Amount.String())
	return nil
}

// AppendAll inserts every transaction inside one database transaction.
func (r *SQLiteRepository) AppendAll(ctx context.Context, ts []core.Transaction) error {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, t := range ts {
		if _, err := q.InsertTransaction(ctx, insertParams(t)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transactions saved to SQLite", "count", len(ts))
	return nil
}

// AppendRecurring implements store.RecurringWriter. Entries whose month
// already holds a recurring row for the same subcategory are left out, even
// when another process wrote that row after the caller loaded the ledger.
func (r *SQLiteRepository) AppendRecurring(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	added := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		n, err := q.InsertRecurringTransaction(ctx, insertParams(t))
		if err != nil {
			return nil, fmt.Errorf("insert recurring transaction: %w", err)
		}
		if n == 0 {
			r.logger.DebugContext(ctx, "Recurring charge already stored",
				log.FieldMonth, t.Month.String(),
				log.FieldSubcategory, t.Subcategory)
			continue
		}
		added = append(added, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return added, nil
}

// CountTransactions returns the number of stored rows, readable or not.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	return r.queries.CountTransactions(ctx)
}

// LoadSettings implements store.SettingsStore
func (r *SQLiteRepository) LoadSettings(ctx context.Context) (core.Settings, bool, error) {
	doc, err := r.queries.GetSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}
	s, err := store.DecodeSettings([]byte(doc))
	if err != nil {
		return core.Settings{}, false, err
	}
	return s, true, nil
}

// SaveSettings implements store.SettingsStore
func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	doc, err := store.EncodeSettings(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.queries.UpsertSettings(ctx, string(doc)); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func insertParams(t core.Transaction) InsertTransactionParams {
	rec := store.EncodeRecord(t)
	return InsertTransactionParams{
		Fecha:        rec[0],
		Mes:          rec[1],
		Categoria:    rec[2],
		Subcategoria: rec[3],
		Importe:      rec[4],
		MetodoPago:   rec[5],
		Notas:        rec[6],
	}
}

// dsn makes writers wait up to five seconds on a locked database.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
