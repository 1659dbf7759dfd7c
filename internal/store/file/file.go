// Package file persists the ledger as a CSV file and the settings as a JSON
// document under a data directory.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"
)

const (
	LedgerFile   = "transacciones.csv"
	SettingsFile = "settings.json"
)

// Store is safe for use by one process. Writes replace the target file
// through a temp file and rename so a crash never leaves a truncated ledger.
type Store struct {
	mu           sync.Mutex
	ledgerPath   string
	settingsPath string
}

// New creates the data directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		ledgerPath:   filepath.Join(dir, LedgerFile),
		settingsPath: filepath.Join(dir, SettingsFile),
	}, nil
}

// LedgerPath returns the CSV file location.
func (s *Store) LedgerPath() string { return s.ledgerPath }

// LoadAll reads every row. A missing file is created with just the header.
// Rows that fail to parse are skipped and counted.
func (s *Store) LoadAll(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (core.Ledger, error) {
	f, err := os.Open(s.ledgerPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return core.Ledger{}, err
		}
		return core.Ledger{}, nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var l core.Ledger
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				l.Skipped++
				continue
			}
			return core.Ledger{}, fmt.Errorf("read ledger: %w", err)
		}
		if first {
			first = false
			if store.IsHeader(row) {
				continue
			}
		}
		t, err := store.DecodeRecord(row)
		if err != nil {
			l.Skipped++
			continue
		}
		l.Transactions = append(l.Transactions, t)
	}
	if l.Skipped > 0 {
		log.Default(log.ComponentStorage).WarnContext(ctx, "Skipped malformed ledger rows",
			"path", s.ledgerPath,
			log.FieldOperation, log.OpParse,
			log.FieldSkipped, l.Skipped)
	}
	return l, nil
}

// Append adds one row at the end of the ledger.
func (s *Store) Append(ctx context.Context, t core.Transaction) error {
	return s.AppendAll(ctx, []core.Transaction{t})
}

// AppendAll reads the ledger, appends ts and writes it back in one replace.
func (s *Store) AppendAll(ctx context.Context, ts []core.Transaction) error {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.write(append(l.Transactions, ts...))
}

func (s *Store) write(ts []core.Transaction) error {
	return atomicWrite(s.ledgerPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(store.LedgerHeader); err != nil {
			return err
		}
		for _, t := range ts {
			if err := cw.Write(store.EncodeRecord(t)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func (s *Store) LoadSettings(_ context.Context) (core.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("read settings: %w", err)
	}
	settings, err := store.DecodeSettings(data)
	if err != nil {
		return core.Settings{}, false, err
	}
	return settings, true, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	data, err := store.EncodeSettings(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicWrite(s.settingsPath, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func atomicWrite(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
