package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName = "Transacciones"
	ledgerCacheKey   = "ledger"
)

// Ensure interface conformance
var (
	_ store.Ledger            = (*Client)(nil)
	_ store.LedgerBatchWriter = (*Client)(nil)
)

// valuesAPI is the subset of the Sheets values API the ledger needs.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	Update(ctx context.Context, rng string, rows [][]interface{}) error
	Append(ctx context.Context, rng string, rows [][]interface{}) error
}

type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON wins over CredentialsFile when both are set.
	CredentialsJSON string
	CredentialsFile string
	CacheTTL        time.Duration
}

// Client stores the ledger on one sheet of a spreadsheet, one row per
// transaction with the seven ledger columns.
type Client struct {
	mu    sync.Mutex
	api   valuesAPI
	sheet string
	cache *cache.LRUCache[core.Ledger]
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&sheetsValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetName, cfg.CacheTTL), nil
}

func newClient(api valuesAPI, sheet string, ttl time.Duration) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	return &Client{
		api:   api,
		sheet: sheet,
		cache: cache.NewLRUCache[core.Ledger](1, ttl),
	}
}

// Cache exposes the ledger cache so a cache.Manager can sweep it.
func (c *Client) Cache() cache.Cleaner { return c.cache }

// LoadAll returns the cached ledger when fresh, otherwise reads the sheet.
// An empty sheet gets the header row written.
func (c *Client) LoadAll(ctx context.Context) (core.Ledger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.cache.Get(ledgerCacheKey); ok {
		return cloneLedger(l), nil
	}

	rng := fmt.Sprintf("%s!A:G", c.sheet)
	values, err := c.api.Get(ctx, rng)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(values) == 0 {
		if err := c.api.Update(ctx, fmt.Sprintf("%s!A1:G1", c.sheet), headerRow()); err != nil {
			return core.Ledger{}, fmt.Errorf("write header: %w", err)
		}
	}

	l := decodeRows(values)
	if l.Skipped > 0 {
		log.Default(log.ComponentSheets).WarnContext(ctx, "Skipped malformed sheet rows",
			"sheet", c.sheet,
			log.FieldOperation, log.OpParse,
			log.FieldSkipped, l.Skipped)
	}
	c.cache.Set(ledgerCacheKey, l)
	return cloneLedger(l), nil
}

// Append implements store.LedgerWriter
func (c *Client) Append(ctx context.Context, t core.Transaction) error {
	return c.AppendAll(ctx, []core.Transaction{t})
}

// AppendAll writes every row with a single append call.
func (c *Client) AppendAll(ctx context.Context, ts []core.Transaction) error {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	if len(ts) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:G", c.sheet)
	err := c.api.Append(ctx, rng, encodeRows(ts))
	// the sheet may have changed even when the call failed
	c.cache.Delete(ledgerCacheKey)
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	return nil
}

func cloneLedger(l core.Ledger) core.Ledger {
	return core.Ledger{
		Transactions: append([]core.Transaction(nil), l.Transactions...),
		Skipped:      l.Skipped,
	}
}

type sheetsValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *sheetsValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsValues) Update(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *sheetsValues) Append(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when the config carries none.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	log.Default(log.ComponentSheets).InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}
