package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Data backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite, BackendSheets}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string
	// DataDir holds the CSV ledger and the settings document (file and sheets backends).
	DataDir      string
	SQLiteDBPath string

	// AMQP ledger events; disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	LedgerCacheTTL           time.Duration

	// Recurring charges
	RecurringSchedule string

	StrictTaxonomy bool
	LogLevel       string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "finanzas"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transacciones"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		LedgerCacheTTL:           getEnvDuration("LEDGER_CACHE_TTL", 30*time.Second),

		RecurringSchedule: getEnv("RECURRING_SCHEDULE", "5 0 1 * *"),

		StrictTaxonomy: getEnvBool("FINANZAS_STRICT_TAXONOMY", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if (c.DataBackend == BackendFile || c.DataBackend == BackendSheets) && strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, fmt.Sprintf("data directory cannot be empty when using %s backend", c.DataBackend))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.LedgerCacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid ledger cache TTL %v: must not be negative", c.LedgerCacheTTL))
		} else if c.LedgerCacheTTL > time.Hour {
			errors = append(errors, fmt.Sprintf("invalid ledger cache TTL %v: must be at most 1 hour", c.LedgerCacheTTL))
		}
	}

	if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid recurring schedule '%s': %v", c.RecurringSchedule, err))
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker applies Validate plus the worker's own constraint: it only
// runs against the sqlite backend, where the database itself rejects a second
// recurring entry for the same month and subcategory.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataBackend != BackendSQLite {
		return fmt.Errorf("configuration validation failed:\n- recurring worker requires the sqlite backend, got '%s'", c.DataBackend)
	}
	return nil
}

// Level returns the slog level for LogLevel, Info when unrecognized.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
