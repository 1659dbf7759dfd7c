package backend

import (
	"fmt"
	"time"

	"finanzas/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// file and sheets (settings document)
	DataDir string

	SQLiteDBPath string

	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	LedgerCacheTTL           time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = config.BackendMemory
	FileBackend   BackendType = config.BackendFile
	SQLiteBackend BackendType = config.BackendSQLite
	SheetsBackend BackendType = config.BackendSheets
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:    backendType,
		DataDir: appConfig.DataDir,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		LedgerCacheTTL:           appConfig.LedgerCacheTTL,
	}, nil
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for sheets backend settings")
		}
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend}
}
