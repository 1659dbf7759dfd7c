package amqp

import (
	"encoding/json"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

// Ledger event types.
const (
	EventTransactionRecorded = "transaction.recorded"
	EventRecurringApplied    = "recurring.applied"
)

// LedgerEvent announces one transaction appended to the ledger. Amount keeps
// the ledger sign and is encoded as a decimal string.
type LedgerEvent struct {
	Type          string          `json:"type"`
	Month         string          `json:"month"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewLedgerEvent builds the event for t, stamped with the current time.
func NewLedgerEvent(eventType string, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Type:          eventType,
		Month:         t.Month.String(),
		Date:          t.Date.String(),
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
