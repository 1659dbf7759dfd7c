package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// PaymentPersonal is the default personal payment channel.
	PaymentPersonal = "Tarjeta Personal"
	// PaymentBenefit is the employer-benefit channel; its spend is deducted from gross salary before tax.
	PaymentBenefit = "Cobee"

	// RecurringMarker is the reserved notes value of auto-generated recurring entries.
	RecurringMarker = "Gasto Fijo Automático"
)

const (
	KindExpense EntryKind = "expense"
	KindIncome  EntryKind = "income"
)

type (
	// EntryKind is the sign convention applied when recording a user entry.
	EntryKind string

	Date struct {
		time.Time
	}

	// Transaction is one ledger row. Amount sign is the only expense/income
	// discriminator: negative is an expense, positive an income.
	Transaction struct {
		Date          Date
		Month         MonthKey
		Category      string
		Subcategory   string
		Amount        decimal.Decimal
		PaymentMethod string
		Notes         string
	}

	// Ledger is the result of loading every persisted transaction.
	Ledger struct {
		Transactions []Transaction
		// Skipped counts persisted records that could not be parsed.
		Skipped int
	}

	// RecordRequest is a user-entered movement before the sign is applied.
	RecordRequest struct {
		Date          Date
		Category      string
		Subcategory   string
		Amount        decimal.Decimal // always positive, as typed by the user
		Kind          EntryKind
		PaymentMethod string
		Notes         string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid entry kind")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownSubcategory = errors.New("unknown subcategory")
	ErrInvalidMonth       = errors.New("invalid month key")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateLayout is the persisted date format.
const DateLayout = "2006-01-02"

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewTransaction builds a transaction whose month key is derived from the date.
func NewTransaction(date Date, category, subcategory string, amount decimal.Decimal, method, notes string) Transaction {
	return Transaction{
		Date:          date,
		Month:         MonthKeyOf(date.Time),
		Category:      category,
		Subcategory:   subcategory,
		Amount:        amount,
		PaymentMethod: method,
		Notes:         notes,
	}
}

// IsExpense reports whether the amount is negative.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the amount is positive.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsRecurring reports whether the transaction was materialized from a recurring charge.
func (t Transaction) IsRecurring() bool {
	return t.Notes == RecurringMarker
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Month.IsZero() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

func (k EntryKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Transaction applies the sign convention and returns the ledger entry.
// The request must already be valid.
func (r RecordRequest) Transaction() Transaction {
	amount := r.Amount.Abs()
	if r.Kind == KindExpense {
		amount = amount.Neg()
	}
	method := strings.TrimSpace(r.PaymentMethod)
	if method == "" {
		method = PaymentPersonal
	}
	return NewTransaction(r.Date, strings.TrimSpace(r.Category), strings.TrimSpace(r.Subcategory), amount, method, strings.TrimSpace(r.Notes))
}

func (r RecordRequest) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
