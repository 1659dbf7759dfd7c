package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

// LedgerHeader is the fixed seven-column ledger schema.
var LedgerHeader = []string{"Fecha", "Mes", "Categoria", "Subcategoria", "Importe", "Metodo_Pago", "Notas"}

var errMalformedRecord = errors.New("malformed ledger record")

// dateLayouts accepted when reading; writes always use core.DateLayout.
var dateLayouts = []string{core.DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// EncodeRecord converts a transaction to a ledger row.
func EncodeRecord(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.Month.String(),
		t.Category,
		t.Subcategory,
		t.Amount.String(),
		t.PaymentMethod,
		t.Notes,
	}
}

// DecodeRecord parses a ledger row. Trailing optional columns may be missing.
// A Mes value that is not a YYYY-MM key (older data stored month names) is
// re-derived from the date.
func DecodeRecord(row []string) (core.Transaction, error) {
	if len(row) < 5 {
		return core.Transaction{}, fmt.Errorf("%w: %d columns", errMalformedRecord, len(row))
	}
	cols := make([]string, len(LedgerHeader))
	for i := range cols {
		if i < len(row) {
			cols[i] = strings.TrimSpace(row[i])
		}
	}

	date, err := parseRecordDate(cols[0])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: date %q", errMalformedRecord, cols[0])
	}
	amount, err := core.ParseSignedAmount(cols[4])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: amount %q", errMalformedRecord, cols[4])
	}
	if cols[2] == "" {
		return core.Transaction{}, fmt.Errorf("%w: empty category", errMalformedRecord)
	}

	t := core.NewTransaction(date, cols[2], cols[3], amount, cols[5], cols[6])
	if k, err := core.ParseMonthKey(cols[1]); err == nil {
		t.Month = k
	}
	return t, nil
}

// IsMalformed reports whether err came from DecodeRecord.
func IsMalformed(err error) bool {
	return errors.Is(err, errMalformedRecord)
}

// IsHeader reports whether row is the ledger header.
func IsHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(row[0], "\uFEFF")), LedgerHeader[0])
}

func parseRecordDate(s string) (core.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, core.ErrInvalidDate
}

type (
	settingsDocument struct {
		GrossSalary            float64             `json:"salario_bruto"`
		IncomeTaxRate          float64             `json:"irpf_porcentaje"`
		SocialContributionRate float64             `json:"seguridad_social_porcentaje"`
		StartingCash           float64             `json:"ahorros_actuales"`
		Budgets                map[string]float64  `json:"presupuestos"`
		RecurringCharges       []recurringDocument `json:"gastos_fijos"`
	}

	recurringDocument struct {
		Title       string  `json:"titulo"`
		Amount      float64 `json:"importe"`
		Category    string  `json:"categoria"`
		Subcategory string  `json:"subcategoria"`
	}
)

// EncodeSettings renders the settings document with its persisted key names.
func EncodeSettings(s core.Settings) ([]byte, error) {
	doc := settingsDocument{
		GrossSalary:            s.GrossSalary.InexactFloat64(),
		IncomeTaxRate:          s.IncomeTaxRate.InexactFloat64(),
		SocialContributionRate: s.SocialContributionRate.InexactFloat64(),
		StartingCash:           s.StartingCash.InexactFloat64(),
		Budgets:                make(map[string]float64, len(s.Budgets)),
		RecurringCharges:       make([]recurringDocument, 0, len(s.RecurringCharges)),
	}
	for k, v := range s.Budgets {
		doc.Budgets[k] = v.InexactFloat64()
	}
	for _, c := range s.RecurringCharges {
		doc.RecurringCharges = append(doc.RecurringCharges, recurringDocument{
			Title:       c.Title,
			Amount:      c.Amount.InexactFloat64(),
			Category:    c.Category,
			Subcategory: c.Subcategory,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeSettings parses a settings document. Missing keys decode as zero values.
func DecodeSettings(data []byte) (core.Settings, error) {
	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s := core.Settings{
		GrossSalary:            decimal.NewFromFloat(doc.GrossSalary),
		IncomeTaxRate:          decimal.NewFromFloat(doc.IncomeTaxRate),
		SocialContributionRate: decimal.NewFromFloat(doc.SocialContributionRate),
		StartingCash:           decimal.NewFromFloat(doc.StartingCash),
		Budgets:                make(map[string]decimal.Decimal, len(doc.Budgets)),
	}
	for k, v := range doc.Budgets {
		s.Budgets[k] = decimal.NewFromFloat(v)
	}
	for _, c := range doc.RecurringCharges {
		s.RecurringCharges = append(s.RecurringCharges, core.RecurringCharge{
			Title:       c.Title,
			Amount:      decimal.NewFromFloat(c.Amount),
			Category:    c.Category,
			Subcategory: c.Subcategory,
		})
	}
	return s, nil
}
