package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finanzas/internal/core"
)

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 10
)

var errBadBody = errors.New("invalid request body")

// recordBody is the POST /api/transactions payload. Amount accepts a JSON
// number or a string with either decimal separator ("12,34").
type recordBody struct {
	Date          string `json:"date"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Amount        any    `json:"amount"`
	Kind          string `json:"kind"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

// decodeJSON reads at most maxBodyBytes from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: empty body", errBadBody)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// ParseRecordRequest decodes a movement. A missing kind means expense; a
// missing date is left zero for the service to fill in.
func ParseRecordRequest(w http.ResponseWriter, r *http.Request) (core.RecordRequest, error) {
	var body recordBody
	if err := decodeJSON(w, r, &body); err != nil {
		return core.RecordRequest{}, err
	}

	req := core.RecordRequest{
		Category:      sanitizeInput(body.Category),
		Subcategory:   sanitizeInput(body.Subcategory),
		Kind:          core.KindExpense,
		PaymentMethod: sanitizeInput(body.PaymentMethod),
		Notes:         sanitizeInput(body.Notes),
	}
	if k := strings.ToLower(strings.TrimSpace(body.Kind)); k != "" {
		req.Kind = core.EntryKind(k)
	}
	if d := strings.TrimSpace(body.Date); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			return core.RecordRequest{}, err
		}
		req.Date = date
	}
	amount, err := core.ParseAmount(stringValue(body.Amount))
	if err != nil {
		return core.RecordRequest{}, err
	}
	req.Amount = amount
	return req, nil
}

// ParseLimit reads ?limit=n. Absent means defaultRecentLimit; 0 means all.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return defaultRecentLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}

// ParseMonthPath validates the {month} path value as a YYYY-MM key.
func ParseMonthPath(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
