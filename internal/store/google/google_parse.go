package google

import (
	"fmt"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/store"
)

// decodeRows converts a values matrix (as returned by the Sheets API) into a
// ledger. The header row and blank rows are ignored; rows that do not decode
// are counted as skipped.
func decodeRows(values [][]interface{}) core.Ledger {
	var l core.Ledger
	for i, raw := range values {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		if i == 0 && store.IsHeader(row) {
			continue
		}
		t, err := store.DecodeRecord(row)
		if err != nil {
			l.Skipped++
			continue
		}
		l.Transactions = append(l.Transactions, t)
	}
	return l
}

func encodeRows(ts []core.Transaction) [][]interface{} {
	out := make([][]interface{}, 0, len(ts))
	for _, t := range ts {
		rec := store.EncodeRecord(t)
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		out = append(out, row)
	}
	return out
}

func headerRow() [][]interface{} {
	row := make([]interface{}, len(store.LedgerHeader))
	for i, v := range store.LedgerHeader {
		row[i] = v
	}
	return [][]interface{}{row}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
