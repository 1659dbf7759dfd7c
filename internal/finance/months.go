package finance

import (
	"sort"

	"finanzas/internal/core"
)

// MonthKeys returns the distinct non-blank month keys of the ledger in
// chronological order.
func MonthKeys(ledger []core.Transaction) []core.MonthKey {
	seen := make(map[core.MonthKey]struct{})
	var out []core.MonthKey
	for _, t := range ledger {
		if t.Month.IsZero() {
			continue
		}
		if _, ok := seen[t.Month]; ok {
			continue
		}
		seen[t.Month] = struct{}{}
		out = append(out, t.Month)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LatestMonth returns the most recent month key, or "" for an empty ledger.
func LatestMonth(ledger []core.Transaction) core.MonthKey {
	keys := MonthKeys(ledger)
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1]
}

// MonthOptions pairs each month key with its display label.
func MonthOptions(ledger []core.Transaction) []core.MonthOption {
	keys := MonthKeys(ledger)
	out := make([]core.MonthOption, len(keys))
	for i, k := range keys {
		out[i] = core.MonthOption{Key: k, Label: k.Label()}
	}
	return out
}
