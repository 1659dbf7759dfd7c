package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type (
	// RecurringCharge is a fixed monthly expense. Amount is stored positive;
	// the sign is applied when it is materialized.
	RecurringCharge struct {
		Title       string
		Amount      decimal.Decimal
		Category    string
		Subcategory string
	}

	// Settings holds salary parameters, starting cash, per-category budget
	// limits and the recurring charges. Rates are percentages.
	Settings struct {
		GrossSalary            decimal.Decimal
		IncomeTaxRate          decimal.Decimal
		SocialContributionRate decimal.Decimal
		StartingCash           decimal.Decimal
		Budgets                map[string]decimal.Decimal
		RecurringCharges       []RecurringCharge
	}
)

// DefaultSettings is persisted on first run.
func DefaultSettings() Settings {
	budgets := make(map[string]decimal.Decimal)
	for _, c := range DefaultTaxonomy().Categories() {
		budgets[c] = decimal.NewFromInt(200)
	}
	return Settings{
		GrossSalary:            decimal.NewFromInt(2000),
		IncomeTaxRate:          decimal.NewFromInt(15),
		SocialContributionRate: decimal.RequireFromString("6.35"),
		StartingCash:           decimal.NewFromInt(5000),
		Budgets:                budgets,
		RecurringCharges: []RecurringCharge{
			{Title: "Spotify", Amount: decimal.RequireFromString("9.99"), Category: "Ocio", Subcategory: "Suscripciones"},
			{Title: "iCloud", Amount: decimal.RequireFromString("2.99"), Category: "Servicios", Subcategory: "Internet"},
		},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.Budgets = make(map[string]decimal.Decimal, len(s.Budgets))
	for k, v := range s.Budgets {
		out.Budgets[k] = v
	}
	out.RecurringCharges = append([]RecurringCharge(nil), s.RecurringCharges...)
	return out
}

// Equal compares values numerically.
func (s Settings) Equal(o Settings) bool {
	if !s.GrossSalary.Equal(o.GrossSalary) ||
		!s.IncomeTaxRate.Equal(o.IncomeTaxRate) ||
		!s.SocialContributionRate.Equal(o.SocialContributionRate) ||
		!s.StartingCash.Equal(o.StartingCash) {
		return false
	}
	if len(s.Budgets) != len(o.Budgets) {
		return false
	}
	for k, v := range s.Budgets {
		ov, ok := o.Budgets[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	if len(s.RecurringCharges) != len(o.RecurringCharges) {
		return false
	}
	for i, c := range s.RecurringCharges {
		oc := o.RecurringCharges[i]
		if c.Title != oc.Title || c.Category != oc.Category || c.Subcategory != oc.Subcategory || !c.Amount.Equal(oc.Amount) {
			return false
		}
	}
	return true
}

// Warnings lists values outside a sane range. Nothing is rejected or corrected;
// callers decide whether to surface them.
func (s Settings) Warnings() []string {
	var out []string
	hundred := decimal.NewFromInt(100)
	if s.GrossSalary.IsNegative() {
		out = append(out, fmt.Sprintf("gross salary is negative (%s)", s.GrossSalary))
	}
	for name, rate := range map[string]decimal.Decimal{
		"income tax rate":          s.IncomeTaxRate,
		"social contribution rate": s.SocialContributionRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			out = append(out, fmt.Sprintf("%s %s%% is outside 0-100", name, rate))
		}
	}
	for cat, limit := range s.Budgets {
		if !limit.IsPositive() {
			out = append(out, fmt.Sprintf("budget for %q is not positive (%s)", cat, limit))
		}
		if !DefaultTaxonomy().Has(cat) {
			out = append(out, fmt.Sprintf("budget category %q is not in the taxonomy", cat))
		}
	}
	for _, c := range s.RecurringCharges {
		if c.Amount.IsZero() {
			out = append(out, fmt.Sprintf("recurring charge %q has zero amount", c.Title))
		}
	}
	sort.Strings(out)
	return out
}
