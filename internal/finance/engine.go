// Package finance derives the monthly cash-flow figures from a ledger and the
// user settings. Every function here is pure: callers load the data and pass
// a snapshot in.
package finance

import (
	"sort"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type (
	// BudgetStatus compares a category's spend in the month against its limit.
	BudgetStatus struct {
		Category string
		Limit    decimal.Decimal
		Spent    decimal.Decimal // magnitude, >= 0
		// Remaining is Limit - Spent; negative means over budget.
		Remaining decimal.Decimal
		// Usage is Spent/Limit clamped to [0, 1]; 0 when Limit <= 0.
		Usage      float64
		OverBudget bool
	}

	// Result is the derived view of one month.
	Result struct {
		Month            core.MonthKey
		TransactionCount int

		BenefitExpense  decimal.Decimal // <= 0
		PersonalExpense decimal.Decimal // <= 0
		ExtraIncome     decimal.Decimal // >= 0
		TotalExpense    decimal.Decimal // <= 0, every channel

		TaxableBase        decimal.Decimal
		EstimatedTax       decimal.Decimal
		SocialContribution decimal.Decimal
		EstimatedNetPay    decimal.Decimal

		CurrentCash   decimal.Decimal
		ProjectedCash decimal.Decimal

		Budgets []BudgetStatus
		// Unbudgeted lists expense categories of the month that have no limit.
		Unbudgeted []core.CategoryAmount
	}
)

// Snapshot returns the transactions whose month key equals month, in ledger order.
func Snapshot(ledger []core.Transaction, month core.MonthKey) []core.Transaction {
	var out []core.Transaction
	for _, t := range ledger {
		if t.Month == month {
			out = append(out, t)
		}
	}
	return out
}

// DeriveMonth computes the KPIs and budget status for month.
//
// The taxable base is GrossSalary + BenefitExpense: benefit spend is already
// negative, so the base is the gross salary minus what went through the
// benefit channel. Social contributions always apply to the full gross salary.
// An empty month yields zero sums and a well-formed result.
func DeriveMonth(ledger []core.Transaction, month core.MonthKey, s core.Settings) Result {
	snap := Snapshot(ledger, month)

	res := Result{
		Month:            month,
		TransactionCount: len(snap),
		BenefitExpense:   decimal.Zero,
		PersonalExpense:  decimal.Zero,
		ExtraIncome:      decimal.Zero,
		TotalExpense:     decimal.Zero,
	}

	spent := make(map[string]decimal.Decimal)
	for _, t := range snap {
		switch {
		case t.IsExpense():
			res.TotalExpense = res.TotalExpense.Add(t.Amount)
			switch t.PaymentMethod {
			case core.PaymentBenefit:
				res.BenefitExpense = res.BenefitExpense.Add(t.Amount)
			case core.PaymentPersonal:
				res.PersonalExpense = res.PersonalExpense.Add(t.Amount)
			}
			spent[t.Category] = spent[t.Category].Add(t.Amount.Abs())
		case t.IsIncome():
			res.ExtraIncome = res.ExtraIncome.Add(t.Amount)
		}
	}

	res.TaxableBase = s.GrossSalary.Add(res.BenefitExpense)
	res.EstimatedTax = res.TaxableBase.Mul(s.IncomeTaxRate).Div(hundred)
	res.SocialContribution = s.GrossSalary.Mul(s.SocialContributionRate).Div(hundred)
	res.EstimatedNetPay = res.TaxableBase.Sub(res.EstimatedTax).Sub(res.SocialContribution)

	res.CurrentCash = s.StartingCash.Add(res.ExtraIncome).Add(res.PersonalExpense)
	res.ProjectedCash = res.CurrentCash.Add(res.EstimatedNetPay)

	res.Budgets = budgetStatuses(s.Budgets, spent)
	res.Unbudgeted = unbudgeted(s.Budgets, spent)
	return res
}

// Status compares spent against limit.
func Status(category string, limit, spent decimal.Decimal) BudgetStatus {
	st := BudgetStatus{
		Category:   category,
		Limit:      limit,
		Spent:      spent,
		Remaining:  limit.Sub(spent),
		OverBudget: spent.GreaterThan(limit),
	}
	if limit.IsPositive() {
		ratio := spent.Div(limit)
		switch {
		case ratio.GreaterThan(decimal.NewFromInt(1)):
			st.Usage = 1
		case ratio.IsNegative():
			st.Usage = 0
		default:
			st.Usage = ratio.InexactFloat64()
		}
	}
	return st
}

func budgetStatuses(budgets map[string]decimal.Decimal, spent map[string]decimal.Decimal) []BudgetStatus {
	cats := make([]string, 0, len(budgets))
	for c := range budgets {
		cats = append(cats, c)
	}
	sortCategories(cats)

	out := make([]BudgetStatus, 0, len(cats))
	for _, c := range cats {
		s, ok := spent[c]
		if !ok {
			s = decimal.Zero
		}
		out = append(out, Status(c, budgets[c], s))
	}
	return out
}

func unbudgeted(budgets map[string]decimal.Decimal, spent map[string]decimal.Decimal) []core.CategoryAmount {
	var cats []string
	for c := range spent {
		if _, ok := budgets[c]; !ok {
			cats = append(cats, c)
		}
	}
	sortCategories(cats)
	out := make([]core.CategoryAmount, 0, len(cats))
	for _, c := range cats {
		out = append(out, core.CategoryAmount{Name: c, Amount: spent[c]})
	}
	return out
}

// sortCategories orders taxonomy categories first, in taxonomy order, then the rest alphabetically.
func sortCategories(cats []string) {
	tax := core.DefaultTaxonomy()
	sort.Slice(cats, func(i, j int) bool {
		ii, ij := tax.Index(cats[i]), tax.Index(cats[j])
		switch {
		case ii >= 0 && ij >= 0:
			return ii < ij
		case ii >= 0:
			return true
		case ij >= 0:
			return false
		default:
			return cats[i] < cats[j]
		}
	})
}
