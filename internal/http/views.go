package http

import (
	"finanzas/internal/core"
	"finanzas/internal/finance"
	"finanzas/internal/services"

	"github.com/shopspring/decimal"
)

// Wire representations. Amounts are decimal strings ("-9.99").
type (
	transactionView struct {
		Date          string          `json:"date"`
		Month         string          `json:"month"`
		Category      string          `json:"category"`
		Subcategory   string          `json:"subcategory"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method"`
		Notes         string          `json:"notes"`
		Recurring     bool            `json:"recurring"`
	}

	monthOptionView struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}

	budgetView struct {
		Category   string          `json:"category"`
		Limit      decimal.Decimal `json:"limit"`
		Spent      decimal.Decimal `json:"spent"`
		Remaining  decimal.Decimal `json:"remaining"`
		Usage      float64         `json:"usage"`
		OverBudget bool            `json:"over_budget"`
	}

	categoryAmountView struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}

	monthView struct {
		Empty   bool              `json:"empty"`
		Message string            `json:"message,omitempty"`
		Months  []monthOptionView `json:"months"`
		Skipped int               `json:"skipped_records"`

		Month            string `json:"month,omitempty"`
		Label            string `json:"label,omitempty"`
		TransactionCount int    `json:"transaction_count"`

		BenefitExpense     *decimal.Decimal `json:"benefit_expense,omitempty"`
		PersonalExpense    *decimal.Decimal `json:"personal_expense,omitempty"`
		ExtraIncome        *decimal.Decimal `json:"extra_income,omitempty"`
		TotalExpense       *decimal.Decimal `json:"total_expense,omitempty"`
		TaxableBase        *decimal.Decimal `json:"taxable_base,omitempty"`
		EstimatedTax       *decimal.Decimal `json:"estimated_tax,omitempty"`
		SocialContribution *decimal.Decimal `json:"social_contribution,omitempty"`
		EstimatedNetPay    *decimal.Decimal `json:"estimated_net_pay,omitempty"`
		CurrentCash        *decimal.Decimal `json:"current_cash,omitempty"`
		ProjectedCash      *decimal.Decimal `json:"projected_cash,omitempty"`

		Budgets    []budgetView         `json:"budgets,omitempty"`
		Unbudgeted []categoryAmountView `json:"unbudgeted,omitempty"`
	}

	recurringChargeView struct {
		Title       string          `json:"title"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory"`
	}

	settingsView struct {
		GrossSalary            decimal.Decimal            `json:"gross_salary"`
		IncomeTaxRate          decimal.Decimal            `json:"income_tax_rate"`
		SocialContributionRate decimal.Decimal            `json:"social_contribution_rate"`
		StartingCash           decimal.Decimal            `json:"starting_cash"`
		Budgets                map[string]decimal.Decimal `json:"budgets"`
		RecurringCharges       []recurringChargeView      `json:"recurring_charges"`
		Warnings               []string                   `json:"warnings,omitempty"`
	}

	categoryView struct {
		Name          string   `json:"name"`
		Subcategories []string `json:"subcategories"`
	}

	taxonomyView struct {
		Categories     []categoryView `json:"categories"`
		IncomeCategory string         `json:"income_category"`
		IncomeOrigins  []string       `json:"income_origins"`
		PaymentMethods []string       `json:"payment_methods"`
	}

	reconcileView struct {
		Month   string            `json:"month"`
		Added   []transactionView `json:"added"`
		Skipped int               `json:"skipped"`
	}
)

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		Date:          t.Date.String(),
		Month:         t.Month.String(),
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Notes:         t.Notes,
		Recurring:     t.IsRecurring(),
	}
}

func newTransactionViews(ts []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, newTransactionView(t))
	}
	return out
}

func newMonthOptionViews(opts []core.MonthOption) []monthOptionView {
	out := make([]monthOptionView, 0, len(opts))
	for _, o := range opts {
		out = append(out, monthOptionView{Key: o.Key.String(), Label: o.Label})
	}
	return out
}

func emptyMonthView(skipped int) monthView {
	return monthView{
		Empty:   true,
		Message: msgNoData,
		Months:  []monthOptionView{},
		Skipped: skipped,
	}
}

func newMonthView(v services.MonthView) monthView {
	r := v.Result
	out := monthView{
		Months:           newMonthOptionViews(v.Options),
		Skipped:          v.Skipped,
		Month:            r.Month.String(),
		Label:            r.Month.Label(),
		TransactionCount: r.TransactionCount,

		BenefitExpense:     ptr(r.BenefitExpense),
		PersonalExpense:    ptr(r.PersonalExpense),
		ExtraIncome:        ptr(r.ExtraIncome),
		TotalExpense:       ptr(r.TotalExpense),
		TaxableBase:        ptr(r.TaxableBase),
		EstimatedTax:       ptr(r.EstimatedTax),
		SocialContribution: ptr(r.SocialContribution),
		EstimatedNetPay:    ptr(r.EstimatedNetPay),
		CurrentCash:        ptr(r.CurrentCash),
		ProjectedCash:      ptr(r.ProjectedCash),

		Budgets:    make([]budgetView, 0, len(r.Budgets)),
		Unbudgeted: make([]categoryAmountView, 0, len(r.Unbudgeted)),
	}
	for _, b := range r.Budgets {
		out.Budgets = append(out.Budgets, newBudgetView(b))
	}
	for _, c := range r.Unbudgeted {
		out.Unbudgeted = append(out.Unbudgeted, categoryAmountView{Name: c.Name, Amount: c.Amount})
	}
	return out
}

func newBudgetView(b finance.BudgetStatus) budgetView {
	return budgetView{
		Category:   b.Category,
		Limit:      b.Limit,
		Spent:      b.Spent,
		Remaining:  b.Remaining,
		Usage:      b.Usage,
		OverBudget: b.OverBudget,
	}
}

func newSettingsView(s core.Settings) settingsView {
	out := settingsView{
		GrossSalary:            s.GrossSalary,
		IncomeTaxRate:          s.IncomeTaxRate,
		SocialContributionRate: s.SocialContributionRate,
		StartingCash:           s.StartingCash,
		Budgets:                make(map[string]decimal.Decimal, len(s.Budgets)),
		RecurringCharges:       make([]recurringChargeView, 0, len(s.RecurringCharges)),
		Warnings:               s.Warnings(),
	}
	for k, v := range s.Budgets {
		out.Budgets[k] = v
	}
	for _, c := range s.RecurringCharges {
		out.RecurringCharges = append(out.RecurringCharges, recurringChargeView(c))
	}
	return out
}

// Settings converts the wire document back to the domain type. Warnings are
// output only and ignored here.
func (v settingsView) Settings() core.Settings {
	s := core.Settings{
		GrossSalary:            v.GrossSalary,
		IncomeTaxRate:          v.IncomeTaxRate,
		SocialContributionRate: v.SocialContributionRate,
		StartingCash:           v.StartingCash,
		Budgets:                make(map[string]decimal.Decimal, len(v.Budgets)),
	}
	for k, b := range v.Budgets {
		s.Budgets[k] = b
	}
	for _, c := range v.RecurringCharges {
		s.RecurringCharges = append(s.RecurringCharges, core.RecurringCharge(c))
	}
	return s
}

func newTaxonomyView(t core.Taxonomy) taxonomyView {
	cats := t.Categories()
	out := taxonomyView{
		Categories:     make([]categoryView, 0, len(cats)),
		IncomeCategory: core.IncomeCategory,
		IncomeOrigins:  t.IncomeOrigins(),
		PaymentMethods: []string{core.PaymentPersonal, core.PaymentBenefit},
	}
	for _, c := range cats {
		out.Categories = append(out.Categories, categoryView{Name: c, Subcategories: t.Subcategories(c)})
	}
	return out
}

func newReconcileView(r services.ReconcileResult) reconcileView {
	return reconcileView{
		Month:   r.Month.String(),
		Added:   newTransactionViews(r.Added),
		Skipped: r.Skipped,
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
