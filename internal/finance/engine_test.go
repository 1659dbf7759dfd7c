package finance

import (
	"testing"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "%s: expected %s, got %s", field, want, got.String())
}

func tx(day int, category, sub, amount, method string) core.Transaction {
	return core.NewTransaction(core.NewDate(2024, 3, day), category, sub, dec(amount), method, "")
}

func testSettings() core.Settings {
	s := core.DefaultSettings()
	s.GrossSalary = dec("2000")
	s.IncomeTaxRate = dec("15")
	s.SocialContributionRate = dec("6.35")
	s.StartingCash = dec("5000")
	return s
}

func TestDeriveMonth_EmptySnapshot(t *testing.T) {
	s := testSettings()

	res := DeriveMonth(nil, "2024-03", s)

	assert.Equal(t, core.MonthKey("2024-03"), res.Month)
	assert.Equal(t, 0, res.TransactionCount)
	assertDecimal(t, "0", res.BenefitExpense, "benefit")
	assertDecimal(t, "0", res.PersonalExpense, "personal")
	assertDecimal(t, "0", res.ExtraIncome, "income")
	assertDecimal(t, "2000", res.TaxableBase, "taxable base")
	// 2000 - 300 - 127
	assertDecimal(t, "1573", res.EstimatedNetPay, "net pay")
	assertDecimal(t, "5000", res.CurrentCash, "current cash")
	assertDecimal(t, "6573", res.ProjectedCash, "projected cash")

	require.Len(t, res.Budgets, len(s.Budgets))
	for _, b := range res.Budgets {
		assertDecimal(t, "0", b.Spent, b.Category)
		assert.Equal(t, 0.0, b.Usage, b.Category)
		assert.False(t, b.OverBudget, b.Category)
	}
	assert.Empty(t, res.Unbudgeted)
}

func TestDeriveMonth_BenefitChannelReducesTaxableBase(t *testing.T) {
	ledger := []core.Transaction{
		tx(5, "Comida", "Restaurante", "-300", core.PaymentBenefit),
	}

	res := DeriveMonth(ledger, "2024-03", testSettings())

	assertDecimal(t, "-300", res.BenefitExpense, "benefit")
	assertDecimal(t, "1700", res.TaxableBase, "taxable base")
	assertDecimal(t, "255", res.EstimatedTax, "tax")
	assertDecimal(t, "127", res.SocialContribution, "social")
	assertDecimal(t, "1318", res.EstimatedNetPay, "net pay")
	// benefit spend does not touch the cash in hand
	assertDecimal(t, "5000", res.CurrentCash, "current cash")
}

func TestDeriveMonth_CurrentCash(t *testing.T) {
	ledger := []core.Transaction{
		tx(2, "Comida", "Café", "-50", core.PaymentPersonal),
		tx(3, core.IncomeCategory, "Bizum", "100", core.PaymentPersonal),
	}

	res := DeriveMonth(ledger, "2024-03", testSettings())

	assertDecimal(t, "-50", res.PersonalExpense, "personal")
	assertDecimal(t, "100", res.ExtraIncome, "income")
	assertDecimal(t, "5050", res.CurrentCash, "current cash")
	assertDecimal(t, res.CurrentCash.Add(res.EstimatedNetPay).String(), res.ProjectedCash, "projected")
}

func TestDeriveMonth_OverBudget(t *testing.T) {
	s := testSettings()
	s.Budgets = map[string]decimal.Decimal{"Ocio": dec("200")}
	ledger := []core.Transaction{
		tx(1, "Ocio", "Cine", "-100", core.PaymentPersonal),
		tx(9, "Ocio", "Fiesta", "-150", core.PaymentBenefit),
	}

	res := DeriveMonth(ledger, "2024-03", s)

	require.Len(t, res.Budgets, 1)
	b := res.Budgets[0]
	assert.Equal(t, "Ocio", b.Category)
	assertDecimal(t, "250", b.Spent, "spent")
	assertDecimal(t, "-50", b.Remaining, "remaining")
	assert.Equal(t, 1.0, b.Usage)
	assert.True(t, b.OverBudget)
}

func TestDeriveMonth_FiltersOtherMonthsAndIgnoresIncomeInBudgets(t *testing.T) {
	s := testSettings()
	ledger := []core.Transaction{
		tx(1, "Comida", "Supermercado", "-40", core.PaymentPersonal),
		core.NewTransaction(core.NewDate(2024, 2, 28), "Comida", "Supermercado", dec("-999"), core.PaymentPersonal, ""),
		tx(4, "Comida", "Supermercado", "15", core.PaymentPersonal), // refund counted as income
	}

	res := DeriveMonth(ledger, "2024-03", s)

	assert.Equal(t, 2, res.TransactionCount)
	for _, b := range res.Budgets {
		if b.Category == "Comida" {
			assertDecimal(t, "40", b.Spent, "comida spent")
			assert.InDelta(t, 0.2, b.Usage, 1e-9)
		}
	}
	assertDecimal(t, "15", res.ExtraIncome, "income")
}

func TestDeriveMonth_OtherPaymentMethodsOnlyInTotals(t *testing.T) {
	ledger := []core.Transaction{
		tx(1, "Vivienda", "Alquiler", "-700", "Transferencia"),
	}

	res := DeriveMonth(ledger, "2024-03", testSettings())

	assertDecimal(t, "0", res.PersonalExpense, "personal")
	assertDecimal(t, "0", res.BenefitExpense, "benefit")
	assertDecimal(t, "-700", res.TotalExpense, "total")
}

func TestDeriveMonth_UnbudgetedCategories(t *testing.T) {
	s := testSettings()
	ledger := []core.Transaction{
		tx(1, "Mascotas", "Pienso", "-20", core.PaymentPersonal),
		tx(2, "Bicis", "", "-5", core.PaymentPersonal),
	}

	res := DeriveMonth(ledger, "2024-03", s)

	require.Len(t, res.Unbudgeted, 2)
	assert.Equal(t, "Bicis", res.Unbudgeted[0].Name)
	assert.Equal(t, "Mascotas", res.Unbudgeted[1].Name)
}

func TestDeriveMonth_BudgetOrder(t *testing.T) {
	s := testSettings()
	s.Budgets["Extra"] = dec("10")

	res := DeriveMonth(nil, "2024-03", s)

	got := make([]string, len(res.Budgets))
	for i, b := range res.Budgets {
		got[i] = b.Category
	}
	assert.Equal(t, append(core.DefaultTaxonomy().Categories(), "Extra"), got)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name      string
		limit     string
		spent     string
		usage     float64
		remaining string
		over      bool
	}{
		{"half used", "200", "100", 0.5, "100", false},
		{"exactly at limit", "200", "200", 1, "0", false},
		{"massive overspend clamps", "200", "100000", 1, "-99800", true},
		{"zero limit", "0", "30", 0, "-30", true},
		{"negative limit", "-10", "0", 0, "-10", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Status("Ocio", dec(tt.limit), dec(tt.spent))
			assert.InDelta(t, tt.usage, st.Usage, 1e-9)
			assert.GreaterOrEqual(t, st.Usage, 0.0)
			assert.LessOrEqual(t, st.Usage, 1.0)
			assertDecimal(t, tt.remaining, st.Remaining, "remaining")
			assert.Equal(t, tt.over, st.OverBudget)
		})
	}
}
