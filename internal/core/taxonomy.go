package core

import "fmt"

// IncomeCategory is the category recorded for income entries; the income
// origin goes in the subcategory.
const IncomeCategory = "Ingresos"

type categoryEntry struct {
	name          string
	subcategories []string
}

// Taxonomy maps categories to their ordered subcategories.
type Taxonomy struct {
	entries []categoryEntry
	origins []string
}

var defaultTaxonomy = Taxonomy{
	entries: []categoryEntry{
		{"Comida", []string{"Supermercado", "Restaurante", "Glovo/Delivery", "Café"}},
		{"Transporte", []string{"Gasolina", "Metro/Bus", "Taxi/Uber", "Mantenimiento"}},
		{"Ocio", []string{"Cine", "Fiesta", "Suscripciones", "Viajes"}},
		{"Servicios", []string{"Luz", "Agua", "Internet", "Teléfono"}},
		{"Vivienda", []string{"Alquiler", "Hipoteca", "Reparaciones"}},
		{"Salud", []string{"Farmacia", "Médico", "Gimnasio"}},
	},
	origins: []string{"Nómina", "Transferencia", "Bizum", "Venta", "Reembolso", "Otros"},
}

// DefaultTaxonomy returns the built-in category taxonomy.
func DefaultTaxonomy() Taxonomy {
	return defaultTaxonomy
}

// Categories returns the category names in display order.
func (t Taxonomy) Categories() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.name
	}
	return out
}

// Subcategories returns the subcategories of category, or nil if unknown.
func (t Taxonomy) Subcategories(category string) []string {
	for _, e := range t.entries {
		if e.name == category {
			return append([]string(nil), e.subcategories...)
		}
	}
	return nil
}

// IncomeOrigins returns the labels used instead of a category pair for incomes.
func (t Taxonomy) IncomeOrigins() []string {
	return append([]string(nil), t.origins...)
}

// Has reports whether category is part of the taxonomy.
func (t Taxonomy) Has(category string) bool {
	for _, e := range t.entries {
		if e.name == category {
			return true
		}
	}
	return false
}

// Index returns the display position of category, or -1.
func (t Taxonomy) Index(category string) int {
	for i, e := range t.entries {
		if e.name == category {
			return i
		}
	}
	return -1
}

// Validate checks that the pair is recognized. Income entries are checked
// against the income origins. An empty subcategory is accepted.
func (t Taxonomy) Validate(category, subcategory string) error {
	if category == IncomeCategory {
		if subcategory == "" || contains(t.origins, subcategory) {
			return nil
		}
		return fmt.Errorf("%w: %q is not an income origin", ErrUnknownSubcategory, subcategory)
	}
	subs := t.Subcategories(category)
	if subs == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if subcategory == "" || contains(subs, subcategory) {
		return nil
	}
	return fmt.Errorf("%w: %q not in %q", ErrUnknownSubcategory, subcategory, category)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
