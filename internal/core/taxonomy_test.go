package core

import (
	"errors"
	"testing"
)

func TestTaxonomyLookup(t *testing.T) {
	tax := DefaultTaxonomy()
	cats := tax.Categories()
	if len(cats) != 6 || cats[0] != "Comida" {
		t.Fatalf("unexpected categories: %v", cats)
	}
	subs := tax.Subcategories("Ocio")
	if len(subs) != 4 || subs[2] != "Suscripciones" {
		t.Fatalf("unexpected subcategories: %v", subs)
	}
	if tax.Subcategories("Nope") != nil {
		t.Fatalf("unknown category must return nil")
	}
	if len(tax.IncomeOrigins()) == 0 {
		t.Fatalf("expected income origins")
	}
	if tax.Index("Salud") != 5 || tax.Index("Nope") != -1 {
		t.Fatalf("unexpected index")
	}
}

func TestTaxonomyValidate(t *testing.T) {
	tax := DefaultTaxonomy()
	tests := []struct {
		name     string
		cat, sub string
		want     error
	}{
		{"known pair", "Comida", "Café", nil},
		{"empty subcategory", "Vivienda", "", nil},
		{"income origin", IncomeCategory, "Nómina", nil},
		{"unknown category", "Mascotas", "Pienso", ErrUnknownCategory},
		{"unknown subcategory", "Comida", "Gasolina", ErrUnknownSubcategory},
		{"unknown origin", IncomeCategory, "Lotería", ErrUnknownSubcategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tax.Validate(tt.cat, tt.sub)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultSettingsUseTaxonomy(t *testing.T) {
	s := DefaultSettings()
	for _, c := range DefaultTaxonomy().Categories() {
		if _, ok := s.Budgets[c]; !ok {
			t.Fatalf("missing default budget for %q", c)
		}
	}
	if len(s.RecurringCharges) != 2 {
		t.Fatalf("expected two sample recurring charges")
	}
	if len(s.Warnings()) != 0 {
		t.Fatalf("defaults should not warn: %v", s.Warnings())
	}
}
