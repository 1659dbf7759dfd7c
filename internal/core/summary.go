package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOption is a selectable reporting month with its display label.
type MonthOption struct {
	Key   MonthKey
	Label string
}
