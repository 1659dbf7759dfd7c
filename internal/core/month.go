package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthKey identifies a reporting month as "YYYY-MM". Keys sort
// lexicographically in chronological order and do not depend on locale.
type MonthKey string

const monthKeyLayout = "2006-01"

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates s as a YYYY-MM key.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKeyOf(t), nil
}

func (k MonthKey) IsZero() bool {
	return strings.TrimSpace(string(k)) == ""
}

func (k MonthKey) String() string {
	return string(k)
}

// FirstDay returns the first calendar day of the month. Zero for invalid keys.
func (k MonthKey) FirstDay() Date {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// Label is the human readable Spanish label ("marzo 2024"). Display only.
func (k MonthKey) Label() string {
	d := k.FirstDay()
	if d.IsZero() {
		return string(k)
	}
	return fmt.Sprintf("%s %d", monthNames[d.Month()-1], d.Year())
}
