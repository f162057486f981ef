package models

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-day format used across the ledger.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. Lexical order of valid dates equals
// chronological order, so comparisons are plain string comparisons.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", Invalid("date", "invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Valid reports whether d parses as a calendar day.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// Time returns midnight UTC of d.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", string(d), err)
	}
	return t, nil
}

// AddDays shifts d by n calendar days. An invalid date is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool { return d < other }

func (d Date) After(other Date) bool { return d > other }

// Between reports whether d falls in [from, to] inclusive.
func (d Date) Between(from, to Date) bool {
	return d >= from && d <= to
}

func (d Date) String() string { return string(d) }
