package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - A (month, year) pair scoping trips and configuration resolution
// =============================================================================

// Period identifies one billing month. Billing is ALWAYS computed for a
// whole calendar month; there are no partial or rolling periods.
type Period struct {
	Month time.Month
	Year  int
}

// NewPeriod builds a Period from integer month/year, validating the month.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: time.Month(month), Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks that the period is a real calendar month.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, int(p.Month))
	}
	if p.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Start returns the first instant of the billing month (UTC).
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the billing month (UTC).
// This is also the reference date for configuration resolution: the
// configuration in force at month end governs the whole month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Contains reports whether t falls inside the billing month.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return u.Year() == p.Year && u.Month() == p.Month
}

// Previous returns the billing month before this one.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Month: time.December, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) Period {
	u := t.UTC()
	return Period{Month: u.Month(), Year: u.Year()}
}
