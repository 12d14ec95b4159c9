/*
Package billing provides the core vendor billing calculation engine.

PURPOSE:
  This package contains the data types and pure algorithms for computing
  what a transportation vendor is owed for a month of trips, and what an
  employee earns in incentives for the hours they worked beyond standard.

KEY CONCEPTS IN THIS FILE (types.go):
  - Trip: An immutable record of one completed journey
  - Result: The computed billing outcome for a vendor and period
  - IncentiveResult: The computed incentive outcome for an employee
  - Vendor/Employee/Client IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Purity: Every calculation is a function of its inputs; no I/O, no clocks
  2. Precision: Uses decimal.Decimal to avoid floating-point money errors
  3. Single rounding point: Monetary values round to 2 decimals exactly once,
     at the output boundary, never between operations
  4. Type Safety: Strong typing for IDs prevents mixing vendor/employee IDs

USAGE:
  cfg, err := billing.ResolveConfiguration(history, period.End())
  result, err := billing.Calculator{}.Compute(cfg, trips, period)

SEE ALSO:
  - config.go: Billing configuration variants (PACKAGE, HYBRID, TRIP)
  - calculator.go: Vendor billing computation
  - incentive.go: Employee incentive computation
  - period.go: Month/year billing periods
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type VendorID string
type EmployeeID string
type ClientID string
type TripID string

// =============================================================================
// TRIP - Immutable record of one completed journey
// =============================================================================

// Trip is one completed journey for a vendor, driven for an employee.
// Distance and duration are never negative; the Calculator rejects trips
// that violate this rather than silently producing a wrong total.
//
// Processed is the only mutable field in the wider domain: it flips
// false -> true exactly once, when a billing run for the trip's period is
// finalized. The flip itself is a persistence concern; the calculators
// here never touch it.
type Trip struct {
	ID         TripID
	TripCode   string
	VendorID   VendorID
	EmployeeID EmployeeID
	ClientID   ClientID
	TripDate   time.Time

	DistanceKm    decimal.Decimal
	DurationHours decimal.Decimal

	Source      string
	Destination string

	Processed bool
}

// Validate checks the trip invariants the calculators rely on.
func (t Trip) Validate() error {
	if t.DistanceKm.IsNegative() {
		return &InvalidTripError{TripID: t.ID, Field: "distance_km", Reason: "negative"}
	}
	if t.DurationHours.IsNegative() {
		return &InvalidTripError{TripID: t.ID, Field: "duration_hours", Reason: "negative"}
	}
	return nil
}

// =============================================================================
// RESULTS - Transient value objects owned by the caller
// =============================================================================

// Result is the computed billing outcome for one vendor and one period.
// All monetary fields are rounded to 2 decimal places; TotalAmount is
// always exactly BaseBilling + TotalIncentives after that rounding.
type Result struct {
	VendorID VendorID
	Period   Period

	TotalTrips    int
	TotalDistance decimal.Decimal
	TotalDuration decimal.Decimal

	BaseBilling     decimal.Decimal
	TotalIncentives decimal.Decimal
	TotalAmount     decimal.Decimal
}

// IncentiveResult is the computed incentive outcome for one employee
// and one period.
type IncentiveResult struct {
	EmployeeID EmployeeID
	Period     Period

	TotalTrips      int
	TotalExtraHours decimal.Decimal
	TotalIncentive  decimal.Decimal
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// round2 applies the single final rounding step for monetary outputs.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustDecimal parses a decimal literal, returning zero on malformed input.
// Intended for constants and test fixtures, not for untrusted data.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
