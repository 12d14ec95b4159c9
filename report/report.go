/*
Package report assembles billing and incentive reports on top of the
billing engine.

PURPOSE:
  Orchestrates the monthly billing run (resolve configuration, aggregate
  trips, compute, persist) and produces the three report shapes the
  platform exposes: vendor reports, employee incentive reports, and
  client reports with a vendor-wise breakdown.

KEY CONCEPTS:
  - Runner: Executes and persists billing runs (one record per
    vendor+month, duplicate runs rejected)
  - Service: Read-side report assembly; never mutates anything
  - Providers: Narrow interfaces over persistence, defined here in the
    consumer package so stores can satisfy them structurally

SEPARATION:
  The billing package stays pure; everything that touches a store, a
  clock, or an identifier generator lives here. Report structs are a
  compatibility boundary: renderers (JSON download, PDF) consume them
  as-is, so their shape changes only deliberately.

SEE ALSO:
  - runner.go: Billing run orchestration
  - service.go: Report assembly
  - providers.go: Store-facing interfaces
*/
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/billing"
)

// =============================================================================
// REPORT SHAPES - Stable rendering contract
// =============================================================================

// VendorReport is the monthly billing statement for one vendor.
type VendorReport struct {
	VendorID   billing.VendorID
	VendorName string
	Period     billing.Period

	TotalTrips    int
	TotalDistance decimal.Decimal
	TotalDuration decimal.Decimal

	BaseBilling     decimal.Decimal
	TotalIncentives decimal.Decimal
	TotalAmount     decimal.Decimal
}

// EmployeeIncentiveReport is the monthly incentive statement for one
// employee, computed from hours worked beyond the standard per-trip
// threshold.
type EmployeeIncentiveReport struct {
	EmployeeID   billing.EmployeeID
	EmployeeName string
	Period       billing.Period

	TotalTrips      int
	TotalExtraHours decimal.Decimal
	ExtraHourRate   decimal.Decimal
	TotalIncentive  decimal.Decimal
}

// VendorBreakdown is one row of a client report: what one vendor billed
// for the client's trips in the period.
type VendorBreakdown struct {
	VendorID    billing.VendorID
	VendorName  string
	TotalTrips  int
	TotalAmount decimal.Decimal
}

// ClientReport aggregates a client's month across all vendors that
// carried its trips.
type ClientReport struct {
	ClientID   billing.ClientID
	ClientName string
	Period     billing.Period

	TotalTrips  int
	TotalAmount decimal.Decimal
	Vendors     []VendorBreakdown
}

// =============================================================================
// BILLING RECORD - A persisted billing run
// =============================================================================

// BillingRecord is one finalized billing run: the computed result plus
// persistence identity. Exactly one record may exist per vendor+period.
type BillingRecord struct {
	ID        string
	Result    billing.Result
	CreatedAt time.Time
}

// =============================================================================
// INCENTIVE TERMS - Injected employee incentive constants
// =============================================================================

// IncentiveTerms carries the externally configured incentive constants.
// They are deployment configuration, not business constants: the core
// never hard-codes them.
type IncentiveTerms struct {
	ExtraHourRate        decimal.Decimal
	StandardHoursPerTrip decimal.Decimal
}

// DefaultIncentiveTerms returns the production defaults: 150 currency
// units per extra hour against an 8-hour standard trip.
func DefaultIncentiveTerms() IncentiveTerms {
	return IncentiveTerms{
		ExtraHourRate:        decimal.NewFromInt(150),
		StandardHoursPerTrip: decimal.NewFromInt(8),
	}
}
