/*
calculator.go - Vendor billing computation

PURPOSE:
  Converts a month of raw trip data (distance, duration) into the amount
  owed to a vendor, under the vendor's resolved billing configuration.
  This is the only place in the system where the three pricing models
  branch; everything around it is aggregation and plumbing.

THE FORMULAS:
  Aggregation (model-independent):
    totalTrips    = |trips|
    totalDistance = sum of DistanceKm
    totalDuration = sum of DurationHours

  PACKAGE: base = MonthlyRate + max(0, totalDistance - IncludedKm) * ExtraKmRate
  HYBRID:  base = BaseMonthlyRate + max(0, totalDistance - IncludedKm) * ExtraKmRate
  TRIP:    base = totalDistance * PerKmRate + totalDuration * PerHourRate

  Vendor incentives are zero under all three current models; the field is
  carried so totalAmount = baseBilling + totalIncentives stays a stable
  contract if an incentive-bearing model is ever added.

EDGE CASES:
  - Empty trip set is valid: all-zero totals, base equals the fixed
    monthly component (or zero for TRIP)
  - Overage never goes negative: distance under the allowance clamps to
    zero, it never produces a credit
  - Zero IncludedKm or rates mean "0", not an error; a negative monthly
    figure or rate is a configuration-data error

ROUNDING:
  Monetary outputs round to 2 decimal places exactly once, at the end.
  Intermediate products stay unrounded so repeated operations cannot
  compound rounding drift.

SEE ALSO:
  - config.go: The Rates variant this switches over
  - incentive.go: The separate employee incentive computation
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator computes vendor billing results. It is stateless; the zero
// value is ready to use and safe for concurrent callers.
type Calculator struct{}

// Compute aggregates trips for the period and applies the configuration's
// pricing model. trips must be the vendor's trips for the period; the
// caller (or provider) scopes them. Trips outside the period or belonging
// to another vendor are rejected rather than silently ignored.
//
// Compute is a pure function: identical inputs always yield an identical
// Result, which makes a retried billing run idempotent by construction.
func (Calculator) Compute(config Configuration, trips []Trip, period Period) (Result, error) {
	if err := period.Validate(); err != nil {
		return Result{}, err
	}
	if err := config.Validate(); err != nil {
		return Result{}, err
	}

	totalDistance := decimal.Zero
	totalDuration := decimal.Zero

	for _, t := range trips {
		if err := t.Validate(); err != nil {
			return Result{}, err
		}
		if t.VendorID != config.VendorID {
			return Result{}, &InvalidTripError{TripID: t.ID, Field: "vendor_id", Reason: "belongs to another vendor"}
		}
		if !period.Contains(t.TripDate) {
			return Result{}, &InvalidTripError{TripID: t.ID, Field: "trip_date",
				Reason: fmt.Sprintf("outside period %s", period)}
		}
		totalDistance = totalDistance.Add(t.DistanceKm)
		totalDuration = totalDuration.Add(t.DurationHours)
	}

	base := baseBilling(config.Rates, totalDistance, totalDuration)

	// Incentives are zero under every current model. Kept explicit so the
	// result contract is obvious at the one place the totals are assembled.
	incentives := decimal.Zero

	baseRounded := round2(base)
	incentivesRounded := round2(incentives)

	return Result{
		VendorID:        config.VendorID,
		Period:          period,
		TotalTrips:      len(trips),
		TotalDistance:   totalDistance,
		TotalDuration:   totalDuration,
		BaseBilling:     baseRounded,
		TotalIncentives: incentivesRounded,
		TotalAmount:     baseRounded.Add(incentivesRounded),
	}, nil
}

// baseBilling applies the model-specific pricing. The switch is
// exhaustive over the sealed Rates variant; config.Validate has already
// rejected nil or malformed rates.
func baseBilling(rates Rates, totalDistance, totalDuration decimal.Decimal) decimal.Decimal {
	switch r := rates.(type) {
	case PackageRates:
		return r.MonthlyRate.Add(overage(totalDistance, r.IncludedKm).Mul(r.ExtraKmRate))
	case HybridRates:
		return r.BaseMonthlyRate.Add(overage(totalDistance, r.IncludedKm).Mul(r.ExtraKmRate))
	case TripRates:
		return totalDistance.Mul(r.PerKmRate).Add(totalDuration.Mul(r.PerHourRate))
	default:
		// Unreachable while the variant stays sealed.
		panic(fmt.Sprintf("billing: unknown rates type %T", rates))
	}
}

// overage returns distance beyond the included allowance, clamped at
// zero: staying under the allowance never produces a credit.
func overage(totalDistance, includedKm decimal.Decimal) decimal.Decimal {
	over := totalDistance.Sub(includedKm)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}
