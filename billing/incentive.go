/*
incentive.go - Employee incentive computation

PURPOSE:
  Computes what an employee earns for hours worked beyond the standard
  per-trip threshold. This is deliberately a SEPARATE calculator from the
  vendor billing computation: vendor-level incentives are zero under every
  current pricing model, while employee incentives are formula-driven.
  The two share only the period-aggregation idiom, not a policy.

THE FORMULA:
  extraHours(trip)  = max(0, trip.DurationHours - standardHoursPerTrip)
  totalExtraHours   = sum of extraHours
  totalIncentive    = totalExtraHours * extraHourRate

  Both constants are injected configuration, not hard-coded: the observed
  production default is 150 currency units per extra hour against an
  8-hour standard trip, but callers own those numbers.

SEE ALSO:
  - calculator.go: Vendor billing (incentives always zero there)
  - report/: Wires the employee report to this calculator
*/
package billing

import "github.com/shopspring/decimal"

// IncentiveCalculator computes employee incentives from extra hours.
// Stateless; the zero value is ready to use.
type IncentiveCalculator struct{}

// Compute aggregates extra hours across the employee's trips for the
// period and prices them at extraHourRate. An empty trip set is a valid
// zero result, not an error.
func (IncentiveCalculator) Compute(trips []Trip, period Period, extraHourRate, standardHoursPerTrip decimal.Decimal) (IncentiveResult, error) {
	if err := period.Validate(); err != nil {
		return IncentiveResult{}, err
	}
	if extraHourRate.IsNegative() {
		return IncentiveResult{}, &InvalidConfigurationError{Field: "extra_hour_rate", Reason: "negative"}
	}
	if standardHoursPerTrip.IsNegative() {
		return IncentiveResult{}, &InvalidConfigurationError{Field: "standard_hours_per_trip", Reason: "negative"}
	}

	var employeeID EmployeeID
	totalExtra := decimal.Zero

	for _, t := range trips {
		if err := t.Validate(); err != nil {
			return IncentiveResult{}, err
		}
		if !period.Contains(t.TripDate) {
			return IncentiveResult{}, &InvalidTripError{TripID: t.ID, Field: "trip_date", Reason: "outside period " + period.String()}
		}
		if employeeID == "" {
			employeeID = t.EmployeeID
		} else if t.EmployeeID != employeeID {
			return IncentiveResult{}, &InvalidTripError{TripID: t.ID, Field: "employee_id", Reason: "belongs to another employee"}
		}

		extra := t.DurationHours.Sub(standardHoursPerTrip)
		if extra.IsPositive() {
			totalExtra = totalExtra.Add(extra)
		}
	}

	return IncentiveResult{
		EmployeeID:      employeeID,
		Period:          period,
		TotalTrips:      len(trips),
		TotalExtraHours: totalExtra,
		TotalIncentive:  round2(totalExtra.Mul(extraHourRate)),
	}, nil
}
