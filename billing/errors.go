/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Surrounding layers (report, api) wrap these with additional context.

ERROR CATEGORIES:
  1. Configuration errors - No active or invalid billing configuration
  2. Input errors - Malformed trips or periods
  3. Lookup errors - Unknown vendor/employee/client, raised by providers
     and propagated unchanged

PROPAGATION POLICY:
  The calculators never suppress provider errors, and they fail fast on
  invalid input rather than producing a misleading zero or negative
  monetary result. Billing is deterministic, so there is no retry path:
  the same inputs always fail (or succeed) the same way.

USAGE:
  if errors.Is(err, billing.ErrNoActiveConfiguration) {
      // surfaced to callers as "billing not configured for this vendor"
  }

SEE ALSO:
  - calculator.go, resolver.go: Producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package billing

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoActiveConfiguration is returned when a vendor has no billing
	// configuration effective on or before the reference date.
	ErrNoActiveConfiguration = errors.New("no active billing configuration")

	// ErrInvalidConfiguration is returned when a required rate is missing
	// or negative for the selected model. This is a configuration-data
	// error, never silently defaulted.
	ErrInvalidConfiguration = errors.New("invalid billing configuration")

	// ErrInvalidTrip is returned when a trip violates its invariants
	// (negative distance or duration).
	ErrInvalidTrip = errors.New("invalid trip")

	// ErrInvalidPeriod is returned when a period is not a real calendar month.
	ErrInvalidPeriod = errors.New("invalid billing period")

	// ErrVendorNotFound is returned by providers for an unknown vendor id.
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrEmployeeNotFound is returned by providers for an unknown employee id.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrClientNotFound is returned by providers for an unknown client id.
	ErrClientNotFound = errors.New("client not found")

	// ErrBillingAlreadyProcessed is returned when a billing record already
	// exists for a vendor and period. Re-running a finalized period must
	// not double-count its trips.
	ErrBillingAlreadyProcessed = errors.New("billing already processed for period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidConfigurationError reports which field of which model failed
// validation.
type InvalidConfigurationError struct {
	Model  Model
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("invalid billing configuration: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s configuration: %s %s", e.Model, e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// InvalidTripError reports which trip field violated its invariant.
type InvalidTripError struct {
	TripID TripID
	Field  string
	Reason string
}

func (e *InvalidTripError) Error() string {
	return fmt.Sprintf("invalid trip %s: %s %s", e.TripID, e.Field, e.Reason)
}

func (e *InvalidTripError) Unwrap() error { return ErrInvalidTrip }

// NoActiveConfigurationError reports the vendor and reference date for
// which resolution failed.
type NoActiveConfigurationError struct {
	VendorID VendorID
	Ref      time.Time
}

func (e *NoActiveConfigurationError) Error() string {
	return fmt.Sprintf("no billing configuration for vendor %s effective on or before %s",
		e.VendorID, e.Ref.Format("2006-01-02"))
}

func (e *NoActiveConfigurationError) Unwrap() error { return ErrNoActiveConfiguration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVendorNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrClientNotFound)
}

// IsClientError returns true if the error is due to invalid caller input
// or configuration data, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoActiveConfiguration) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidTrip) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrBillingAlreadyProcessed)
}
