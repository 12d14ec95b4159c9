/*
config.go - Vendor billing configurations

PURPOSE:
  Defines the terms under which a vendor is billed: one of three pricing
  models (PACKAGE, HYBRID, TRIP) with model-specific rates, effective from
  a given date. Configurations form an append-only history per vendor;
  past periods can always be recomputed with the configuration that was
  actually in force.

KEY CONCEPTS:
  - Model: The closed set of pricing schemes
  - Rates: A tagged variant over the three rate shapes. The calculator
    switches exhaustively on the concrete type, so adding a fourth model
    is a compile-time-checked change, not a stringly-typed branch.
  - EffectiveFrom: When a configuration begins applying. Configurations
    are superseded, never edited in place.

THE THREE MODELS:
  PACKAGE: Flat monthly rate covering an included distance allowance;
           kilometers beyond the allowance billed per-km.
  HYBRID:  Same overage formula as PACKAGE but against a lower base
           monthly figure.
  TRIP:    Purely usage-metered: per-km and per-hour rates, no fixed
           monthly component.

SEE ALSO:
  - resolver.go: Picking the configuration in force for a period
  - calculator.go: Applying a configuration to a month of trips
  - factory/: JSON to Configuration conversion for the admin surface
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MODEL - Closed set of pricing schemes
// =============================================================================

type Model string

const (
	ModelPackage Model = "PACKAGE"
	ModelHybrid  Model = "HYBRID"
	ModelTrip    Model = "TRIP"
)

// Models lists the valid pricing schemes, in display order.
// This set is a stable contract with configuration UIs.
func Models() []Model { return []Model{ModelPackage, ModelHybrid, ModelTrip} }

// Valid reports whether m is one of the known pricing schemes.
func (m Model) Valid() bool {
	switch m {
	case ModelPackage, ModelHybrid, ModelTrip:
		return true
	}
	return false
}

// =============================================================================
// RATES - Tagged variant over the three rate shapes
// =============================================================================

// Rates is the sealed interface implemented by exactly the three rate
// shapes. The unexported method keeps the set closed: outside packages
// cannot add a fourth model without a change here.
type Rates interface {
	// Model returns the pricing scheme these rates belong to.
	Model() Model

	// Validate checks the rates invariants for their model.
	Validate() error

	sealed()
}

// PackageRates prices a fixed monthly package with a distance allowance.
type PackageRates struct {
	MonthlyRate decimal.Decimal
	IncludedKm  decimal.Decimal
	ExtraKmRate decimal.Decimal
}

func (PackageRates) Model() Model { return ModelPackage }
func (PackageRates) sealed()      {}

// Validate enforces that the monthly rate is present and non-negative.
// IncludedKm and ExtraKmRate may be zero (treated as "no allowance" /
// "no overage charge") but never negative.
func (r PackageRates) Validate() error {
	if r.MonthlyRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelPackage, Field: "monthly_rate", Reason: "negative"}
	}
	if r.IncludedKm.IsNegative() {
		return &InvalidConfigurationError{Model: ModelPackage, Field: "included_km", Reason: "negative"}
	}
	if r.ExtraKmRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelPackage, Field: "extra_km_rate", Reason: "negative"}
	}
	return nil
}

// HybridRates prices a reduced base monthly figure plus the same
// distance-overage formula as PACKAGE.
type HybridRates struct {
	BaseMonthlyRate decimal.Decimal
	IncludedKm      decimal.Decimal
	ExtraKmRate     decimal.Decimal
}

func (HybridRates) Model() Model { return ModelHybrid }
func (HybridRates) sealed()      {}

func (r HybridRates) Validate() error {
	if r.BaseMonthlyRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelHybrid, Field: "base_monthly_rate", Reason: "negative"}
	}
	if r.IncludedKm.IsNegative() {
		return &InvalidConfigurationError{Model: ModelHybrid, Field: "included_km", Reason: "negative"}
	}
	if r.ExtraKmRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelHybrid, Field: "extra_km_rate", Reason: "negative"}
	}
	return nil
}

// TripRates prices pure usage: every kilometer and every hour is billed.
type TripRates struct {
	PerKmRate   decimal.Decimal
	PerHourRate decimal.Decimal
}

func (TripRates) Model() Model { return ModelTrip }
func (TripRates) sealed()      {}

func (r TripRates) Validate() error {
	if r.PerKmRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelTrip, Field: "per_km_rate", Reason: "negative"}
	}
	if r.PerHourRate.IsNegative() {
		return &InvalidConfigurationError{Model: ModelTrip, Field: "per_hour_rate", Reason: "negative"}
	}
	return nil
}

// Compile-time checks that the variant stays closed and complete.
var (
	_ Rates = PackageRates{}
	_ Rates = HybridRates{}
	_ Rates = TripRates{}
)

// =============================================================================
// CONFIGURATION - A vendor's billing terms effective from a date
// =============================================================================

// Configuration is one entry in a vendor's billing history.
//
// INVARIANTS:
//   - For a vendor, configurations are ordered by EffectiveFrom; ties are
//     broken by CreatedAt so resolution stays deterministic.
//   - History is append-only: configurations are superseded by newer
//     entries, never edited or deleted.
type Configuration struct {
	ID            string
	VendorID      VendorID
	Rates         Rates
	EffectiveFrom time.Time
	CreatedAt     time.Time
}

// Model returns the pricing scheme of this configuration, or the empty
// Model for a zero-value configuration with no rates attached.
func (c Configuration) Model() Model {
	if c.Rates == nil {
		return ""
	}
	return c.Rates.Model()
}

// Validate checks that the configuration can be used for billing.
func (c Configuration) Validate() error {
	if c.Rates == nil {
		return &InvalidConfigurationError{Field: "rates", Reason: "missing"}
	}
	if c.EffectiveFrom.IsZero() {
		return &InvalidConfigurationError{Model: c.Model(), Field: "effective_from", Reason: "missing"}
	}
	return c.Rates.Validate()
}
