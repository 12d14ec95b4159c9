/*
Package factory provides JSON to billing configuration conversion.

PURPOSE:
  Converts the JSON configuration documents submitted by the admin
  surface into billing.Configuration values. Administrators pick a model
  and fill its rate fields; the factory validates the combination and
  builds the correct tagged rate variant.

WHY JSON?
  - The configuration UI submits exactly this shape
  - Configuration history is stored as the document that was submitted
  - Rate changes never require code changes

JSON SCHEMA:
  {
    "model": "PACKAGE",            // PACKAGE | HYBRID | TRIP
    "effective_from": "2025-11-09",
    "monthly_rate": 5000,          // PACKAGE
    "base_monthly_rate": 3500,     // HYBRID
    "included_km": 1000,           // PACKAGE, HYBRID
    "extra_km_rate": 10.5,         // PACKAGE, HYBRID
    "per_km_rate": 12.0,           // TRIP
    "per_hour_rate": 350           // TRIP
  }

  Rate values may be JSON numbers or numeric strings; both parse into
  decimals without a float detour.

VALIDATION:
  - model must be one of the closed set
  - effective_from must be a YYYY-MM-DD date
  - the model's required monthly figure must be present (a literal 0 is
    an accepted explicit value; a missing field is not)
  - fields belonging to a different model are rejected, so a typo like
    a per_km_rate on a PACKAGE config surfaces instead of being ignored

SEE ALSO:
  - billing/config.go: The rate variant this produces
  - api/handlers.go: The admin endpoint feeding this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/billing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a billing configuration.
// Rate fields are pointers so "absent" and "explicit zero" stay
// distinguishable; the required-field rules depend on that.
type ConfigJSON struct {
	Model         string `json:"model"`
	EffectiveFrom string `json:"effective_from"`

	// PACKAGE
	MonthlyRate *decimal.Decimal `json:"monthly_rate,omitempty"`

	// HYBRID
	BaseMonthlyRate *decimal.Decimal `json:"base_monthly_rate,omitempty"`

	// PACKAGE + HYBRID
	IncludedKm  *decimal.Decimal `json:"included_km,omitempty"`
	ExtraKmRate *decimal.Decimal `json:"extra_km_rate,omitempty"`

	// TRIP
	PerKmRate   *decimal.Decimal `json:"per_km_rate,omitempty"`
	PerHourRate *decimal.Decimal `json:"per_hour_rate,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// ConfigFactory parses configuration JSON documents.
type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory { return &ConfigFactory{} }

// Parse converts a JSON document into a Configuration for the given
// vendor. The returned configuration is fully validated; callers can
// persist it without re-checking.
func (f *ConfigFactory) Parse(vendorID billing.VendorID, raw []byte) (billing.Configuration, error) {
	var doc ConfigJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return billing.Configuration{}, fmt.Errorf("parse configuration: %w", err)
	}
	return f.Build(vendorID, doc)
}

// Build converts an already-decoded document into a Configuration.
func (f *ConfigFactory) Build(vendorID billing.VendorID, doc ConfigJSON) (billing.Configuration, error) {
	model := billing.Model(doc.Model)
	if !model.Valid() {
		return billing.Configuration{}, &billing.InvalidConfigurationError{
			Field: "model", Reason: fmt.Sprintf("unknown model %q", doc.Model),
		}
	}

	effective, err := time.Parse("2006-01-02", doc.EffectiveFrom)
	if err != nil {
		return billing.Configuration{}, &billing.InvalidConfigurationError{
			Model: model, Field: "effective_from", Reason: "must be a YYYY-MM-DD date",
		}
	}

	rates, err := f.buildRates(model, doc)
	if err != nil {
		return billing.Configuration{}, err
	}

	config := billing.Configuration{
		VendorID:      vendorID,
		Rates:         rates,
		EffectiveFrom: effective,
	}
	if err := config.Validate(); err != nil {
		return billing.Configuration{}, err
	}
	return config, nil
}

func (f *ConfigFactory) buildRates(model billing.Model, doc ConfigJSON) (billing.Rates, error) {
	switch model {
	case billing.ModelPackage:
		if err := rejectForeign(model, doc.BaseMonthlyRate, "base_monthly_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.PerKmRate, "per_km_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.PerHourRate, "per_hour_rate"); err != nil {
			return nil, err
		}
		if doc.MonthlyRate == nil {
			return nil, &billing.InvalidConfigurationError{Model: model, Field: "monthly_rate", Reason: "missing"}
		}
		return billing.PackageRates{
			MonthlyRate: *doc.MonthlyRate,
			IncludedKm:  orZero(doc.IncludedKm),
			ExtraKmRate: orZero(doc.ExtraKmRate),
		}, nil

	case billing.ModelHybrid:
		if err := rejectForeign(model, doc.MonthlyRate, "monthly_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.PerKmRate, "per_km_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.PerHourRate, "per_hour_rate"); err != nil {
			return nil, err
		}
		if doc.BaseMonthlyRate == nil {
			return nil, &billing.InvalidConfigurationError{Model: model, Field: "base_monthly_rate", Reason: "missing"}
		}
		return billing.HybridRates{
			BaseMonthlyRate: *doc.BaseMonthlyRate,
			IncludedKm:      orZero(doc.IncludedKm),
			ExtraKmRate:     orZero(doc.ExtraKmRate),
		}, nil

	case billing.ModelTrip:
		if err := rejectForeign(model, doc.MonthlyRate, "monthly_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.BaseMonthlyRate, "base_monthly_rate"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.IncludedKm, "included_km"); err != nil {
			return nil, err
		}
		if err := rejectForeign(model, doc.ExtraKmRate, "extra_km_rate"); err != nil {
			return nil, err
		}
		return billing.TripRates{
			PerKmRate:   orZero(doc.PerKmRate),
			PerHourRate: orZero(doc.PerHourRate),
		}, nil
	}

	// Unreachable: model validity is checked by the caller.
	return nil, &billing.InvalidConfigurationError{Field: "model", Reason: "unknown"}
}

// rejectForeign fails when a rate field belonging to another model is
// present, so mis-filled configurations surface instead of being
// silently dropped.
func rejectForeign(model billing.Model, value *decimal.Decimal, field string) error {
	if value != nil {
		return &billing.InvalidConfigurationError{Model: model, Field: field, Reason: "does not apply to this model"}
	}
	return nil
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// =============================================================================
// SERIALIZATION - Configuration back to its JSON document
// =============================================================================

// Document renders a configuration back into its JSON shape, for
// configuration-history listings.
func Document(c billing.Configuration) ConfigJSON {
	doc := ConfigJSON{
		Model:         string(c.Model()),
		EffectiveFrom: c.EffectiveFrom.Format("2006-01-02"),
	}
	switch r := c.Rates.(type) {
	case billing.PackageRates:
		doc.MonthlyRate = ptr(r.MonthlyRate)
		doc.IncludedKm = ptr(r.IncludedKm)
		doc.ExtraKmRate = ptr(r.ExtraKmRate)
	case billing.HybridRates:
		doc.BaseMonthlyRate = ptr(r.BaseMonthlyRate)
		doc.IncludedKm = ptr(r.IncludedKm)
		doc.ExtraKmRate = ptr(r.ExtraKmRate)
	case billing.TripRates:
		doc.PerKmRate = ptr(r.PerKmRate)
		doc.PerHourRate = ptr(r.PerHourRate)
	}
	return doc
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
