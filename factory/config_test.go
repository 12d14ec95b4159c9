package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/factory"
)

func TestParsePackageConfiguration(t *testing.T) {
	// GIVEN a PACKAGE document with numeric rate fields
	raw := []byte(`{
		"model": "PACKAGE",
		"effective_from": "2025-11-01",
		"monthly_rate": 5000,
		"included_km": 1000,
		"extra_km_rate": 10.5
	}`)

	// WHEN parsing it for a vendor
	config, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	// THEN a validated PACKAGE configuration comes back
	require.NoError(t, err)
	assert.Equal(t, billing.ModelPackage, config.Model())
	rates, ok := config.Rates.(billing.PackageRates)
	require.True(t, ok)
	assert.True(t, rates.MonthlyRate.Equal(billing.MustDecimal("5000")))
	assert.True(t, rates.IncludedKm.Equal(billing.MustDecimal("1000")))
	assert.True(t, rates.ExtraKmRate.Equal(billing.MustDecimal("10.5")))
	assert.Equal(t, billing.VendorID("vendor-1"), config.VendorID)
	assert.Equal(t, "2025-11-01", config.EffectiveFrom.Format("2006-01-02"))
}

func TestParseAcceptsStringRates(t *testing.T) {
	// GIVEN rates submitted as numeric strings
	raw := []byte(`{
		"model": "TRIP",
		"effective_from": "2025-11-01",
		"per_km_rate": "12.25",
		"per_hour_rate": "350"
	}`)

	config, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.NoError(t, err)
	rates, ok := config.Rates.(billing.TripRates)
	require.True(t, ok)
	assert.True(t, rates.PerKmRate.Equal(billing.MustDecimal("12.25")))
	assert.True(t, rates.PerHourRate.Equal(billing.MustDecimal("350")))
}

func TestParseHybridConfiguration(t *testing.T) {
	raw := []byte(`{
		"model": "HYBRID",
		"effective_from": "2025-07-01",
		"base_monthly_rate": 3500,
		"included_km": 800,
		"extra_km_rate": 9
	}`)

	config, err := factory.NewConfigFactory().Parse("vendor-2", raw)

	require.NoError(t, err)
	rates, ok := config.Rates.(billing.HybridRates)
	require.True(t, ok)
	assert.True(t, rates.BaseMonthlyRate.Equal(billing.MustDecimal("3500")))
}

func TestParseRejectsUnknownModel(t *testing.T) {
	raw := []byte(`{"model": "SURGE", "effective_from": "2025-11-01"}`)

	_, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidConfiguration)
	var cfgErr *billing.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model", cfgErr.Field)
}

func TestParseRejectsMissingMonthlyRate(t *testing.T) {
	// GIVEN a PACKAGE config that omits the monthly rate entirely
	raw := []byte(`{
		"model": "PACKAGE",
		"effective_from": "2025-11-01",
		"included_km": 1000,
		"extra_km_rate": 10.5
	}`)

	_, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	// THEN the absence is an error, it does not default to zero
	require.Error(t, err)
	var cfgErr *billing.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "monthly_rate", cfgErr.Field)
	assert.Equal(t, "missing", cfgErr.Reason)
}

func TestParseAcceptsExplicitZeroMonthlyRate(t *testing.T) {
	// An explicit 0 is a legitimate free-retainer configuration.
	raw := []byte(`{
		"model": "PACKAGE",
		"effective_from": "2025-11-01",
		"monthly_rate": 0,
		"extra_km_rate": 10
	}`)

	config, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.NoError(t, err)
	rates := config.Rates.(billing.PackageRates)
	assert.True(t, rates.MonthlyRate.IsZero())
}

func TestParseRejectsForeignRateField(t *testing.T) {
	// GIVEN a PACKAGE config carrying a TRIP rate
	raw := []byte(`{
		"model": "PACKAGE",
		"effective_from": "2025-11-01",
		"monthly_rate": 5000,
		"per_km_rate": 12
	}`)

	_, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.Error(t, err)
	var cfgErr *billing.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "per_km_rate", cfgErr.Field)
}

func TestParseRejectsNegativeRate(t *testing.T) {
	raw := []byte(`{
		"model": "PACKAGE",
		"effective_from": "2025-11-01",
		"monthly_rate": -5000
	}`)

	_, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidConfiguration)
}

func TestParseRejectsBadEffectiveDate(t *testing.T) {
	raw := []byte(`{"model": "TRIP", "effective_from": "Nov 1 2025"}`)

	_, err := factory.NewConfigFactory().Parse("vendor-1", raw)

	require.Error(t, err)
	var cfgErr *billing.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "effective_from", cfgErr.Field)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := factory.NewConfigFactory().Parse("vendor-1", []byte(`{"model":`))

	require.Error(t, err)
}

func TestDocumentRoundTrip(t *testing.T) {
	// GIVEN a parsed configuration
	raw := []byte(`{
		"model": "HYBRID",
		"effective_from": "2025-07-01",
		"base_monthly_rate": 3500,
		"included_km": 800,
		"extra_km_rate": 9
	}`)
	config, err := factory.NewConfigFactory().Parse("vendor-1", raw)
	require.NoError(t, err)

	// WHEN rendering it back to its document form
	doc := factory.Document(config)

	// THEN the model-specific fields survive
	assert.Equal(t, "HYBRID", doc.Model)
	assert.Equal(t, "2025-07-01", doc.EffectiveFrom)
	require.NotNil(t, doc.BaseMonthlyRate)
	assert.True(t, doc.BaseMonthlyRate.Equal(billing.MustDecimal("3500")))
	assert.Nil(t, doc.MonthlyRate)
	assert.Nil(t, doc.PerKmRate)
}
