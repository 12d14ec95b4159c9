package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/billing/store"
	"github.com/fleetline/billing-engine/report"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func nov() billing.Period { return billing.Period{Month: time.November, Year: 2025} }

func dec(s string) decimal.Decimal { return billing.MustDecimal(s) }

func newSeededStore() *store.Memory {
	m := store.NewMemory()
	m.AddClient("client-1", "Acme Transit")
	m.AddVendor("vendor-1", "City Cabs")
	m.AddEmployee("emp-1", "Priya Sharma")

	m.AddConfiguration(billing.Configuration{
		ID:       "cfg-1",
		VendorID: "vendor-1",
		Rates: billing.PackageRates{
			MonthlyRate: dec("5000"),
			IncludedKm:  dec("1000"),
			ExtraKmRate: dec("10.5"),
		},
		EffectiveFrom: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC),
	})
	return m
}

func seedTrip(m *store.Memory, id string, day int, distance, duration string) {
	m.AddTrip(billing.Trip{
		ID:            billing.TripID(id),
		TripCode:      "TRP-" + id,
		VendorID:      "vendor-1",
		EmployeeID:    "emp-1",
		ClientID:      "client-1",
		TripDate:      time.Date(2025, time.November, day, 9, 0, 0, 0, time.UTC),
		DistanceKm:    dec(distance),
		DurationHours: dec(duration),
	})
}

func newRunner(m *store.Memory) *report.Runner {
	return report.NewRunner(m, m, m, m)
}

// =============================================================================
// SINGLE-VENDOR RUNS
// =============================================================================

func TestRunner_ProcessVendor_PersistsRecordAndMarksTrips(t *testing.T) {
	// GIVEN: A package vendor with 1200 km of November trips
	// WHEN: The November billing run executes
	// THEN: A record for 5000 + 200*10.5 = 7100 is persisted and the
	//       trips are marked processed

	m := newSeededStore()
	seedTrip(m, "t1", 3, "700", "8")
	seedTrip(m, "t2", 17, "500", "6")

	record, err := newRunner(m).ProcessVendor(context.Background(), "vendor-1", nov())
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.True(t, dec("7100").Equal(record.Result.TotalAmount), "got %s", record.Result.TotalAmount)
	assert.Equal(t, 2, record.Result.TotalTrips)

	for _, id := range []billing.TripID{"t1", "t2"} {
		trip, ok := m.Trip(id)
		require.True(t, ok)
		assert.True(t, trip.Processed, "trip %s should be marked processed", id)
	}

	saved, err := m.BillingRecord(context.Background(), "vendor-1", nov())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, record.ID, saved.ID)
}

func TestRunner_ProcessVendor_SecondRunRejected(t *testing.T) {
	// One record per vendor+month: a re-run must not double-count.
	m := newSeededStore()
	seedTrip(m, "t1", 3, "700", "8")
	runner := newRunner(m)

	_, err := runner.ProcessVendor(context.Background(), "vendor-1", nov())
	require.NoError(t, err)

	_, err = runner.ProcessVendor(context.Background(), "vendor-1", nov())
	assert.ErrorIs(t, err, billing.ErrBillingAlreadyProcessed)
}

func TestRunner_ProcessVendor_EmptyMonthStillBillsPackage(t *testing.T) {
	// A package vendor owes the monthly rate even with zero trips.
	m := newSeededStore()

	record, err := newRunner(m).ProcessVendor(context.Background(), "vendor-1", nov())
	require.NoError(t, err)

	assert.Equal(t, 0, record.Result.TotalTrips)
	assert.True(t, dec("5000").Equal(record.Result.TotalAmount), "got %s", record.Result.TotalAmount)
}

func TestRunner_ProcessVendor_NoConfiguration_Fails(t *testing.T) {
	m := store.NewMemory()
	m.AddVendor("vendor-bare", "Bare Vendor")

	_, err := newRunner(m).ProcessVendor(context.Background(), "vendor-bare", nov())
	assert.ErrorIs(t, err, billing.ErrNoActiveConfiguration)
}

func TestRunner_ProcessVendor_UnknownVendor_Fails(t *testing.T) {
	m := newSeededStore()

	_, err := newRunner(m).ProcessVendor(context.Background(), "vendor-ghost", nov())
	assert.ErrorIs(t, err, billing.ErrVendorNotFound)
}

func TestRunner_ProcessVendor_ConfigChangeMidYear_UsesMonthEndConfig(t *testing.T) {
	// GIVEN: Rates changed effective June 1st
	// WHEN: Billing July
	// THEN: The June configuration applies, not January's

	m := newSeededStore()
	m.AddConfiguration(billing.Configuration{
		ID:       "cfg-2",
		VendorID: "vendor-1",
		Rates: billing.TripRates{
			PerKmRate:   dec("12.0"),
			PerHourRate: dec("350"),
		},
		EffectiveFrom: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC),
	})
	m.AddTrip(billing.Trip{
		ID:            "t-jul",
		VendorID:      "vendor-1",
		EmployeeID:    "emp-1",
		ClientID:      "client-1",
		TripDate:      time.Date(2025, time.July, 10, 9, 0, 0, 0, time.UTC),
		DistanceKm:    dec("500"),
		DurationHours: dec("40"),
	})

	july := billing.Period{Month: time.July, Year: 2025}
	record, err := newRunner(m).ProcessVendor(context.Background(), "vendor-1", july)
	require.NoError(t, err)

	// TRIP pricing: 500*12 + 40*350 = 20000, not package pricing.
	assert.True(t, dec("20000").Equal(record.Result.TotalAmount), "got %s", record.Result.TotalAmount)
}

// =============================================================================
// BATCH RUNS
// =============================================================================

func TestRunner_ProcessAll_ContinuesPastFailures(t *testing.T) {
	// GIVEN: One configured vendor and one with no configuration
	// WHEN: The batch run executes
	// THEN: The configured vendor is billed, the other is reported
	//       failed, and the run completes

	m := newSeededStore()
	seedTrip(m, "t1", 3, "400", "5")
	m.AddVendor("vendor-unconfigured", "No Terms Yet")

	summary, err := newRunner(m).ProcessAll(context.Background(), nov())
	require.NoError(t, err)

	require.Len(t, summary.Processed, 1)
	assert.Equal(t, billing.VendorID("vendor-1"), summary.Processed[0].Result.VendorID)

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, billing.VendorID("vendor-unconfigured"), summary.Failed[0].VendorID)
	assert.Contains(t, summary.Failed[0].Err, "no billing configuration")
}

func TestRunner_ProcessAll_AlreadyBilledVendorReportedFailed(t *testing.T) {
	m := newSeededStore()
	seedTrip(m, "t1", 3, "400", "5")
	runner := newRunner(m)

	_, err := runner.ProcessVendor(context.Background(), "vendor-1", nov())
	require.NoError(t, err)

	summary, err := runner.ProcessAll(context.Background(), nov())
	require.NoError(t, err)

	assert.Empty(t, summary.Processed)
	require.Len(t, summary.Failed, 1)
	assert.Contains(t, summary.Failed[0].Err, "already processed")
}
