package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/report"
	"github.com/fleetline/billing-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEntities(t *testing.T, s *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveClient(ctx, sqlite.Client{ID: "client-1", Code: "CL001", Name: "Acme Transit"}))
	require.NoError(t, s.SaveVendor(ctx, sqlite.Vendor{ID: "vendor-1", Code: "VN001", Name: "City Cabs", ClientID: "client-1"}))
	require.NoError(t, s.SaveEmployee(ctx, sqlite.Employee{ID: "emp-1", Code: "EM001", Name: "Priya Sharma", ClientID: "client-1"}))
}

func seedTrip(t *testing.T, s *sqlite.Store, id string, day int, distance, duration string) {
	t.Helper()
	require.NoError(t, s.SaveTrip(context.Background(), billing.Trip{
		ID:            billing.TripID(id),
		TripCode:      "TR-" + id,
		VendorID:      "vendor-1",
		EmployeeID:    "emp-1",
		ClientID:      "client-1",
		TripDate:      time.Date(2025, time.November, day, 9, 0, 0, 0, time.UTC),
		DistanceKm:    billing.MustDecimal(distance),
		DurationHours: billing.MustDecimal(duration),
		Source:        "Warehouse A",
		Destination:   "Depot B",
	}))
}

func nov2025() billing.Period {
	return billing.Period{Month: time.November, Year: 2025}
}

func TestEntityRoundTrip(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)
	ctx := context.Background()

	vendor, err := s.GetVendor(ctx, "vendor-1")
	require.NoError(t, err)
	require.NotNil(t, vendor)
	assert.Equal(t, "City Cabs", vendor.Name)
	assert.Equal(t, billing.ClientID("client-1"), vendor.ClientID)

	vendors, err := s.ListVendors(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 1)

	missing, err := s.GetVendor(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTripsScopedByPeriod(t *testing.T) {
	// GIVEN trips in November and December
	s := newStore(t)
	seedEntities(t, s)
	seedTrip(t, s, "trip-1", 3, "120", "4")
	seedTrip(t, s, "trip-2", 20, "80", "3")
	require.NoError(t, s.SaveTrip(context.Background(), billing.Trip{
		ID: "trip-dec", TripCode: "TR-trip-dec",
		VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
		TripDate:      time.Date(2025, time.December, 1, 9, 0, 0, 0, time.UTC),
		DistanceKm:    billing.MustDecimal("50"),
		DurationHours: billing.MustDecimal("2"),
	}))

	// WHEN loading the vendor's November trips
	trips, err := s.TripsForVendor(context.Background(), "vendor-1", nov2025())

	// THEN only November comes back, in chronological order
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, billing.TripID("trip-1"), trips[0].ID)
	assert.Equal(t, billing.TripID("trip-2"), trips[1].ID)
	assert.True(t, trips[0].DistanceKm.Equal(billing.MustDecimal("120")))
}

func TestSaveTripRejectsDuplicateID(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)
	seedTrip(t, s, "trip-1", 3, "120", "4")

	err := s.SaveTrip(context.Background(), billing.Trip{
		ID: "trip-1", TripCode: "TR-other",
		VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
		TripDate:      time.Date(2025, time.November, 4, 9, 0, 0, 0, time.UTC),
		DistanceKm:    billing.MustDecimal("10"),
		DurationHours: billing.MustDecimal("1"),
	})

	require.Error(t, err)
}

func TestSaveTripRejectsNegativeDistance(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)

	err := s.SaveTrip(context.Background(), billing.Trip{
		ID: "trip-bad", TripCode: "TR-bad",
		VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
		TripDate:      time.Date(2025, time.November, 4, 9, 0, 0, 0, time.UTC),
		DistanceKm:    billing.MustDecimal("-10"),
		DurationHours: billing.MustDecimal("1"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidTrip)
}

func TestConfigurationHistoryRoundTrip(t *testing.T) {
	// GIVEN two configurations appended over time
	s := newStore(t)
	seedEntities(t, s)
	ctx := context.Background()

	require.NoError(t, s.SaveConfiguration(ctx, billing.Configuration{
		ID:       "cfg-1",
		VendorID: "vendor-1",
		Rates: billing.PackageRates{
			MonthlyRate: billing.MustDecimal("5000"),
			IncludedKm:  billing.MustDecimal("1000"),
			ExtraKmRate: billing.MustDecimal("10.5"),
		},
		EffectiveFrom: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.SaveConfiguration(ctx, billing.Configuration{
		ID:       "cfg-2",
		VendorID: "vendor-1",
		Rates: billing.TripRates{
			PerKmRate:   billing.MustDecimal("12"),
			PerHourRate: billing.MustDecimal("350"),
		},
		EffectiveFrom: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}))

	// WHEN loading the history
	configs, err := s.ConfigurationsForVendor(ctx, "vendor-1")

	// THEN both survive with their rate variants intact
	require.NoError(t, err)
	require.Len(t, configs, 2)
	rates, ok := configs[0].Rates.(billing.PackageRates)
	require.True(t, ok)
	assert.True(t, rates.MonthlyRate.Equal(billing.MustDecimal("5000")))
	_, ok = configs[1].Rates.(billing.TripRates)
	require.True(t, ok)

	// AND resolution picks the June config for a July reference date
	resolved, err := billing.ResolveConfiguration(configs, time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "cfg-2", resolved.ID)
}

func TestBillingRecordUniquePerPeriod(t *testing.T) {
	// GIVEN a persisted billing record for November
	s := newStore(t)
	seedEntities(t, s)
	seedTrip(t, s, "trip-1", 3, "120", "4")
	ctx := context.Background()

	record := report.BillingRecord{
		ID: "rec-1",
		Result: billing.Result{
			VendorID:        "vendor-1",
			Period:          nov2025(),
			TotalTrips:      1,
			TotalDistance:   billing.MustDecimal("120"),
			TotalDuration:   billing.MustDecimal("4"),
			BaseBilling:     billing.MustDecimal("5000"),
			TotalIncentives: billing.MustDecimal("0"),
			TotalAmount:     billing.MustDecimal("5000"),
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveBillingRecord(ctx, record, []billing.TripID{"trip-1"}))

	// THEN the record reads back and the trip is marked processed
	got, err := s.BillingRecord(ctx, "vendor-1", nov2025())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rec-1", got.ID)
	assert.True(t, got.Result.TotalAmount.Equal(billing.MustDecimal("5000")))
	assert.Equal(t, 1, got.Result.TotalTrips)

	trip, err := s.GetTrip(ctx, "trip-1")
	require.NoError(t, err)
	require.NotNil(t, trip)
	assert.True(t, trip.Processed)

	// AND a second record for the same vendor+period is rejected
	record.ID = "rec-2"
	err = s.SaveBillingRecord(ctx, record, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrBillingAlreadyProcessed)
}

func TestBillingRecordAbsentReturnsNil(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)

	got, err := s.BillingRecord(context.Background(), "vendor-1", nov2025())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDirectoryLookups(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)
	ctx := context.Background()

	name, err := s.VendorName(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, "City Cabs", name)

	_, err = s.VendorName(ctx, "ghost")
	assert.ErrorIs(t, err, billing.ErrVendorNotFound)
	_, err = s.EmployeeName(ctx, "ghost")
	assert.ErrorIs(t, err, billing.ErrEmployeeNotFound)
	_, err = s.ClientName(ctx, "ghost")
	assert.ErrorIs(t, err, billing.ErrClientNotFound)

	ids, err := s.ListVendorIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []billing.VendorID{"vendor-1"}, ids)
}

func TestRunnerAgainstSQLite(t *testing.T) {
	// GIVEN a fully seeded SQLite store
	s := newStore(t)
	seedEntities(t, s)
	seedTrip(t, s, "trip-1", 3, "700", "4")
	seedTrip(t, s, "trip-2", 20, "500", "3")
	ctx := context.Background()

	require.NoError(t, s.SaveConfiguration(ctx, billing.Configuration{
		ID:       "cfg-1",
		VendorID: "vendor-1",
		Rates: billing.PackageRates{
			MonthlyRate: billing.MustDecimal("5000"),
			IncludedKm:  billing.MustDecimal("1000"),
			ExtraKmRate: billing.MustDecimal("10.5"),
		},
		EffectiveFrom: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))

	// WHEN running the November billing through the orchestrator
	runner := report.NewRunner(s, s, s, s)
	record, err := runner.ProcessVendor(ctx, "vendor-1", nov2025())

	// THEN 1200km against a 1000km allowance bills 5000 + 200*10.5
	require.NoError(t, err)
	assert.True(t, record.Result.TotalAmount.Equal(billing.MustDecimal("7100")),
		"got %s", record.Result.TotalAmount)

	// AND the run is idempotently rejected the second time
	_, err = runner.ProcessVendor(ctx, "vendor-1", nov2025())
	assert.ErrorIs(t, err, billing.ErrBillingAlreadyProcessed)
}

func TestResetClearsAllTables(t *testing.T) {
	s := newStore(t)
	seedEntities(t, s)
	seedTrip(t, s, "trip-1", 3, "120", "4")
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))

	vendors, err := s.ListVendors(ctx)
	require.NoError(t, err)
	assert.Empty(t, vendors)
	trips, err := s.ListTrips(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, trips)
}
