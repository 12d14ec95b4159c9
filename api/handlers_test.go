/*
handlers_test.go - HTTP-level tests for the billing API

Tests for:
- Entity creation and lookup
- Configuration submission and resolution
- Billing runs (success, duplicate rejection, error mapping)
- Report endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/billing-engine/report"
	"github.com/fleetline/billing-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := NewHandler(store, report.DefaultIncentiveTerms())
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)
	return server, handler
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// seedFleet creates a client, vendor, employee, PACKAGE configuration,
// and two November trips totalling 1200km through the API.
func seedFleet(t *testing.T, base string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, base+"/api/clients", CreateClientRequest{
		ID: "client-1", Code: "CL001", Name: "Acme Transit",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/api/vendors", CreateVendorRequest{
		ID: "vendor-1", Code: "VN001", Name: "City Cabs", ClientID: "client-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/api/employees", CreateEmployeeRequest{
		ID: "emp-1", Code: "EM001", Name: "Priya Sharma", ClientID: "client-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/api/vendors/vendor-1/config", map[string]any{
		"model":          "PACKAGE",
		"effective_from": "2025-01-01",
		"monthly_rate":   5000,
		"included_km":    1000,
		"extra_km_rate":  10.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	for i, trip := range []CreateTripRequest{
		{VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
			TripDate: "2025-11-03", DistanceKm: 700, DurationHours: 10},
		{VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
			TripDate: "2025-11-20", DistanceKm: 500, DurationHours: 6},
	} {
		trip.ID = fmt.Sprintf("trip-%d", i+1)
		resp = doJSON(t, http.MethodPost, base+"/api/trips", trip)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestCreateAndGetVendor(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp, err := http.Get(server.URL + "/api/vendors/vendor-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	vendor := decode[VendorDTO](t, resp)
	assert.Equal(t, "City Cabs", vendor.Name)
	assert.Equal(t, "client-1", vendor.ClientID)
}

func TestCreateVendorRequiresClient(t *testing.T) {
	server, _ := newTestServer(t)

	// WHEN creating a vendor for a client that does not exist
	resp := doJSON(t, http.MethodPost, server.URL+"/api/vendors", CreateVendorRequest{
		Name: "Orphan Vans", ClientID: "ghost",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitInvalidConfigurationRejected(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	// WHEN submitting a PACKAGE config without its monthly rate
	resp := doJSON(t, http.MethodPost, server.URL+"/api/vendors/vendor-1/config", map[string]any{
		"model":          "PACKAGE",
		"effective_from": "2025-12-01",
		"included_km":    500,
	})
	defer resp.Body.Close()

	// THEN the config is rejected as unprocessable, not defaulted to zero
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "monthly_rate")
}

func TestActiveConfigurationResolution(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	// AND a TRIP config effective June 2025
	resp := doJSON(t, http.MethodPost, server.URL+"/api/vendors/vendor-1/config", map[string]any{
		"model":          "TRIP",
		"effective_from": "2025-06-01",
		"per_km_rate":    12,
		"per_hour_rate":  350,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// WHEN asking for the config in force in July
	resp, err := http.Get(server.URL + "/api/vendors/vendor-1/config/active?date=2025-07-15")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active := decode[ConfigurationDTO](t, resp)
	assert.Equal(t, "TRIP", active.Config.Model)

	// AND for a date before any config
	resp, err = http.Get(server.URL + "/api/vendors/vendor-1/config/active?date=2024-12-01")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessBillingEndToEnd(t *testing.T) {
	// GIVEN a seeded fleet with 1200km of November trips
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	// WHEN triggering the November billing run
	resp := doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "vendor-1", Month: 11, Year: 2025,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// THEN 200km overage on a 5000 package bills 7100.00
	record := decode[BillingRecordDTO](t, resp)
	assert.Equal(t, "7100.00", record.TotalAmount)
	assert.Equal(t, 2, record.TotalTrips)
	assert.Equal(t, "2025-11", record.Period)

	// AND trips are now flagged processed
	resp, err := http.Get(server.URL + "/api/trips")
	require.NoError(t, err)
	trips := decode[[]TripDTO](t, resp)
	require.Len(t, trips, 2)
	for _, trip := range trips {
		assert.True(t, trip.Processed, "trip %s should be processed", trip.ID)
	}

	// AND a second run for the same month conflicts
	resp = doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "vendor-1", Month: 11, Year: 2025,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProcessBillingUnknownVendor(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "ghost", Month: 11, Year: 2025,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessBillingInvalidPeriod(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "vendor-1", Month: 13, Year: 2025,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessBillingWithoutConfiguration(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	// GIVEN a second vendor that never submitted rates
	resp := doJSON(t, http.MethodPost, server.URL+"/api/vendors", CreateVendorRequest{
		ID: "vendor-2", Code: "VN002", Name: "Metro Haulers", ClientID: "client-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "vendor-2", Month: 11, Year: 2025,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	// GIVEN one configured vendor and one without configuration
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/vendors", CreateVendorRequest{
		ID: "vendor-2", Code: "VN002", Name: "Metro Haulers", ClientID: "client-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// WHEN running the batch
	resp = doJSON(t, http.MethodPost, server.URL+"/api/billing/process-all", ProcessAllBillingRequest{
		Month: 11, Year: 2025,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// THEN the configured vendor is billed and the other reported failed
	summary := decode[RunSummaryDTO](t, resp)
	require.Len(t, summary.Processed, 1)
	assert.Equal(t, "vendor-1", summary.Processed[0].VendorID)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "vendor-2", summary.Failed[0].VendorID)
}

func TestVendorReportEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/billing/process", ProcessBillingRequest{
		VendorID: "vendor-1", Month: 11, Year: 2025,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/api/reports/vendor/vendor-1?month=11&year=2025")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rep := decode[VendorReportDTO](t, resp)
	assert.Equal(t, "City Cabs", rep.VendorName)
	assert.Equal(t, "7100.00", rep.TotalAmount)
	assert.Equal(t, 2, rep.TotalTrips)
}

func TestEmployeeReportEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	// The 10h trip carries 2 extra hours at the default 150 rate.
	resp, err := http.Get(server.URL + "/api/reports/employee/emp-1?month=11&year=2025")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rep := decode[EmployeeReportDTO](t, resp)
	assert.Equal(t, "Priya Sharma", rep.EmployeeName)
	assert.Equal(t, "300.00", rep.TotalIncentive)
	assert.Equal(t, "2", rep.TotalExtraHours)
}

func TestClientReportEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp, err := http.Get(server.URL + "/api/reports/client/client-1?month=11&year=2025")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rep := decode[ClientReportDTO](t, resp)
	assert.Equal(t, "Acme Transit", rep.ClientName)
	require.Len(t, rep.Vendors, 1)
	assert.Equal(t, "City Cabs", rep.Vendors[0].VendorName)
	assert.Equal(t, "7100.00", rep.TotalAmount)
}

func TestReportEndpointRequiresPeriod(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp, err := http.Get(server.URL + "/api/reports/vendor/vendor-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportUnknownEmployee(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp, err := http.Get(server.URL + "/api/reports/employee/ghost?month=11&year=2025")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTripRejectsNegativeDistance(t *testing.T) {
	server, _ := newTestServer(t)
	seedFleet(t, server.URL)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/trips", CreateTripRequest{
		VendorID: "vendor-1", EmployeeID: "emp-1", ClientID: "client-1",
		TripDate: "2025-11-25", DistanceKm: -5, DurationHours: 1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
