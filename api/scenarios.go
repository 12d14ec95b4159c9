/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates clients, vendors,
	employees, configurations, and trips that demonstrate specific billing
	behaviors.

AVAILABLE SCENARIOS:

	package-fleet:    Single PACKAGE vendor over its km allowance
	mixed-models:     PACKAGE and TRIP vendors serving one client
	config-change:    Mid-year switch from PACKAGE to TRIP rates
	incentive-drivers: Long trips generating driver extra-hour incentives

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create client, vendors, employees
 3. Submit billing configurations
 4. Ingest trips across the demo months

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-models"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Billing and report handlers exercised by the demo data
  - factory/config.go: Configuration JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "package-fleet",
		Name:        "Package Fleet",
		Description: "One PACKAGE vendor billing over its monthly km allowance",
		Category:    "billing",
	},
	{
		ID:          "mixed-models",
		Name:        "Mixed Models",
		Description: "PACKAGE and TRIP vendors serving the same client",
		Category:    "billing",
	},
	{
		ID:          "config-change",
		Name:        "Mid-Year Rate Change",
		Description: "Vendor switching from PACKAGE to TRIP rates in June",
		Category:    "billing",
	},
	{
		ID:          "incentive-drivers",
		Name:        "Driver Incentives",
		Description: "Long trips generating extra-hour incentives for drivers",
		Category:    "incentives",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, map[string]any{"scenario_id": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenario_id": h.currentScenario})
}

// LoadScenario resets the database and loads a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "package-fleet":
		err = loadPackageFleetScenario(ctx, h)
	case "mixed-models":
		err = loadMixedModelsScenario(ctx, h)
	case "config-change":
		err = loadConfigChangeScenario(ctx, h)
	case "incentive-drivers":
		err = loadIncentiveDriversScenario(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "loaded",
		"scenario_id": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedCore creates the shared client used by every scenario.
func seedCore(ctx context.Context, h *Handler) error {
	return h.Store.SaveClient(ctx, sqlite.Client{
		ID:           "client-acme",
		Code:         "CL001",
		Name:         "Acme Logistics",
		ContactEmail: "ops@acme.example",
	})
}

func seedVendor(ctx context.Context, h *Handler, id, code, name string) error {
	return h.Store.SaveVendor(ctx, sqlite.Vendor{
		ID:       billing.VendorID(id),
		Code:     code,
		Name:     name,
		ClientID: "client-acme",
	})
}

func seedEmployee(ctx context.Context, h *Handler, id, code, name string) error {
	return h.Store.SaveEmployee(ctx, sqlite.Employee{
		ID:       billing.EmployeeID(id),
		Code:     code,
		Name:     name,
		ClientID: "client-acme",
	})
}

func seedConfig(ctx context.Context, h *Handler, vendorID billing.VendorID, configJSON string) error {
	config, err := h.Factory.Parse(vendorID, []byte(configJSON))
	if err != nil {
		return err
	}
	config.ID = uuid.NewString()
	config.CreatedAt = time.Now().UTC()
	return h.Store.SaveConfiguration(ctx, config)
}

func seedTrip(ctx context.Context, h *Handler, vendorID, employeeID string, date time.Time, distance, duration string) error {
	id := uuid.NewString()
	return h.Store.SaveTrip(ctx, billing.Trip{
		ID:            billing.TripID(id),
		TripCode:      "TR-" + id[:8],
		VendorID:      billing.VendorID(vendorID),
		EmployeeID:    billing.EmployeeID(employeeID),
		ClientID:      "client-acme",
		TripDate:      date,
		DistanceKm:    billing.MustDecimal(distance),
		DurationHours: billing.MustDecimal(duration),
		Source:        "Central Depot",
		Destination:   "Distribution Hub",
	})
}

// loadPackageFleetScenario: one PACKAGE vendor whose November distance
// exceeds the 1000km allowance, so the bill is 5000 + 200*10.5 = 7100.
func loadPackageFleetScenario(ctx context.Context, h *Handler) error {
	if err := seedCore(ctx, h); err != nil {
		return err
	}
	if err := seedVendor(ctx, h, "vendor-citycabs", "VN001", "City Cabs"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-priya", "EM001", "Priya Sharma"); err != nil {
		return err
	}

	config := `{
		"model": "PACKAGE",
		"effective_from": "2025-01-01",
		"monthly_rate": 5000,
		"included_km": 1000,
		"extra_km_rate": 10.5
	}`
	if err := seedConfig(ctx, h, "vendor-citycabs", config); err != nil {
		return err
	}

	trips := []struct {
		day      int
		distance string
		duration string
	}{
		{3, "420", "6"},
		{11, "380", "5.5"},
		{19, "250", "4"},
		{26, "150", "2.5"},
	}
	for _, t := range trips {
		if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya",
			date(2025, time.November, t.day), t.distance, t.duration); err != nil {
			return err
		}
	}
	return nil
}

// loadMixedModelsScenario: a PACKAGE vendor and a TRIP vendor carrying
// trips for the same client, for the client report's vendor breakdown.
func loadMixedModelsScenario(ctx context.Context, h *Handler) error {
	if err := seedCore(ctx, h); err != nil {
		return err
	}
	if err := seedVendor(ctx, h, "vendor-citycabs", "VN001", "City Cabs"); err != nil {
		return err
	}
	if err := seedVendor(ctx, h, "vendor-metro", "VN002", "Metro Haulers"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-priya", "EM001", "Priya Sharma"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-arun", "EM002", "Arun Patel"); err != nil {
		return err
	}

	packageConfig := `{
		"model": "PACKAGE",
		"effective_from": "2025-01-01",
		"monthly_rate": 5000,
		"included_km": 1000,
		"extra_km_rate": 10.5
	}`
	tripConfig := `{
		"model": "TRIP",
		"effective_from": "2025-01-01",
		"per_km_rate": 12,
		"per_hour_rate": 350
	}`
	if err := seedConfig(ctx, h, "vendor-citycabs", packageConfig); err != nil {
		return err
	}
	if err := seedConfig(ctx, h, "vendor-metro", tripConfig); err != nil {
		return err
	}

	if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.November, 5), "600", "9"); err != nil {
		return err
	}
	if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.November, 18), "300", "5"); err != nil {
		return err
	}
	if err := seedTrip(ctx, h, "vendor-metro", "emp-arun", date(2025, time.November, 8), "200", "15"); err != nil {
		return err
	}
	if err := seedTrip(ctx, h, "vendor-metro", "emp-arun", date(2025, time.November, 22), "300", "25"); err != nil {
		return err
	}
	return nil
}

// loadConfigChangeScenario: PACKAGE rates through May, TRIP rates from
// June 1. Billing May and July shows the effective-date resolution.
func loadConfigChangeScenario(ctx context.Context, h *Handler) error {
	if err := seedCore(ctx, h); err != nil {
		return err
	}
	if err := seedVendor(ctx, h, "vendor-citycabs", "VN001", "City Cabs"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-priya", "EM001", "Priya Sharma"); err != nil {
		return err
	}

	packageConfig := `{
		"model": "PACKAGE",
		"effective_from": "2025-01-01",
		"monthly_rate": 5000,
		"included_km": 1000,
		"extra_km_rate": 10.5
	}`
	tripConfig := `{
		"model": "TRIP",
		"effective_from": "2025-06-01",
		"per_km_rate": 12,
		"per_hour_rate": 350
	}`
	if err := seedConfig(ctx, h, "vendor-citycabs", packageConfig); err != nil {
		return err
	}
	if err := seedConfig(ctx, h, "vendor-citycabs", tripConfig); err != nil {
		return err
	}

	if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.May, 10), "800", "12"); err != nil {
		return err
	}
	return seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.July, 10), "500", "40")
}

// loadIncentiveDriversScenario: two drivers, one with trips past the
// 8-hour standard, for the employee incentive report.
func loadIncentiveDriversScenario(ctx context.Context, h *Handler) error {
	if err := seedCore(ctx, h); err != nil {
		return err
	}
	if err := seedVendor(ctx, h, "vendor-citycabs", "VN001", "City Cabs"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-priya", "EM001", "Priya Sharma"); err != nil {
		return err
	}
	if err := seedEmployee(ctx, h, "emp-arun", "EM002", "Arun Patel"); err != nil {
		return err
	}

	config := `{
		"model": "TRIP",
		"effective_from": "2025-01-01",
		"per_km_rate": 12,
		"per_hour_rate": 350
	}`
	if err := seedConfig(ctx, h, "vendor-citycabs", config); err != nil {
		return err
	}

	// Priya works two long hauls past the 8-hour standard
	if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.November, 4), "450", "10"); err != nil {
		return err
	}
	if err := seedTrip(ctx, h, "vendor-citycabs", "emp-priya", date(2025, time.November, 14), "300", "6"); err != nil {
		return err
	}
	// Arun stays under the standard
	return seedTrip(ctx, h, "vendor-citycabs", "emp-arun", date(2025, time.November, 6), "120", "3")
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}
