/*
handlers.go - HTTP API handlers for the vendor billing platform

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Entities:
    GET    /api/clients                List clients
    POST   /api/clients                Create client
    GET    /api/clients/{id}           Get client
    (vendors and employees mirror the same shape)

  Trips:
    GET    /api/trips                  Recent trips
    POST   /api/trips                  Ingest a trip

  Configuration:
    GET    /api/vendors/{id}/config        Configuration history
    POST   /api/vendors/{id}/config        Submit configuration JSON
    GET    /api/vendors/{id}/config/active Resolved configuration (?date=)

  Billing:
    POST   /api/billing/process        Run billing for one vendor+month
    POST   /api/billing/process-all    Run billing for every vendor

  Reports:
    GET    /api/reports/vendor/{id}?month=&year=
    GET    /api/reports/employee/{id}?month=&year=
    GET    /api/reports/client/{id}?month=&year=

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Factory: JSON to configuration conversion
  - Runner: Billing run orchestration
  - Reports: Read-side report assembly

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entity not found
  - 409: Billing already processed for the period
  - 422: Invalid billing configuration
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/factory"
	"github.com/fleetline/billing-engine/report"
	"github.com/fleetline/billing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.ConfigFactory
	Runner  *report.Runner
	Reports *report.Service

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and incentive terms.
func NewHandler(store *sqlite.Store, terms report.IncentiveTerms) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewConfigFactory(),
		Runner:  report.NewRunner(store, store, store, store),
		Reports: report.NewService(store, store, store, store, terms),
	}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = ClientDTO{
			ID:           string(c.ID),
			Code:         c.Code,
			Name:         c.Name,
			ContactEmail: c.ContactEmail,
			CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := billing.ClientID(chi.URLParam(r, "id"))

	client, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, ClientDTO{
		ID:           string(client.ID),
		Code:         client.Code,
		Name:         client.Name,
		ContactEmail: client.ContactEmail,
		CreatedAt:    client.CreatedAt.Format(time.RFC3339),
	})
}

// CreateClient creates a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	client := sqlite.Client{
		ID:           billing.ClientID(req.ID),
		Code:         req.Code,
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	}

	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, ClientDTO{
		ID:           string(client.ID),
		Code:         client.Code,
		Name:         client.Name,
		ContactEmail: client.ContactEmail,
	})
}

// =============================================================================
// VENDOR HANDLERS
// =============================================================================

// ListVendors returns all vendors.
func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Store.ListVendors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vendors", err)
		return
	}

	dtos := make([]VendorDTO, len(vendors))
	for i, v := range vendors {
		dtos[i] = VendorDTO{
			ID:           string(v.ID),
			Code:         v.Code,
			Name:         v.Name,
			ClientID:     string(v.ClientID),
			ContactEmail: v.ContactEmail,
			CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetVendor returns a single vendor.
func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	id := billing.VendorID(chi.URLParam(r, "id"))

	vendor, err := h.Store.GetVendor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get vendor", err)
		return
	}
	if vendor == nil {
		writeError(w, http.StatusNotFound, "Vendor not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, VendorDTO{
		ID:           string(vendor.ID),
		Code:         vendor.Code,
		Name:         vendor.Name,
		ClientID:     string(vendor.ClientID),
		ContactEmail: vendor.ContactEmail,
		CreatedAt:    vendor.CreatedAt.Format(time.RFC3339),
	})
}

// CreateVendor creates a new vendor.
func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req CreateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "name and client_id are required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	client, err := h.Store.GetClient(r.Context(), billing.ClientID(req.ClientID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	vendor := sqlite.Vendor{
		ID:           billing.VendorID(req.ID),
		Code:         req.Code,
		Name:         req.Name,
		ClientID:     billing.ClientID(req.ClientID),
		ContactEmail: req.ContactEmail,
	}

	if err := h.Store.SaveVendor(r.Context(), vendor); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create vendor", err)
		return
	}

	writeJSON(w, http.StatusCreated, VendorDTO{
		ID:           string(vendor.ID),
		Code:         vendor.Code,
		Name:         vendor.Name,
		ClientID:     string(vendor.ClientID),
		ContactEmail: vendor.ContactEmail,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{
			ID:        string(e.ID),
			Code:      e.Code,
			Name:      e.Name,
			ClientID:  string(e.ClientID),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := billing.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, EmployeeDTO{
		ID:        string(emp.ID),
		Code:      emp.Code,
		Name:      emp.Name,
		ClientID:  string(emp.ClientID),
		CreatedAt: emp.CreatedAt.Format(time.RFC3339),
	})
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "name and client_id are required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	emp := sqlite.Employee{
		ID:       billing.EmployeeID(req.ID),
		Code:     req.Code,
		Name:     req.Name,
		ClientID: billing.ClientID(req.ClientID),
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, EmployeeDTO{
		ID:       string(emp.ID),
		Code:     emp.Code,
		Name:     emp.Name,
		ClientID: string(emp.ClientID),
	})
}

// =============================================================================
// TRIP HANDLERS
// =============================================================================

// ListTrips returns the most recent trips.
func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	trips, err := h.Store.ListTrips(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list trips", err)
		return
	}

	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = toTripDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTrip ingests a completed trip.
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.VendorID == "" || req.EmployeeID == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "vendor_id, employee_id and client_id are required", nil)
		return
	}

	tripDate, err := parseTripDate(req.TripDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid trip_date (use YYYY-MM-DD or RFC3339)", err)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.TripCode == "" {
		req.TripCode = "TR-" + req.ID
	}

	trip := billing.Trip{
		ID:            billing.TripID(req.ID),
		TripCode:      req.TripCode,
		VendorID:      billing.VendorID(req.VendorID),
		EmployeeID:    billing.EmployeeID(req.EmployeeID),
		ClientID:      billing.ClientID(req.ClientID),
		TripDate:      tripDate,
		DistanceKm:    decimal.NewFromFloat(req.DistanceKm),
		DurationHours: decimal.NewFromFloat(req.DurationHours),
		Source:        req.Source,
		Destination:   req.Destination,
	}

	if err := h.Store.SaveTrip(r.Context(), trip); err != nil {
		if errors.Is(err, billing.ErrInvalidTrip) {
			writeError(w, http.StatusBadRequest, "Invalid trip", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save trip", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTripDTO(trip))
}

func parseTripDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// SubmitConfiguration appends a configuration to a vendor's history.
// POST /api/vendors/{id}/config
func (h *Handler) SubmitConfiguration(w http.ResponseWriter, r *http.Request) {
	vendorID := billing.VendorID(chi.URLParam(r, "id"))

	vendor, err := h.Store.GetVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up vendor", err)
		return
	}
	if vendor == nil {
		writeError(w, http.StatusNotFound, "Vendor not found", nil)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	config, err := h.Factory.Parse(vendorID, raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid configuration", err)
		return
	}
	config.ID = uuid.NewString()
	config.CreatedAt = time.Now().UTC()

	if err := h.Store.SaveConfiguration(r.Context(), config); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	writeJSON(w, http.StatusCreated, ConfigurationDTO{
		ID:        config.ID,
		VendorID:  string(config.VendorID),
		Config:    factory.Document(config),
		CreatedAt: config.CreatedAt.Format(time.RFC3339),
	})
}

// ListConfigurations returns a vendor's configuration history.
// GET /api/vendors/{id}/config
func (h *Handler) ListConfigurations(w http.ResponseWriter, r *http.Request) {
	vendorID := billing.VendorID(chi.URLParam(r, "id"))

	configs, err := h.Store.ConfigurationsForVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load configurations", err)
		return
	}

	dtos := make([]ConfigurationDTO, len(configs))
	for i, c := range configs {
		dtos[i] = ConfigurationDTO{
			ID:        c.ID,
			VendorID:  string(c.VendorID),
			Config:    factory.Document(c),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ActiveConfiguration returns the configuration in force on a date.
// GET /api/vendors/{id}/config/active?date=2025-11-30
func (h *Handler) ActiveConfiguration(w http.ResponseWriter, r *http.Request) {
	vendorID := billing.VendorID(chi.URLParam(r, "id"))

	ref := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		ref = t
	}

	configs, err := h.Store.ConfigurationsForVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load configurations", err)
		return
	}

	config, err := billing.ResolveConfiguration(configs, ref)
	if err != nil {
		writeError(w, http.StatusNotFound, "No active configuration", err)
		return
	}

	writeJSON(w, http.StatusOK, ConfigurationDTO{
		ID:        config.ID,
		VendorID:  string(config.VendorID),
		Config:    factory.Document(config),
		CreatedAt: config.CreatedAt.Format(time.RFC3339),
	})
}

// =============================================================================
// BILLING HANDLERS
// =============================================================================

// ProcessBilling runs billing for one vendor and month.
// POST /api/billing/process
func (h *Handler) ProcessBilling(w http.ResponseWriter, r *http.Request) {
	var req ProcessBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.VendorID == "" {
		writeError(w, http.StatusBadRequest, "vendor_id is required", nil)
		return
	}

	period, err := billing.NewPeriod(req.Month, req.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	record, err := h.Runner.ProcessVendor(r.Context(), billing.VendorID(req.VendorID), period)
	if err != nil {
		writeBillingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillingRecordDTO(record))
}

// ProcessAllBilling runs billing for every vendor, continuing past
// individual failures.
// POST /api/billing/process-all
func (h *Handler) ProcessAllBilling(w http.ResponseWriter, r *http.Request) {
	var req ProcessAllBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := billing.NewPeriod(req.Month, req.Year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	summary, err := h.Runner.ProcessAll(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Batch billing run failed", err)
		return
	}

	dto := RunSummaryDTO{
		Period:    summary.Period.String(),
		Processed: make([]BillingRecordDTO, len(summary.Processed)),
		Failed:    make([]VendorFailureDTO, len(summary.Failed)),
	}
	for i, rec := range summary.Processed {
		dto.Processed[i] = toBillingRecordDTO(rec)
	}
	for i, f := range summary.Failed {
		dto.Failed[i] = VendorFailureDTO{VendorID: string(f.VendorID), Error: f.Err}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetVendorReport returns the monthly billing statement for a vendor.
// GET /api/reports/vendor/{id}?month=&year=
func (h *Handler) GetVendorReport(w http.ResponseWriter, r *http.Request) {
	vendorID := billing.VendorID(chi.URLParam(r, "id"))
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	rep, err := h.Reports.VendorReport(r.Context(), vendorID, period)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorReportDTO(rep))
}

// GetEmployeeReport returns the monthly incentive statement for an employee.
// GET /api/reports/employee/{id}?month=&year=
func (h *Handler) GetEmployeeReport(w http.ResponseWriter, r *http.Request) {
	employeeID := billing.EmployeeID(chi.URLParam(r, "id"))
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	rep, err := h.Reports.EmployeeReport(r.Context(), employeeID, period)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeReportDTO(rep))
}

// GetClientReport returns a client's month across its vendors.
// GET /api/reports/client/{id}?month=&year=
func (h *Handler) GetClientReport(w http.ResponseWriter, r *http.Request) {
	clientID := billing.ClientID(chi.URLParam(r, "id"))
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	rep, err := h.Reports.ClientReport(r.Context(), clientID, period)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientReportDTO(rep))
}

// periodFromQuery parses month/year query parameters, writing the error
// response itself when they are missing or malformed.
func periodFromQuery(w http.ResponseWriter, r *http.Request) (billing.Period, bool) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month query parameter is required", err)
		return billing.Period{}, false
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year query parameter is required", err)
		return billing.Period{}, false
	}

	period, err := billing.NewPeriod(month, year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return billing.Period{}, false
	}
	return period, true
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeBillingError maps a domain error to its HTTP status.
func writeBillingError(w http.ResponseWriter, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, billing.ErrBillingAlreadyProcessed):
		writeError(w, http.StatusConflict, "Billing already processed", err)
	case errors.Is(err, billing.ErrNoActiveConfiguration):
		writeError(w, http.StatusUnprocessableEntity, "No active billing configuration", err)
	case errors.Is(err, billing.ErrInvalidConfiguration):
		writeError(w, http.StatusUnprocessableEntity, "Invalid billing configuration", err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
