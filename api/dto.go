/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND MEASURES:
  Decimal quantities (amounts, distances, durations) are serialized as
  strings. JSON numbers round-trip through float64 in most clients, and
  billing figures must not.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ConfigJSON type
*/
package api

import (
	"time"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/factory"
	"github.com/fleetline/billing-engine/report"
)

// =============================================================================
// ENTITY TYPES
// =============================================================================

// ClientDTO represents a client organization in API responses.
type ClientDTO struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateClientRequest is the request to create a client.
type CreateClientRequest struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

// VendorDTO represents a transport vendor in API responses.
type VendorDTO struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ContactEmail string `json:"contact_email,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateVendorRequest is the request to create a vendor.
type CreateVendorRequest struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ContactEmail string `json:"contact_email"`
}

// EmployeeDTO represents a driver in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ClientID  string `json:"client_id"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
}

// =============================================================================
// TRIP TYPES
// =============================================================================

// TripDTO represents a completed trip in API responses.
type TripDTO struct {
	ID            string `json:"id"`
	TripCode      string `json:"trip_code"`
	VendorID      string `json:"vendor_id"`
	EmployeeID    string `json:"employee_id"`
	ClientID      string `json:"client_id"`
	TripDate      string `json:"trip_date"`
	DistanceKm    string `json:"distance_km"`
	DurationHours string `json:"duration_hours"`
	Source        string `json:"source,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Processed     bool   `json:"processed"`
}

// CreateTripRequest is the request to ingest a trip. Distance and
// duration accept numbers or numeric strings.
type CreateTripRequest struct {
	ID            string  `json:"id"`
	TripCode      string  `json:"trip_code"`
	VendorID      string  `json:"vendor_id"`
	EmployeeID    string  `json:"employee_id"`
	ClientID      string  `json:"client_id"`
	TripDate      string  `json:"trip_date"`
	DistanceKm    float64 `json:"distance_km"`
	DurationHours float64 `json:"duration_hours"`
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
}

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// ConfigurationDTO represents one configuration in a vendor's history.
type ConfigurationDTO struct {
	ID        string             `json:"id"`
	VendorID  string             `json:"vendor_id"`
	Config    factory.ConfigJSON `json:"config"`
	CreatedAt string             `json:"created_at,omitempty"`
}

// =============================================================================
// BILLING TYPES
// =============================================================================

// ProcessBillingRequest triggers a billing run.
type ProcessBillingRequest struct {
	VendorID string `json:"vendor_id"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
}

// ProcessAllBillingRequest triggers a batch billing run.
type ProcessAllBillingRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// BillingRecordDTO represents a finalized billing run.
type BillingRecordDTO struct {
	ID              string `json:"id"`
	VendorID        string `json:"vendor_id"`
	Period          string `json:"period"`
	TotalTrips      int    `json:"total_trips"`
	TotalDistance   string `json:"total_distance"`
	TotalDuration   string `json:"total_duration"`
	BaseBilling     string `json:"base_billing"`
	TotalIncentives string `json:"total_incentives"`
	TotalAmount     string `json:"total_amount"`
	CreatedAt       string `json:"created_at"`
}

// VendorFailureDTO reports one vendor's failure in a batch run.
type VendorFailureDTO struct {
	VendorID string `json:"vendor_id"`
	Error    string `json:"error"`
}

// RunSummaryDTO is the outcome of a batch billing run.
type RunSummaryDTO struct {
	Period    string             `json:"period"`
	Processed []BillingRecordDTO `json:"processed"`
	Failed    []VendorFailureDTO `json:"failed"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// VendorReportDTO is the monthly billing statement for one vendor.
type VendorReportDTO struct {
	VendorID        string `json:"vendor_id"`
	VendorName      string `json:"vendor_name"`
	Period          string `json:"period"`
	TotalTrips      int    `json:"total_trips"`
	TotalDistance   string `json:"total_distance"`
	TotalDuration   string `json:"total_duration"`
	BaseBilling     string `json:"base_billing"`
	TotalIncentives string `json:"total_incentives"`
	TotalAmount     string `json:"total_amount"`
}

// EmployeeReportDTO is the monthly incentive statement for one employee.
type EmployeeReportDTO struct {
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	Period          string `json:"period"`
	TotalTrips      int    `json:"total_trips"`
	TotalExtraHours string `json:"total_extra_hours"`
	ExtraHourRate   string `json:"extra_hour_rate"`
	TotalIncentive  string `json:"total_incentive"`
}

// VendorBreakdownDTO is one vendor row of a client report.
type VendorBreakdownDTO struct {
	VendorID    string `json:"vendor_id"`
	VendorName  string `json:"vendor_name"`
	TotalTrips  int    `json:"total_trips"`
	TotalAmount string `json:"total_amount"`
}

// ClientReportDTO aggregates a client's month across its vendors.
type ClientReportDTO struct {
	ClientID    string               `json:"client_id"`
	ClientName  string               `json:"client_name"`
	Period      string               `json:"period"`
	TotalTrips  int                  `json:"total_trips"`
	TotalAmount string               `json:"total_amount"`
	Vendors     []VendorBreakdownDTO `json:"vendors"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toBillingRecordDTO(r report.BillingRecord) BillingRecordDTO {
	return BillingRecordDTO{
		ID:              r.ID,
		VendorID:        string(r.Result.VendorID),
		Period:          r.Result.Period.String(),
		TotalTrips:      r.Result.TotalTrips,
		TotalDistance:   r.Result.TotalDistance.String(),
		TotalDuration:   r.Result.TotalDuration.String(),
		BaseBilling:     r.Result.BaseBilling.StringFixed(2),
		TotalIncentives: r.Result.TotalIncentives.StringFixed(2),
		TotalAmount:     r.Result.TotalAmount.StringFixed(2),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}

func toVendorReportDTO(r report.VendorReport) VendorReportDTO {
	return VendorReportDTO{
		VendorID:        string(r.VendorID),
		VendorName:      r.VendorName,
		Period:          r.Period.String(),
		TotalTrips:      r.TotalTrips,
		TotalDistance:   r.TotalDistance.String(),
		TotalDuration:   r.TotalDuration.String(),
		BaseBilling:     r.BaseBilling.StringFixed(2),
		TotalIncentives: r.TotalIncentives.StringFixed(2),
		TotalAmount:     r.TotalAmount.StringFixed(2),
	}
}

func toEmployeeReportDTO(r report.EmployeeIncentiveReport) EmployeeReportDTO {
	return EmployeeReportDTO{
		EmployeeID:      string(r.EmployeeID),
		EmployeeName:    r.EmployeeName,
		Period:          r.Period.String(),
		TotalTrips:      r.TotalTrips,
		TotalExtraHours: r.TotalExtraHours.String(),
		ExtraHourRate:   r.ExtraHourRate.String(),
		TotalIncentive:  r.TotalIncentive.StringFixed(2),
	}
}

func toClientReportDTO(r report.ClientReport) ClientReportDTO {
	vendors := make([]VendorBreakdownDTO, len(r.Vendors))
	for i, v := range r.Vendors {
		vendors[i] = VendorBreakdownDTO{
			VendorID:    string(v.VendorID),
			VendorName:  v.VendorName,
			TotalTrips:  v.TotalTrips,
			TotalAmount: v.TotalAmount.StringFixed(2),
		}
	}
	return ClientReportDTO{
		ClientID:    string(r.ClientID),
		ClientName:  r.ClientName,
		Period:      r.Period.String(),
		TotalTrips:  r.TotalTrips,
		TotalAmount: r.TotalAmount.StringFixed(2),
		Vendors:     vendors,
	}
}

func toTripDTO(t billing.Trip) TripDTO {
	return TripDTO{
		ID:            string(t.ID),
		TripCode:      t.TripCode,
		VendorID:      string(t.VendorID),
		EmployeeID:    string(t.EmployeeID),
		ClientID:      string(t.ClientID),
		TripDate:      t.TripDate.UTC().Format(time.RFC3339),
		DistanceKm:    t.DistanceKm.String(),
		DurationHours: t.DurationHours.String(),
		Source:        t.Source,
		Destination:   t.Destination,
		Processed:     t.Processed,
	}
}
