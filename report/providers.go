package report

import (
	"context"

	"github.com/fleetline/billing-engine/billing"
)

// The interfaces below are defined here, in the consumer package, so any
// store (SQLite in production, in-memory in tests) satisfies them
// structurally without importing this package.

// TripProvider returns trips scoped to an entity and billing period.
// Implementations must return only trips whose date falls inside the
// period; the calculators reject strays rather than filtering them.
type TripProvider interface {
	TripsForVendor(ctx context.Context, vendorID billing.VendorID, period billing.Period) ([]billing.Trip, error)
	TripsForEmployee(ctx context.Context, employeeID billing.EmployeeID, period billing.Period) ([]billing.Trip, error)
	TripsForClient(ctx context.Context, clientID billing.ClientID, period billing.Period) ([]billing.Trip, error)
}

// ConfigProvider returns a vendor's full configuration history, in any
// order; resolution sorts.
type ConfigProvider interface {
	ConfigurationsForVendor(ctx context.Context, vendorID billing.VendorID) ([]billing.Configuration, error)
}

// RecordStore persists finalized billing runs and the processed flag on
// their trips.
type RecordStore interface {
	// BillingRecord returns the record for vendor+period, or nil when the
	// period has not been billed yet.
	BillingRecord(ctx context.Context, vendorID billing.VendorID, period billing.Period) (*BillingRecord, error)

	// SaveBillingRecord persists a finalized run and flips the processed
	// flag on the billed trips, atomically where the store supports it.
	SaveBillingRecord(ctx context.Context, record BillingRecord, tripIDs []billing.TripID) error
}

// Directory resolves entity identifiers to display names. A lookup for
// an unknown id fails with the matching not-found sentinel from the
// billing package.
type Directory interface {
	VendorName(ctx context.Context, vendorID billing.VendorID) (string, error)
	EmployeeName(ctx context.Context, employeeID billing.EmployeeID) (string, error)
	ClientName(ctx context.Context, clientID billing.ClientID) (string, error)

	// ListVendorIDs returns every known vendor, for batch billing runs.
	ListVendorIDs(ctx context.Context) ([]billing.VendorID, error)
}
