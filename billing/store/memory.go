// Package store provides an in-memory data store for tests and demos.
// It satisfies the report package's provider interfaces structurally;
// production deployments use the SQLite store instead.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/report"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds the whole domain state behind one RWMutex. Reads hand out
// copies, so callers get consistent snapshots.
type Memory struct {
	mu sync.RWMutex

	vendors   map[billing.VendorID]string
	employees map[billing.EmployeeID]string
	clients   map[billing.ClientID]string

	trips   map[billing.TripID]billing.Trip
	configs map[billing.VendorID][]billing.Configuration
	records map[recordKey]report.BillingRecord
}

type recordKey struct {
	VendorID billing.VendorID
	Period   billing.Period
}

func NewMemory() *Memory {
	return &Memory{
		vendors:   make(map[billing.VendorID]string),
		employees: make(map[billing.EmployeeID]string),
		clients:   make(map[billing.ClientID]string),
		trips:     make(map[billing.TripID]billing.Trip),
		configs:   make(map[billing.VendorID][]billing.Configuration),
		records:   make(map[recordKey]report.BillingRecord),
	}
}

// =============================================================================
// SEEDING - Used by tests and demo scenarios
// =============================================================================

func (m *Memory) AddVendor(id billing.VendorID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[id] = name
}

func (m *Memory) AddEmployee(id billing.EmployeeID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[id] = name
}

func (m *Memory) AddClient(id billing.ClientID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = name
}

func (m *Memory) AddTrip(t billing.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t
}

func (m *Memory) AddConfiguration(c billing.Configuration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[c.VendorID] = append(m.configs[c.VendorID], c)
}

// Trip returns a trip by id, for assertions on the processed flag.
func (m *Memory) Trip(id billing.TripID) (billing.Trip, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	return t, ok
}

// =============================================================================
// TRIP PROVIDER
// =============================================================================

func (m *Memory) TripsForVendor(_ context.Context, vendorID billing.VendorID, period billing.Period) ([]billing.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.Trip
	for _, t := range m.trips {
		if t.VendorID == vendorID && period.Contains(t.TripDate) {
			out = append(out, t)
		}
	}
	sortTrips(out)
	return out, nil
}

func (m *Memory) TripsForEmployee(_ context.Context, employeeID billing.EmployeeID, period billing.Period) ([]billing.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.Trip
	for _, t := range m.trips {
		if t.EmployeeID == employeeID && period.Contains(t.TripDate) {
			out = append(out, t)
		}
	}
	sortTrips(out)
	return out, nil
}

func (m *Memory) TripsForClient(_ context.Context, clientID billing.ClientID, period billing.Period) ([]billing.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.Trip
	for _, t := range m.trips {
		if t.ClientID == clientID && period.Contains(t.TripDate) {
			out = append(out, t)
		}
	}
	sortTrips(out)
	return out, nil
}

// =============================================================================
// CONFIG PROVIDER
// =============================================================================

func (m *Memory) ConfigurationsForVendor(_ context.Context, vendorID billing.VendorID) ([]billing.Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]billing.Configuration, len(m.configs[vendorID]))
	copy(out, m.configs[vendorID])
	return out, nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (m *Memory) BillingRecord(_ context.Context, vendorID billing.VendorID, period billing.Period) (*report.BillingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordKey{VendorID: vendorID, Period: period}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) SaveBillingRecord(_ context.Context, record report.BillingRecord, tripIDs []billing.TripID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := recordKey{VendorID: record.Result.VendorID, Period: record.Result.Period}
	if _, exists := m.records[k]; exists {
		return fmt.Errorf("vendor %s period %s: %w", k.VendorID, k.Period, billing.ErrBillingAlreadyProcessed)
	}
	m.records[k] = record

	for _, id := range tripIDs {
		t, ok := m.trips[id]
		if !ok {
			continue
		}
		t.Processed = true
		m.trips[id] = t
	}
	return nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) VendorName(_ context.Context, vendorID billing.VendorID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.vendors[vendorID]
	if !ok {
		return "", fmt.Errorf("%s: %w", vendorID, billing.ErrVendorNotFound)
	}
	return name, nil
}

func (m *Memory) EmployeeName(_ context.Context, employeeID billing.EmployeeID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.employees[employeeID]
	if !ok {
		return "", fmt.Errorf("%s: %w", employeeID, billing.ErrEmployeeNotFound)
	}
	return name, nil
}

func (m *Memory) ClientName(_ context.Context, clientID billing.ClientID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.clients[clientID]
	if !ok {
		return "", fmt.Errorf("%s: %w", clientID, billing.ErrClientNotFound)
	}
	return name, nil
}

func (m *Memory) ListVendorIDs(_ context.Context) ([]billing.VendorID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]billing.VendorID, 0, len(m.vendors))
	for id := range m.vendors {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// sortTrips orders trips chronologically, with the id as tiebreak, so
// reads are deterministic regardless of map iteration order.
func sortTrips(trips []billing.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].TripDate.Equal(trips[j].TripDate) {
			return trips[i].TripDate.Before(trips[j].TripDate)
		}
		return trips[i].ID < trips[j].ID
	})
}
