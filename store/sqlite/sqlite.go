/*
Package sqlite provides SQLite-backed persistence for the billing platform.

PURPOSE:
  Implements the report provider interfaces (TripProvider, ConfigProvider,
  RecordStore, Directory) plus the entity CRUD the HTTP API needs, using
  SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  clients:                Client organizations
  vendors:                Transport vendors, each attached to a client
  employees:              Drivers, each attached to a client
  trips:                  Completed trips with distance and duration
  billing_configurations: Append-only configuration history per vendor
  billing_records:        One finalized billing run per vendor+month

APPEND-ONLY ENFORCEMENT:
  - billing_configurations are inserted, never updated or deleted; rate
    changes supersede via effective_from
  - billing_records carry a UNIQUE(vendor_id, period_year, period_month)
    index; a second run for the same month surfaces as
    ErrBillingAlreadyProcessed

DECIMALS:
  Money, distance and duration are stored as TEXT and parsed through
  shopspring/decimal. Storing REAL would reintroduce the float drift the
  engine exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  runner := report.NewRunner(store, store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - report/providers.go: Interface definitions this store satisfies
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/billing"
	"github.com/fleetline/billing-engine/factory"
	"github.com/fleetline/billing-engine/report"
)

// Store implements the provider interfaces and entity CRUD using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.ConfigFactory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, factory: factory.NewConfigFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		contact_email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		client_id TEXT NOT NULL,
		contact_email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vendors_client
		ON vendors(client_id);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		client_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_client
		ON employees(client_id);

	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		trip_code TEXT NOT NULL UNIQUE,
		vendor_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		trip_date TEXT NOT NULL,
		distance_km TEXT NOT NULL,
		duration_hours TEXT NOT NULL,
		source TEXT,
		destination TEXT,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Composite indexes for period-scoped trip queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_trips_vendor_date
		ON trips(vendor_id, trip_date);
	CREATE INDEX IF NOT EXISTS idx_trips_employee_date
		ON trips(employee_id, trip_date);
	CREATE INDEX IF NOT EXISTS idx_trips_client_date
		ON trips(client_id, trip_date);

	-- Append-only configuration history
	CREATE TABLE IF NOT EXISTS billing_configurations (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		model TEXT NOT NULL,
		config_json TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_configurations_vendor
		ON billing_configurations(vendor_id, effective_from);

	CREATE TABLE IF NOT EXISTS billing_records (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		total_trips INTEGER NOT NULL,
		total_distance TEXT NOT NULL,
		total_duration TEXT NOT NULL,
		base_billing TEXT NOT NULL,
		total_incentives TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one finalized run per vendor+month. A second run for the
	-- same period must fail, not overwrite.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_vendor_period
		ON billing_records(vendor_id, period_year, period_month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTITY RECORDS
// =============================================================================

// Client is a stored client organization.
type Client struct {
	ID           billing.ClientID
	Code         string
	Name         string
	ContactEmail string
	CreatedAt    time.Time
}

// Vendor is a stored transport vendor. Vendors belong to a client.
type Vendor struct {
	ID           billing.VendorID
	Code         string
	Name         string
	ClientID     billing.ClientID
	ContactEmail string
	CreatedAt    time.Time
}

// Employee is a stored driver. Employees belong to a client.
type Employee struct {
	ID        billing.EmployeeID
	Code      string
	Name      string
	ClientID  billing.ClientID
	CreatedAt time.Time
}

// =============================================================================
// CLIENT STORE
// =============================================================================

// SaveClient inserts or updates a client.
func (s *Store) SaveClient(ctx context.Context, c Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO clients (id, code, name, contact_email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			contact_email = excluded.contact_email
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Code, c.Name, c.ContactEmail,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetClient retrieves a client by ID. Returns nil when not found.
func (s *Store) GetClient(ctx context.Context, id billing.ClientID) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Client
	var email sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, contact_email, created_at FROM clients WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Code, &c.Name, &email, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.ContactEmail = email.String
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// ListClients returns all clients.
func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, contact_email, created_at FROM clients ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &email, &createdAt); err != nil {
			return nil, err
		}
		c.ContactEmail = email.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// =============================================================================
// VENDOR STORE
// =============================================================================

// SaveVendor inserts or updates a vendor.
func (s *Store) SaveVendor(ctx context.Context, v Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO vendors (id, code, name, client_id, contact_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			client_id = excluded.client_id,
			contact_email = excluded.contact_email
	`

	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.Code, v.Name, v.ClientID, v.ContactEmail,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetVendor retrieves a vendor by ID. Returns nil when not found.
func (s *Store) GetVendor(ctx context.Context, id billing.VendorID) (*Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v Vendor
	var email sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, client_id, contact_email, created_at FROM vendors WHERE id = ?",
		id,
	).Scan(&v.ID, &v.Code, &v.Name, &v.ClientID, &email, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v.ContactEmail = email.String
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &v, nil
}

// ListVendors returns all vendors.
func (s *Store) ListVendors(ctx context.Context) ([]Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, client_id, contact_email, created_at FROM vendors ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Code, &v.Name, &v.ClientID, &email, &createdAt); err != nil {
			return nil, err
		}
		v.ContactEmail = email.String
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, code, name, client_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			client_id = excluded.client_id
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Code, e.Name, e.ClientID,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID. Returns nil when not found.
func (s *Store) GetEmployee(ctx context.Context, id billing.EmployeeID) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e Employee
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, client_id, created_at FROM employees WHERE id = ?",
		id,
	).Scan(&e.ID, &e.Code, &e.Name, &e.ClientID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, client_id, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.ClientID, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// TRIP STORE (report.TripProvider interface)
// =============================================================================

// SaveTrip inserts a trip. Trips are immutable after ingestion except
// for the processed flag flipped by SaveBillingRecord.
func (s *Store) SaveTrip(ctx context.Context, t billing.Trip) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO trips
		(id, trip_code, vendor_id, employee_id, client_id, trip_date,
		 distance_km, duration_hours, source, destination, processed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.TripCode, t.VendorID, t.EmployeeID, t.ClientID,
		t.TripDate.UTC().Format(time.RFC3339),
		t.DistanceKm.String(), t.DurationHours.String(),
		t.Source, t.Destination, t.Processed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("trip %s already exists", t.ID)
		}
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID. Returns nil when not found.
func (s *Store) GetTrip(ctx context.Context, id billing.TripID) (*billing.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips, err := s.queryTrips(ctx, selectTrips+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, nil
	}
	return &trips[0], nil
}

// ListTrips returns the most recent trips, newest first.
func (s *Store) ListTrips(ctx context.Context, limit int) ([]billing.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTrips(ctx, selectTrips+" ORDER BY trip_date DESC, id LIMIT ?", limit)
}

// TripsForVendor returns a vendor's trips inside the period, oldest first.
func (s *Store) TripsForVendor(ctx context.Context, vendorID billing.VendorID, period billing.Period) ([]billing.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectTrips + `
		WHERE vendor_id = ? AND trip_date >= ? AND trip_date <= ?
		ORDER BY trip_date ASC, id ASC
	`
	return s.queryTrips(ctx, query, vendorID,
		period.Start().Format(time.RFC3339), period.End().Format(time.RFC3339))
}

// TripsForEmployee returns an employee's trips inside the period, oldest first.
func (s *Store) TripsForEmployee(ctx context.Context, employeeID billing.EmployeeID, period billing.Period) ([]billing.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectTrips + `
		WHERE employee_id = ? AND trip_date >= ? AND trip_date <= ?
		ORDER BY trip_date ASC, id ASC
	`
	return s.queryTrips(ctx, query, employeeID,
		period.Start().Format(time.RFC3339), period.End().Format(time.RFC3339))
}

// TripsForClient returns a client's trips inside the period, oldest first.
func (s *Store) TripsForClient(ctx context.Context, clientID billing.ClientID, period billing.Period) ([]billing.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectTrips + `
		WHERE client_id = ? AND trip_date >= ? AND trip_date <= ?
		ORDER BY trip_date ASC, id ASC
	`
	return s.queryTrips(ctx, query, clientID,
		period.Start().Format(time.RFC3339), period.End().Format(time.RFC3339))
}

const selectTrips = `
	SELECT id, trip_code, vendor_id, employee_id, client_id, trip_date,
	       distance_km, duration_hours, source, destination, processed
	FROM trips
`

func (s *Store) queryTrips(ctx context.Context, query string, args ...any) ([]billing.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []billing.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func scanTrip(rows *sql.Rows) (billing.Trip, error) {
	var (
		t             billing.Trip
		tripDate      string
		distanceKm    string
		durationHours string
		source        sql.NullString
		destination   sql.NullString
	)

	err := rows.Scan(
		&t.ID, &t.TripCode, &t.VendorID, &t.EmployeeID, &t.ClientID,
		&tripDate, &distanceKm, &durationHours, &source, &destination, &t.Processed,
	)
	if err != nil {
		return t, fmt.Errorf("failed to scan trip: %w", err)
	}

	t.TripDate, err = time.Parse(time.RFC3339, tripDate)
	if err != nil {
		return t, fmt.Errorf("trip %s: bad trip_date: %w", t.ID, err)
	}
	t.DistanceKm, err = decimal.NewFromString(distanceKm)
	if err != nil {
		return t, fmt.Errorf("trip %s: bad distance_km: %w", t.ID, err)
	}
	t.DurationHours, err = decimal.NewFromString(durationHours)
	if err != nil {
		return t, fmt.Errorf("trip %s: bad duration_hours: %w", t.ID, err)
	}
	t.Source = source.String
	t.Destination = destination.String

	return t, nil
}

// =============================================================================
// CONFIGURATION STORE (report.ConfigProvider interface)
// =============================================================================

// SaveConfiguration appends a configuration to a vendor's history.
// Existing rows are never touched; resolution picks the winner.
func (s *Store) SaveConfiguration(ctx context.Context, c billing.Configuration) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := factory.Document(c)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	query := `
		INSERT INTO billing_configurations
		(id, vendor_id, model, config_json, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.VendorID, string(c.Model()), string(raw),
		c.EffectiveFrom.UTC().Format(time.RFC3339),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// ConfigurationsForVendor returns a vendor's full configuration history.
func (s *Store) ConfigurationsForVendor(ctx context.Context, vendorID billing.VendorID) ([]billing.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, vendor_id, config_json, created_at
		FROM billing_configurations
		WHERE vendor_id = ?
		ORDER BY effective_from ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query configurations: %w", err)
	}
	defer rows.Close()

	var configs []billing.Configuration
	for rows.Next() {
		var id, rawJSON, createdAt string
		var vendor billing.VendorID
		if err := rows.Scan(&id, &vendor, &rawJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan configuration: %w", err)
		}

		config, err := s.factory.Parse(vendor, []byte(rawJSON))
		if err != nil {
			return nil, fmt.Errorf("configuration %s: %w", id, err)
		}
		config.ID = id
		config.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		configs = append(configs, config)
	}
	return configs, rows.Err()
}

// =============================================================================
// BILLING RECORD STORE (report.RecordStore interface)
// =============================================================================

// BillingRecord returns the finalized run for vendor+period, or nil when
// the period has not been billed.
func (s *Store) BillingRecord(ctx context.Context, vendorID billing.VendorID, period billing.Period) (*report.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, total_trips, total_distance, total_duration,
		       base_billing, total_incentives, total_amount, created_at
		FROM billing_records
		WHERE vendor_id = ? AND period_year = ? AND period_month = ?
	`

	var (
		rec       report.BillingRecord
		distance  string
		duration  string
		base      string
		incentive string
		total     string
		createdAt string
	)

	err := s.db.QueryRowContext(ctx, query, vendorID, period.Year, int(period.Month)).Scan(
		&rec.ID, &rec.Result.TotalTrips, &distance, &duration,
		&base, &incentive, &total, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query billing record: %w", err)
	}

	rec.Result.VendorID = vendorID
	rec.Result.Period = period
	if rec.Result.TotalDistance, err = decimal.NewFromString(distance); err != nil {
		return nil, fmt.Errorf("record %s: bad total_distance: %w", rec.ID, err)
	}
	if rec.Result.TotalDuration, err = decimal.NewFromString(duration); err != nil {
		return nil, fmt.Errorf("record %s: bad total_duration: %w", rec.ID, err)
	}
	if rec.Result.BaseBilling, err = decimal.NewFromString(base); err != nil {
		return nil, fmt.Errorf("record %s: bad base_billing: %w", rec.ID, err)
	}
	if rec.Result.TotalIncentives, err = decimal.NewFromString(incentive); err != nil {
		return nil, fmt.Errorf("record %s: bad total_incentives: %w", rec.ID, err)
	}
	if rec.Result.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("record %s: bad total_amount: %w", rec.ID, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &rec, nil
}

// SaveBillingRecord persists a finalized run and marks its trips
// processed, atomically. A record already present for the vendor+period
// fails with ErrBillingAlreadyProcessed.
func (s *Store) SaveBillingRecord(ctx context.Context, record report.BillingRecord, tripIDs []billing.TripID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := record.Result
	insert := `
		INSERT INTO billing_records
		(id, vendor_id, period_month, period_year, total_trips, total_distance,
		 total_duration, base_billing, total_incentives, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, insert,
		record.ID, r.VendorID, int(r.Period.Month), r.Period.Year,
		r.TotalTrips, r.TotalDistance.String(), r.TotalDuration.String(),
		r.BaseBilling.String(), r.TotalIncentives.String(), r.TotalAmount.String(),
		record.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("vendor %s period %s: %w", r.VendorID, r.Period, billing.ErrBillingAlreadyProcessed)
		}
		return fmt.Errorf("failed to save billing record: %w", err)
	}

	for _, id := range tripIDs {
		if _, err := tx.ExecContext(ctx, "UPDATE trips SET processed = TRUE WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to mark trip %s processed: %w", id, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// DIRECTORY (report.Directory interface)
// =============================================================================

// VendorName resolves a vendor's display name.
func (s *Store) VendorName(ctx context.Context, vendorID billing.VendorID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM vendors WHERE id = ?", vendorID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s: %w", vendorID, billing.ErrVendorNotFound)
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// EmployeeName resolves an employee's display name.
func (s *Store) EmployeeName(ctx context.Context, employeeID billing.EmployeeID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM employees WHERE id = ?", employeeID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s: %w", employeeID, billing.ErrEmployeeNotFound)
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// ClientName resolves a client's display name.
func (s *Store) ClientName(ctx context.Context, clientID billing.ClientID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM clients WHERE id = ?", clientID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s: %w", clientID, billing.ErrClientNotFound)
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// ListVendorIDs returns every known vendor ID, for batch billing runs.
func (s *Store) ListVendorIDs(ctx context.Context) ([]billing.VendorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM vendors ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []billing.VendorID
	for rows.Next() {
		var id billing.VendorID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo scenario loading).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"billing_records", "billing_configurations", "trips", "employees", "vendors", "clients"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
