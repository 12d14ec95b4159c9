/*
runner.go - Billing run orchestration

PURPOSE:
  Executes the monthly billing run for a vendor: resolve the
  configuration in force at month end, load the month's trips, compute
  the result, persist it as a BillingRecord, and flip the processed flag
  on the billed trips.

IDEMPOTENCE:
  Exactly one billing record may exist per vendor+month. A second run
  for the same period fails with ErrBillingAlreadyProcessed instead of
  double-counting trips; reprocessing requires deleting the record first
  (an administrative action outside this package).

BATCH RUNS:
  ProcessAll bills every vendor for the period and keeps going past
  individual failures - one vendor's missing configuration must not
  block the rest of the fleet. The summary reports both outcomes.

SEE ALSO:
  - billing/calculator.go: The pure computation this wraps
  - service.go: Read-side reports over the persisted records
*/
package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fleetline/billing-engine/billing"
)

// Runner executes billing runs against the configured providers.
type Runner struct {
	Trips     TripProvider
	Configs   ConfigProvider
	Records   RecordStore
	Directory Directory

	calc billing.Calculator

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewRunner wires a Runner with its providers.
func NewRunner(trips TripProvider, configs ConfigProvider, records RecordStore, directory Directory) *Runner {
	return &Runner{
		Trips:     trips,
		Configs:   configs,
		Records:   records,
		Directory: directory,
		now:       time.Now,
	}
}

// ProcessVendor runs billing for one vendor and period and persists the
// result. An empty trip month is still billed: a PACKAGE or HYBRID
// vendor owes its fixed monthly component even with zero trips.
func (r *Runner) ProcessVendor(ctx context.Context, vendorID billing.VendorID, period billing.Period) (BillingRecord, error) {
	if err := period.Validate(); err != nil {
		return BillingRecord{}, err
	}
	if _, err := r.Directory.VendorName(ctx, vendorID); err != nil {
		return BillingRecord{}, err
	}

	existing, err := r.Records.BillingRecord(ctx, vendorID, period)
	if err != nil {
		return BillingRecord{}, fmt.Errorf("load billing record: %w", err)
	}
	if existing != nil {
		return BillingRecord{}, fmt.Errorf("vendor %s period %s: %w", vendorID, period, billing.ErrBillingAlreadyProcessed)
	}

	history, err := r.Configs.ConfigurationsForVendor(ctx, vendorID)
	if err != nil {
		return BillingRecord{}, fmt.Errorf("load configurations: %w", err)
	}

	// The configuration in force at month end governs the whole month.
	config, err := billing.ResolveConfiguration(history, period.End())
	if err != nil {
		return BillingRecord{}, err
	}

	trips, err := r.Trips.TripsForVendor(ctx, vendorID, period)
	if err != nil {
		return BillingRecord{}, fmt.Errorf("load trips: %w", err)
	}

	result, err := r.calc.Compute(config, trips, period)
	if err != nil {
		return BillingRecord{}, err
	}

	record := BillingRecord{
		ID:        uuid.NewString(),
		Result:    result,
		CreatedAt: r.now().UTC(),
	}

	tripIDs := make([]billing.TripID, len(trips))
	for i, t := range trips {
		tripIDs[i] = t.ID
	}

	if err := r.Records.SaveBillingRecord(ctx, record, tripIDs); err != nil {
		return BillingRecord{}, fmt.Errorf("save billing record: %w", err)
	}
	return record, nil
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// VendorFailure records why one vendor's billing run failed during a
// batch run.
type VendorFailure struct {
	VendorID billing.VendorID
	Err      string
}

// RunSummary is the outcome of a batch billing run.
type RunSummary struct {
	Period    billing.Period
	Processed []BillingRecord
	Failed    []VendorFailure
}

// ProcessAll bills every known vendor for the period, continuing past
// individual failures.
func (r *Runner) ProcessAll(ctx context.Context, period billing.Period) (RunSummary, error) {
	if err := period.Validate(); err != nil {
		return RunSummary{}, err
	}

	vendorIDs, err := r.Directory.ListVendorIDs(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list vendors: %w", err)
	}

	summary := RunSummary{Period: period}
	for _, vendorID := range vendorIDs {
		record, err := r.ProcessVendor(ctx, vendorID, period)
		if err != nil {
			log.Printf("billing run failed for vendor %s in %s: %v", vendorID, period, err)
			summary.Failed = append(summary.Failed, VendorFailure{VendorID: vendorID, Err: err.Error()})
			continue
		}
		summary.Processed = append(summary.Processed, record)
	}
	return summary, nil
}
