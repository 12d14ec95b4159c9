/*
service.go - Read-side report assembly

PURPOSE:
  Builds the three report shapes from persisted state. Pure reads: the
  Service never bills, never flips the processed flag, never writes.

REPORT SOURCES:
  Vendor report:   The persisted BillingRecord for vendor+period; an
                   unbilled period yields a zero report, not an error.
  Employee report: Computed on demand from the employee's trips via the
                   incentive calculator - incentives are not persisted.
  Client report:   The client's trips for the period, grouped by vendor,
                   each group billed with that vendor's resolved
                   configuration. This answers "what does this client's
                   traffic cost, vendor by vendor" even before the
                   vendors' full monthly runs are finalized.

SEE ALSO:
  - runner.go: Write-side billing runs
  - billing/incentive.go: The employee incentive formula
*/
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/billing"
)

// Service assembles reports from the configured providers.
type Service struct {
	Trips     TripProvider
	Configs   ConfigProvider
	Records   RecordStore
	Directory Directory
	Terms     IncentiveTerms

	calc      billing.Calculator
	incentive billing.IncentiveCalculator
}

// NewService wires a Service with its providers and incentive terms.
func NewService(trips TripProvider, configs ConfigProvider, records RecordStore, directory Directory, terms IncentiveTerms) *Service {
	return &Service{
		Trips:     trips,
		Configs:   configs,
		Records:   records,
		Directory: directory,
		Terms:     terms,
	}
}

// VendorReport returns the billing statement for vendor+period. When the
// period has not been billed yet, every total is zero; callers can tell
// the two states apart by TotalTrips being zero alongside a zero amount.
func (s *Service) VendorReport(ctx context.Context, vendorID billing.VendorID, period billing.Period) (VendorReport, error) {
	if err := period.Validate(); err != nil {
		return VendorReport{}, err
	}
	name, err := s.Directory.VendorName(ctx, vendorID)
	if err != nil {
		return VendorReport{}, err
	}

	record, err := s.Records.BillingRecord(ctx, vendorID, period)
	if err != nil {
		return VendorReport{}, fmt.Errorf("load billing record: %w", err)
	}
	if record == nil {
		return VendorReport{
			VendorID:        vendorID,
			VendorName:      name,
			Period:          period,
			TotalDistance:   decimal.Zero,
			TotalDuration:   decimal.Zero,
			BaseBilling:     decimal.Zero,
			TotalIncentives: decimal.Zero,
			TotalAmount:     decimal.Zero,
		}, nil
	}

	res := record.Result
	return VendorReport{
		VendorID:        vendorID,
		VendorName:      name,
		Period:          period,
		TotalTrips:      res.TotalTrips,
		TotalDistance:   res.TotalDistance,
		TotalDuration:   res.TotalDuration,
		BaseBilling:     res.BaseBilling,
		TotalIncentives: res.TotalIncentives,
		TotalAmount:     res.TotalAmount,
	}, nil
}

// EmployeeReport computes the incentive statement for employee+period.
func (s *Service) EmployeeReport(ctx context.Context, employeeID billing.EmployeeID, period billing.Period) (EmployeeIncentiveReport, error) {
	if err := period.Validate(); err != nil {
		return EmployeeIncentiveReport{}, err
	}
	name, err := s.Directory.EmployeeName(ctx, employeeID)
	if err != nil {
		return EmployeeIncentiveReport{}, err
	}

	trips, err := s.Trips.TripsForEmployee(ctx, employeeID, period)
	if err != nil {
		return EmployeeIncentiveReport{}, fmt.Errorf("load trips: %w", err)
	}

	result, err := s.incentive.Compute(trips, period, s.Terms.ExtraHourRate, s.Terms.StandardHoursPerTrip)
	if err != nil {
		return EmployeeIncentiveReport{}, err
	}

	return EmployeeIncentiveReport{
		EmployeeID:      employeeID,
		EmployeeName:    name,
		Period:          period,
		TotalTrips:      result.TotalTrips,
		TotalExtraHours: result.TotalExtraHours,
		ExtraHourRate:   s.Terms.ExtraHourRate,
		TotalIncentive:  result.TotalIncentive,
	}, nil
}

// ClientReport builds the vendor-wise breakdown of a client's month.
// Each vendor group is billed over the client's trips with that vendor,
// using the configuration in force for the period.
func (s *Service) ClientReport(ctx context.Context, clientID billing.ClientID, period billing.Period) (ClientReport, error) {
	if err := period.Validate(); err != nil {
		return ClientReport{}, err
	}
	name, err := s.Directory.ClientName(ctx, clientID)
	if err != nil {
		return ClientReport{}, err
	}

	trips, err := s.Trips.TripsForClient(ctx, clientID, period)
	if err != nil {
		return ClientReport{}, fmt.Errorf("load trips: %w", err)
	}

	byVendor := make(map[billing.VendorID][]billing.Trip)
	for _, t := range trips {
		byVendor[t.VendorID] = append(byVendor[t.VendorID], t)
	}

	clientReport := ClientReport{
		ClientID:    clientID,
		ClientName:  name,
		Period:      period,
		TotalTrips:  len(trips),
		TotalAmount: decimal.Zero,
	}

	for vendorID, vendorTrips := range byVendor {
		breakdown, err := s.vendorBreakdown(ctx, vendorID, vendorTrips, period)
		if err != nil {
			return ClientReport{}, fmt.Errorf("vendor %s: %w", vendorID, err)
		}
		clientReport.Vendors = append(clientReport.Vendors, breakdown)
		clientReport.TotalAmount = clientReport.TotalAmount.Add(breakdown.TotalAmount)
	}

	// Map iteration order is random; keep the breakdown stable for
	// renderers and for response caching.
	sort.Slice(clientReport.Vendors, func(i, j int) bool {
		return clientReport.Vendors[i].VendorID < clientReport.Vendors[j].VendorID
	})

	return clientReport, nil
}

func (s *Service) vendorBreakdown(ctx context.Context, vendorID billing.VendorID, trips []billing.Trip, period billing.Period) (VendorBreakdown, error) {
	vendorName, err := s.Directory.VendorName(ctx, vendorID)
	if err != nil {
		return VendorBreakdown{}, err
	}

	history, err := s.Configs.ConfigurationsForVendor(ctx, vendorID)
	if err != nil {
		return VendorBreakdown{}, fmt.Errorf("load configurations: %w", err)
	}
	config, err := billing.ResolveConfiguration(history, period.End())
	if err != nil {
		return VendorBreakdown{}, err
	}

	result, err := s.calc.Compute(config, trips, period)
	if err != nil {
		return VendorBreakdown{}, err
	}

	return VendorBreakdown{
		VendorID:    vendorID,
		VendorName:  vendorName,
		TotalTrips:  result.TotalTrips,
		TotalAmount: result.TotalAmount,
	}, nil
}
