/*
scheduler.go - Automated monthly billing scheduler

PURPOSE:
  Periodically checks for vendors whose previous calendar month has not
  been billed yet and runs their billing automatically.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Bills the previous calendar month, never the current one: a month is
    only billable once it has ended
  - Skips vendors that already have a billing record for the period
  - Continues past individual vendor failures (no configuration yet,
    invalid trips), logging each one

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBillingScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ProcessBilling endpoint (manual runs)
  - report/runner.go: The orchestration this drives
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fleetline/billing-engine/billing"
)

// BillingScheduler handles automated month-end billing runs.
type BillingScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewBillingScheduler creates a new scheduler.
func NewBillingScheduler(handler *Handler) *BillingScheduler {
	return &BillingScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (bs *BillingScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BillingScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BillingScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndProcess()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndProcess()
		case <-bs.stop:
			return
		}
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BillingScheduler) RunNow() {
	bs.checkAndProcess()
}

// checkAndProcess bills the previous calendar month for every vendor
// that does not have a record for it yet.
func (bs *BillingScheduler) checkAndProcess() {
	ctx := context.Background()
	period := billing.PeriodOf(bs.now()).Previous()

	log.Printf("[Scheduler] Checking billing runs for %s", period)

	vendorIDs, err := bs.Handler.Store.ListVendorIDs(ctx)
	if err != nil {
		log.Printf("[Scheduler] Failed to list vendors: %v", err)
		return
	}

	processed, skipped, failed := 0, 0, 0
	for _, vendorID := range vendorIDs {
		record, err := bs.Handler.Store.BillingRecord(ctx, vendorID, period)
		if err != nil {
			log.Printf("[Scheduler] Failed to check record for vendor %s: %v", vendorID, err)
			failed++
			continue
		}
		if record != nil {
			skipped++
			continue
		}

		if _, err := bs.Handler.Runner.ProcessVendor(ctx, vendorID, period); err != nil {
			// A manual run may finish the same vendor between the
			// existence check and the save; that is a skip, not a failure.
			if errors.Is(err, billing.ErrBillingAlreadyProcessed) {
				skipped++
				continue
			}
			log.Printf("[Scheduler] Billing failed for vendor %s in %s: %v", vendorID, period, err)
			failed++
			continue
		}

		log.Printf("[Scheduler] Billed vendor %s for %s", vendorID, period)
		processed++
	}

	if processed+failed > 0 {
		log.Printf("[Scheduler] Run complete for %s: %d billed, %d skipped, %d failed",
			period, processed, skipped, failed)
	}
}
