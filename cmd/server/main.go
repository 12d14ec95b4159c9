/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Fleetline billing engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and environment
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the monthly billing scheduler (unless disabled)
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port          HTTP server port (default: 8080)
  -db            SQLite database path (default: billing.db)
                 Use ":memory:" for an in-memory database
  -auto-billing  Run the previous-month billing sweep hourly (default: true)

ENVIRONMENT:
  INCENTIVE_EXTRA_HOUR_RATE  Payout per extra driver hour (default: 150)
  INCENTIVE_STANDARD_HOURS   Standard hours per trip (default: 8)
  A .env file in the working directory is loaded if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the billing scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/billing.db"

  # Run without the hourly billing sweep
  ./server -auto-billing=false

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - api/scheduler.go: Monthly billing sweep
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"

	"github.com/fleetline/billing-engine/api"
	"github.com/fleetline/billing-engine/report"
	"github.com/fleetline/billing-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "billing.db", "SQLite database path")
	autoBilling := flag.Bool("auto-billing", true, "run the hourly previous-month billing sweep")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, incentiveTermsFromEnv())

	// Monthly billing sweep
	scheduler := api.NewBillingScheduler(handler)
	scheduler.Enabled = *autoBilling
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// incentiveTermsFromEnv reads the incentive constants from the
// environment, falling back to the production defaults.
func incentiveTermsFromEnv() report.IncentiveTerms {
	terms := report.DefaultIncentiveTerms()
	if v := os.Getenv("INCENTIVE_EXTRA_HOUR_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() {
			log.Fatalf("Invalid INCENTIVE_EXTRA_HOUR_RATE %q", v)
		}
		terms.ExtraHourRate = rate
	}
	if v := os.Getenv("INCENTIVE_STANDARD_HOURS"); v != "" {
		hours, err := decimal.NewFromString(v)
		if err != nil || hours.IsNegative() {
			log.Fatalf("Invalid INCENTIVE_STANDARD_HOURS %q", v)
		}
		terms.StandardHoursPerTrip = hours
	}
	return terms
}
