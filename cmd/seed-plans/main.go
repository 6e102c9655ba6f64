package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/atendo-app/billing/billing"
	"github.com/atendo-app/billing/config"
	"github.com/atendo-app/billing/db"
	"github.com/atendo-app/billing/plan"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// seed-plans ensures every catalog plan exists as a Product with monthly
// and yearly Prices on Stripe, mirrored in the subscription_plans table.
// Safe to re-run: existing plans are skipped, interrupted runs resumed.
func main() {
	var logger *zap.Logger
	var err error

	if os.Getenv("APP_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded",
			zap.Error(err),
		)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration",
			zap.Error(err),
		)
	}

	database, err := db.New(logger, cfg.Database)
	if err != nil {
		logger.Fatal("Cannot connect to MySQL",
			zap.Error(err),
		)
	}
	defer db.Close(database)

	planManager, err := plan.NewManager(logger, database)
	if err != nil {
		logger.Fatal("Cannot initialize PlanManager",
			zap.Error(err),
		)
	}

	synchronizer, err := plan.NewSynchronizer(plan.SynchronizerOptions{
		Store:   planManager,
		Billing: billing.NewStripeClient(cfg.StripeKey),
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Synchronizer",
			zap.Error(err),
		)
	}

	entries := plan.Catalog()
	fmt.Printf("Synchronizing %d plans with Stripe...\n", len(entries))
	if err := synchronizer.EnsureBasePlans(context.Background(), entries); err != nil {
		logger.Fatal("Plan synchronization finished with errors",
			zap.Error(err),
		)
	}
	fmt.Println("All plans synchronized")
}
