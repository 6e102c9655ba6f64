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

// expand-installments derives the 2x/3x/6x/12x installment prices from
// each plan's annual base row and mirrors them on Stripe. Plans whose
// annual base row is missing are skipped with a warning. Safe to re-run.
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

	names := make([]string, 0, 4)
	for _, entry := range plan.Catalog() {
		names = append(names, entry.Name)
	}

	fmt.Printf("Expanding installment prices for %d plans...\n", len(names))
	if err := synchronizer.ExpandInstallments(context.Background(), names); err != nil {
		logger.Fatal("Installment expansion finished with errors",
			zap.Error(err),
		)
	}
	fmt.Println("All installment prices synchronized")
}
