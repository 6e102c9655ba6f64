package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atendo-app/billing/config"
	"github.com/atendo-app/billing/db"
	"github.com/atendo-app/billing/plan"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// update-prices mutates the stored price of a single plan row, addressed
// by its natural key. Stripe prices are immutable, so the operator is
// expected to create the replacement Price via seed-plans afterwards;
// this command only touches the local mirror.
func main() {
	var (
		planName     = flag.String("plan", "", "plan name (required)")
		interval     = flag.String("interval", "yearly", "billing interval: monthly or yearly")
		installments = flag.Int64("installments", 1, "installment count, 1 for the base row")
		rawPrice     = flag.String("price", "", "new price in major units, e.g. 89.90 (required)")
	)
	flag.Parse()

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

	if len(*planName) == 0 || len(*rawPrice) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	billingInterval := plan.BillingInterval(*interval)
	if billingInterval != plan.IntervalMonthly && billingInterval != plan.IntervalYearly {
		logger.Fatal("Invalid billing interval",
			zap.String("Interval", *interval),
		)
	}
	price, err := decimal.NewFromString(*rawPrice)
	if err != nil {
		logger.Fatal("Invalid price",
			zap.String("Price", *rawPrice),
			zap.Error(err),
		)
	}

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

	var count *int64
	if *installments > 1 {
		count = installments
	}
	updated, err := planManager.UpdatePrice(context.Background(), *planName, billingInterval, count, price)
	if err != nil {
		logger.Fatal("Cannot update plan price",
			zap.Error(err),
		)
	}
	fmt.Printf("~ %s (%s, %dx): price set to %s\n",
		updated.Name, updated.BillingInterval, updated.InstallmentCount(), price.StringFixed(2))
}
