package main

import (
	"context"
	"flag"
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

// create-checkout generates a hosted Stripe checkout link for a customer,
// for the plan row addressed by its natural key. Used by support when a
// customer can't complete checkout through the site.
func main() {
	var (
		email        = flag.String("email", "", "customer email (required)")
		planName     = flag.String("plan", "", "plan name (required)")
		interval     = flag.String("interval", "yearly", "billing interval: monthly or yearly")
		installments = flag.Int64("installments", 1, "installment count, 1 for the base row")
		successURL   = flag.String("success-url", "https://atendo.app/obrigado", "redirect after payment")
		cancelURL    = flag.String("cancel-url", "https://atendo.app/planos", "redirect on cancel")
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

	if len(*email) == 0 || len(*planName) == 0 {
		flag.Usage()
		os.Exit(1)
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

	ctx := context.Background()

	var count *int64
	if *installments > 1 {
		count = installments
	}
	row, err := planManager.FindByNaturalKey(ctx, *planName, plan.BillingInterval(*interval), count)
	if err != nil {
		logger.Fatal("Cannot look up plan",
			zap.Error(err),
		)
	}
	if row == nil || !row.IsActive || len(row.StripePriceID) == 0 {
		logger.Fatal("No active plan row for that natural key",
			zap.String("PlanName", *planName),
			zap.String("BillingInterval", *interval),
			zap.Int64("Installments", *installments),
		)
	}

	client := billing.NewStripeClient(cfg.StripeKey)
	session, err := client.NewCheckoutSession(ctx, billing.CheckoutParams{
		CustomerEmail: *email,
		PriceID:       row.StripePriceID,
		Quantity:      1,
		SuccessURL:    *successURL,
		CancelURL:     *cancelURL,
		Metadata: map[string]string{
			"plan_name": row.Name,
			"source":    "create-checkout",
		},
	})
	if err != nil {
		logger.Fatal("Cannot create checkout session",
			zap.Error(err),
		)
	}

	fmt.Printf("Checkout session %s for %s\n", session.ID, *email)
	fmt.Println(session.URL)
}
