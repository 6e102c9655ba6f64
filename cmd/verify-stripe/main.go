package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/atendo-app/billing/billing"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// verify-stripe is a read-only sanity check: it retrieves the account
// behind STRIPE_SECRET_KEY and lists the active products, so an operator
// can confirm the key and environment before running anything that
// writes.
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

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if len(stripeKey) == 0 {
		logger.Fatal("STRIPE_SECRET_KEY is not set")
	}

	client := billing.NewStripeClient(stripeKey)

	account, err := client.GetAccount()
	if err != nil {
		logger.Fatal("Cannot retrieve Stripe account",
			zap.Error(err),
		)
	}
	fmt.Printf("Account: %s", account.ID)
	if account.Settings != nil && account.Settings.Dashboard != nil {
		fmt.Printf(" (%s)", account.Settings.Dashboard.DisplayName)
	}
	fmt.Println()

	products, err := client.ListProducts(context.Background())
	if err != nil {
		logger.Fatal("Cannot list Stripe products",
			zap.Error(err),
		)
	}
	fmt.Printf("%d active products:\n", len(products))
	for _, product := range products {
		fmt.Printf("  %s  %s\n", product.ID, product.Name)
	}
}
