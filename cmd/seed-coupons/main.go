package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atendo-app/billing/config"
	"github.com/atendo-app/billing/coupon"
	"github.com/atendo-app/billing/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// launchCoupons are the codes handed out for the launch campaign.
// Existing codes are skipped on re-run.
func launchCoupons() []coupon.Coupon {
	return []coupon.Coupon{
		{
			Code:          "BEMVINDO20",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(20),
			IsActive:      true,
			ValidFrom:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil:    time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			MaxUses:       500,
		},
		{
			Code:              "ANUAL50",
			DiscountType:      coupon.DiscountFixed,
			DiscountValue:     decimal.NewFromInt(50),
			IsActive:          true,
			ValidFrom:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil:        time.Date(2027, 8, 31, 23, 59, 59, 0, time.UTC),
			MaxUses:           200,
			MinPurchaseAmount: decimal.RequireFromString("500.00"),
		},
	}
}

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

	couponManager, err := coupon.NewManager(logger, database)
	if err != nil {
		logger.Fatal("Cannot initialize CouponManager",
			zap.Error(err),
		)
	}

	coupons := launchCoupons()
	fmt.Printf("Seeding %d coupons...\n", len(coupons))
	if err := couponManager.Seed(context.Background(), coupons); err != nil {
		logger.Fatal("Coupon seeding finished with errors",
			zap.Error(err),
		)
	}
	fmt.Println("All coupons seeded")
}
