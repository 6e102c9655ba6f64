package plan

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BillingInterval is the cadence at which a subscription price recurs
type BillingInterval string

// Defining supported billing intervals
const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

// SyncState tracks whether the row's Stripe mirror has been confirmed.
// A row is created as Pending before the provider call and flipped to
// Confirmed once the Stripe price exists, so a crash between the two
// steps is detectable and resumable on the next run.
type SyncState string

// Defining the recorded-intent states
const (
	SyncPending   SyncState = "pending"
	SyncConfirmed SyncState = "confirmed"
)

// Features is the ordered feature list shown on the pricing page
type Features []string

// Value implements driver.Valuer so gorm can persist the list as JSON
func (f Features) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner
func (f *Features) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	case nil:
		*f = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Features", src)
	}
}

// Plan is a row in the subscription_plans table. The Stripe Product and
// Price identifiers are cached references into the provider; the local
// database does not own their lifecycle.
type Plan struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"size:191;uniqueIndex:idx_plan_natural_key,priority:1"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"` // in major units (e.g. 89.90)
	Currency        string          `json:"currency" gorm:"size:3"`          // ISO currency code (e.g. brl)
	StripePriceID   string          `json:"stripePriceId"`
	StripeProductID string          `json:"stripeProductId"`
	BillingInterval BillingInterval `json:"billingInterval" gorm:"size:16;uniqueIndex:idx_plan_natural_key,priority:2"`
	Installments    *int64          `json:"installments" gorm:"uniqueIndex:idx_plan_natural_key,priority:3"` // nil means no installments
	Features        Features        `json:"features" gorm:"type:json"`
	IsActive        bool            `json:"isActive"`
	SyncState       SyncState       `json:"syncState" gorm:"size:16"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName keeps the table name the website already queries
func (Plan) TableName() string {
	return "subscription_plans"
}

// InstallmentCount normalizes the nullable column: nil means a single payment
func (p *Plan) InstallmentCount() int64 {
	if p.Installments == nil {
		return 1
	}
	return *p.Installments
}
