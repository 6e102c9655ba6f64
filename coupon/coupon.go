package coupon

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	extErrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DiscountType is the custom type to identify how a coupon discounts
type DiscountType string

// Defining supported discount types
const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PlanIDs is the unordered set of plan identifiers a coupon applies to,
// persisted as JSON. Empty means the coupon applies to every plan.
type PlanIDs []string

// Value implements driver.Valuer
func (p PlanIDs) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PlanIDs) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PlanIDs", src)
	}
}

// Coupon is a row in the coupons table
type Coupon struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	Code              string          `json:"code" gorm:"size:64;uniqueIndex" validate:"required"`
	DiscountType      DiscountType    `json:"discountType" gorm:"size:16" validate:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal `json:"discountValue" gorm:"type:decimal(10,2)"`
	IsActive          bool            `json:"isActive"`
	ValidFrom         time.Time       `json:"validFrom" validate:"required"`
	ValidUntil        time.Time       `json:"validUntil" validate:"required"`
	MaxUses           int64           `json:"maxUses" validate:"gte=0"`
	MinPurchaseAmount decimal.Decimal `json:"minPurchaseAmount" gorm:"type:decimal(10,2)"`
	ApplicablePlans   PlanIDs         `json:"applicablePlans" gorm:"type:json"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

var validate = validator.New()

// Validate rejects structurally invalid coupons before they reach the
// database. In particular a validity window with validFrom after
// validUntil is an invalid record.
func (c *Coupon) Validate() error {
	if err := validate.Struct(c); err != nil {
		return extErrors.Wrapf(err, "Invalid coupon %q", c.Code)
	}
	if c.DiscountValue.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("coupon %q has a non-positive discount value", c.Code)
	}
	if c.DiscountType == DiscountPercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("coupon %q discounts more than 100%%", c.Code)
	}
	if c.ValidFrom.After(c.ValidUntil) {
		return fmt.Errorf("coupon %q is valid from %s but until %s",
			c.Code,
			c.ValidFrom.Format(time.RFC3339),
			c.ValidUntil.Format(time.RFC3339),
		)
	}
	if c.MinPurchaseAmount.IsNegative() {
		return fmt.Errorf("coupon %q has a negative minimum purchase amount", c.Code)
	}
	return nil
}
