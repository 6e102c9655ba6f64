package plan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SupportedInstallments is the fixed set of installment counts offered
// at checkout
var SupportedInstallments = []int64{2, 3, 6, 12}

// annualDiscountRate is the discount applied when paying for a year upfront
var annualDiscountRate = decimal.RequireFromString("0.20")

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// AnnualPrice derives the yearly price from the monthly price, both in
// minor units. The 20% discount is applied and the result rounded
// half-up to the nearest minor unit.
func AnnualPrice(monthlyMinorUnits int64) int64 {
	monthly := decimal.NewFromInt(monthlyMinorUnits)
	factor := decimal.NewFromInt(1).Sub(annualDiscountRate)
	return monthly.Mul(twelve).Mul(factor).Round(0).IntPart()
}

// InstallmentPrice divides a base price in major units across count
// installments, rounded half-up to 2 decimal places
func InstallmentPrice(basePrice decimal.Decimal, count int64) (decimal.Decimal, error) {
	if count <= 0 {
		return decimal.Zero, fmt.Errorf("installment count must be positive, got %d", count)
	}
	return basePrice.Div(decimal.NewFromInt(count)).Round(2), nil
}

// InstallmentInterval returns how many months apart each installment
// bills, so that count payments cover one year: ceil(12 / count)
func InstallmentInterval(count int64) int64 {
	return (12 + count - 1) / count
}

// MinorUnits converts a major-unit amount (e.g. 89.90) to minor units (8990)
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts minor units back to a major-unit amount
func FromMinorUnits(minorUnits int64) decimal.Decimal {
	return decimal.NewFromInt(minorUnits).Div(hundred)
}
