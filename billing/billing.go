package billing

import (
	"context"

	"github.com/stripe/stripe-go/v72"
)

// ProductParams describes a Product to be created on the provider
type ProductParams struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// Recurrence describes how often a Price bills (e.g. every 6 months)
type Recurrence struct {
	Interval      string // "month" or "year"
	IntervalCount int64
}

// PriceParams describes a Price to be created under an existing Product
type PriceParams struct {
	ProductID  string
	UnitAmount int64 // in the currency's minor unit
	Currency   string
	Recurrence Recurrence
	LookupKey  string
	Nickname   string
	Metadata   map[string]string
}

// CheckoutParams describes a hosted checkout session for a single Price
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	Quantity      int64
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Client is the surface of the billing provider that the admin tooling
// uses. The production implementation talks to Stripe; tests substitute
// an in-memory fake.
type Client interface {
	NewProduct(ctx context.Context, params ProductParams) (*stripe.Product, error)
	NewPrice(ctx context.Context, params PriceParams) (*stripe.Price, error)
	ListPricesByLookupKeys(ctx context.Context, lookupKeys []string) ([]*stripe.Price, error)
	ListProducts(ctx context.Context) ([]*stripe.Product, error)
	NewCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error)
	GetAccount() (*stripe.Account, error)
}
