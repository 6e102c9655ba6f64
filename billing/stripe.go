package billing

import (
	"context"

	extErrors "github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

type stripeClient struct {
	api *client.API
}

// NewStripeClient returns a Client backed by the Stripe API
func NewStripeClient(key string) Client {
	sc := &client.API{}
	sc.Init(key, nil)
	return &stripeClient{
		api: sc,
	}
}

func (s *stripeClient) NewProduct(ctx context.Context, params ProductParams) (*stripe.Product, error) {
	prodParams := &stripe.ProductParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: params.Metadata,
		},
		Active:      stripe.Bool(true),
		Name:        stripe.String(params.Name),
		Description: stripe.String(params.Description),
	}
	product, err := s.api.Products.New(prodParams)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create Product on Stripe")
	}
	return product, nil
}

func (s *stripeClient) NewPrice(ctx context.Context, params PriceParams) (*stripe.Price, error) {
	pParams := &stripe.PriceParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: params.Metadata,
		},
		Active:        stripe.Bool(true),
		Nickname:      stripe.String(params.Nickname),
		BillingScheme: stripe.String("per_unit"),
		Currency:      stripe.String(params.Currency),
		UnitAmount:    stripe.Int64(params.UnitAmount),
		Product:       stripe.String(params.ProductID),
		LookupKey:     stripe.String(params.LookupKey),
		Recurring: &stripe.PriceRecurringParams{
			Interval:      stripe.String(params.Recurrence.Interval),
			IntervalCount: stripe.Int64(params.Recurrence.IntervalCount),
			UsageType:     stripe.String("licensed"),
		},
	}
	price, err := s.api.Prices.New(pParams)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create Price on Stripe")
	}
	return price, nil
}

func (s *stripeClient) ListPricesByLookupKeys(ctx context.Context, lookupKeys []string) ([]*stripe.Price, error) {
	keys := make([]*string, 0, len(lookupKeys))
	for _, k := range lookupKeys {
		keys = append(keys, stripe.String(k))
	}
	lookupParams := &stripe.PriceListParams{
		ListParams: stripe.ListParams{
			Context: ctx,
		},
		Active:     stripe.Bool(true),
		LookupKeys: keys,
	}
	prices := make([]*stripe.Price, 0, len(lookupKeys))
	iter := s.api.Prices.List(lookupParams)
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	if iter.Err() != nil {
		return nil, extErrors.Wrap(iter.Err(), "Cannot list Prices on Stripe")
	}
	return prices, nil
}

func (s *stripeClient) ListProducts(ctx context.Context) ([]*stripe.Product, error) {
	listParams := &stripe.ProductListParams{
		ListParams: stripe.ListParams{
			Context: ctx,
		},
		Active: stripe.Bool(true),
	}
	products := make([]*stripe.Product, 0, 8)
	iter := s.api.Products.List(listParams)
	for iter.Next() {
		products = append(products, iter.Product())
	}
	if iter.Err() != nil {
		return nil, extErrors.Wrap(iter.Err(), "Cannot list Products on Stripe")
	}
	return products, nil
}

func (s *stripeClient) NewCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error) {
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}
	sParams := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: params.Metadata,
		},
		CustomerEmail: stripe.String(params.CustomerEmail),
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	session, err := s.api.CheckoutSessions.New(sParams)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create Checkout Session on Stripe")
	}
	return session, nil
}

func (s *stripeClient) GetAccount() (*stripe.Account, error) {
	account, err := s.api.Account.Get()
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot retrieve Account from Stripe")
	}
	return account, nil
}
