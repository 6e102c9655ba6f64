package plan

import (
	"context"
	"fmt"
	"testing"

	"github.com/atendo-app/billing/billing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
	"go.uber.org/zap/zaptest"
)

// fakeStore is an in-memory Store keyed by the composite natural key
type fakeStore struct {
	rows    map[string]*Plan
	nextID  int
	inserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows: make(map[string]*Plan),
	}
}

func naturalKey(name string, interval BillingInterval, installments *int64) string {
	count := int64(1)
	if installments != nil && *installments > 1 {
		count = *installments
	}
	return fmt.Sprintf("%s|%s|%d", name, interval, count)
}

func (f *fakeStore) FindByNaturalKey(_ context.Context, name string, interval BillingInterval, installments *int64) (*Plan, error) {
	row, ok := f.rows[naturalKey(name, interval, installments)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeStore) CreatePending(_ context.Context, p *Plan) error {
	key := naturalKey(p.Name, p.BillingInterval, p.Installments)
	if _, ok := f.rows[key]; ok {
		return fmt.Errorf("duplicate natural key %s", key)
	}
	f.nextID++
	p.ID = fmt.Sprintf("plan_%d", f.nextID)
	p.SyncState = SyncPending
	p.IsActive = false
	copied := *p
	f.rows[key] = &copied
	f.inserts++
	return nil
}

func (f *fakeStore) Confirm(_ context.Context, id string, stripePriceID string) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.StripePriceID = stripePriceID
			row.SyncState = SyncConfirmed
			row.IsActive = true
			return nil
		}
	}
	return fmt.Errorf("no plan row with id %s to confirm", id)
}

func (f *fakeStore) get(name string, interval BillingInterval, installments *int64) *Plan {
	return f.rows[naturalKey(name, interval, installments)]
}

// fakeBilling counts provider calls and mints sequential IDs
type fakeBilling struct {
	products      int
	prices        int
	priceParams   []billing.PriceParams
	lookupResults map[string]string // lookup key -> existing price ID
	failNewPrice  bool
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		lookupResults: make(map[string]string),
	}
}

func (f *fakeBilling) NewProduct(_ context.Context, params billing.ProductParams) (*stripe.Product, error) {
	f.products++
	return &stripe.Product{ID: fmt.Sprintf("prod_%d", f.products)}, nil
}

func (f *fakeBilling) NewPrice(_ context.Context, params billing.PriceParams) (*stripe.Price, error) {
	if f.failNewPrice {
		return nil, fmt.Errorf("stripe: simulated API error")
	}
	f.prices++
	f.priceParams = append(f.priceParams, params)
	return &stripe.Price{ID: fmt.Sprintf("price_%d", f.prices)}, nil
}

func (f *fakeBilling) ListPricesByLookupKeys(_ context.Context, lookupKeys []string) ([]*stripe.Price, error) {
	results := make([]*stripe.Price, 0, 1)
	for _, key := range lookupKeys {
		if id, ok := f.lookupResults[key]; ok {
			results = append(results, &stripe.Price{ID: id, LookupKey: key})
		}
	}
	return results, nil
}

func (f *fakeBilling) ListProducts(_ context.Context) ([]*stripe.Product, error) {
	return nil, nil
}

func (f *fakeBilling) NewCheckoutSession(_ context.Context, _ billing.CheckoutParams) (*stripe.CheckoutSession, error) {
	return nil, fmt.Errorf("not supported in fake")
}

func (f *fakeBilling) GetAccount() (*stripe.Account, error) {
	return &stripe.Account{ID: "acct_fake"}, nil
}

func newTestSynchronizer(t *testing.T, store Store, client billing.Client) *Synchronizer {
	s, err := NewSynchronizer(SynchronizerOptions{
		Store:   store,
		Billing: client,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return s
}

func TestEnsureBasePlansCreatesProductAndPrices(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	entries := []CatalogEntry{
		{
			Name:         "Essencial",
			Description:  "Plano de entrada",
			MonthlyPrice: decimal.RequireFromString("89.00"),
			Currency:     "brl",
			Features:     []string{"1 profissional"},
		},
	}
	require.NoError(t, s.EnsureBasePlans(context.Background(), entries))

	assert.Equal(t, 1, stripeFake.products)
	assert.Equal(t, 2, stripeFake.prices)

	monthly := store.get("Essencial", IntervalMonthly, nil)
	require.NotNil(t, monthly)
	assert.Equal(t, SyncConfirmed, monthly.SyncState)
	assert.True(t, monthly.IsActive)
	assert.Equal(t, "prod_1", monthly.StripeProductID)
	assert.Equal(t, "89.00", monthly.Price.StringFixed(2))

	yearly := store.get("Essencial", IntervalYearly, nil)
	require.NotNil(t, yearly)
	assert.Equal(t, "854.40", yearly.Price.StringFixed(2)) // 89 * 12 * 0.8
	assert.Equal(t, "prod_1", yearly.StripeProductID)

	// yearly price went to Stripe in minor units with a yearly recurrence
	require.Len(t, stripeFake.priceParams, 2)
	assert.Equal(t, int64(85440), stripeFake.priceParams[1].UnitAmount)
	assert.Equal(t, "year", stripeFake.priceParams[1].Recurrence.Interval)
}

func TestEnsureBasePlansIsIdempotent(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	entries := Catalog()
	require.NoError(t, s.EnsureBasePlans(context.Background(), entries))

	productsAfterFirst := stripeFake.products
	pricesAfterFirst := stripeFake.prices
	insertsAfterFirst := store.inserts

	// re-running with every natural key present makes zero provider
	// calls and zero inserts
	require.NoError(t, s.EnsureBasePlans(context.Background(), entries))
	assert.Equal(t, productsAfterFirst, stripeFake.products)
	assert.Equal(t, pricesAfterFirst, stripeFake.prices)
	assert.Equal(t, insertsAfterFirst, store.inserts)
}

func TestEnsureBasePlansContinuesAfterFailure(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	stripeFake.failNewPrice = true
	s := newTestSynchronizer(t, store, stripeFake)

	err := s.EnsureBasePlans(context.Background(), Catalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 3 plans")

	// every plan still got its attempt (one product each)
	assert.Equal(t, 3, stripeFake.products)
}

func TestExpandInstallments(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	seedConfirmedBase(store, "Essencial", "89.00")

	require.NoError(t, s.ExpandInstallments(context.Background(), []string{"Essencial"}))
	assert.Equal(t, 4, stripeFake.prices)
	assert.Equal(t, 0, stripeFake.products)

	two := int64(2)
	row2 := store.get("Essencial", IntervalYearly, &two)
	require.NotNil(t, row2)
	assert.Equal(t, "44.50", row2.Price.StringFixed(2))
	assert.Equal(t, SyncConfirmed, row2.SyncState)
	assert.Equal(t, "prod_base", row2.StripeProductID)

	twelve := int64(12)
	row12 := store.get("Essencial", IntervalYearly, &twelve)
	require.NotNil(t, row12)
	assert.Equal(t, "7.42", row12.Price.StringFixed(2))

	// recurrence: 2 installments bill every 6 months, 12 bill monthly
	byInstallments := make(map[string]billing.PriceParams)
	for _, p := range stripeFake.priceParams {
		byInstallments[p.Metadata["installments"]] = p
	}
	assert.Equal(t, int64(6), byInstallments["2"].Recurrence.IntervalCount)
	assert.Equal(t, "month", byInstallments["2"].Recurrence.Interval)
	assert.Equal(t, int64(1), byInstallments["12"].Recurrence.IntervalCount)
	assert.Equal(t, "Essencial", byInstallments["2"].Metadata["plan_name"])
}

func TestExpandInstallmentsSkipsMissingBasePlan(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	// no base rows at all: warn and continue, not an error
	require.NoError(t, s.ExpandInstallments(context.Background(), []string{"Fantasma"}))
	assert.Equal(t, 0, stripeFake.prices)
	assert.Equal(t, 0, store.inserts)
}

func TestExpandInstallmentsResumesPendingRow(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	seedConfirmedBase(store, "Essencial", "89.00")

	// an earlier run died after creating the 2x price on Stripe but
	// before confirming the local row
	two := int64(2)
	pending := &Plan{
		Name:            "Essencial",
		BillingInterval: IntervalYearly,
		Installments:    &two,
		Price:           decimal.RequireFromString("44.50"),
		Currency:        "brl",
		StripeProductID: "prod_base",
	}
	require.NoError(t, store.CreatePending(context.Background(), pending))
	stripeFake.lookupResults["essencial_yearly_2"] = "price_orphan"
	insertsBefore := store.inserts

	require.NoError(t, s.ExpandInstallments(context.Background(), []string{"Essencial"}))

	// the orphaned price was adopted, not duplicated
	row2 := store.get("Essencial", IntervalYearly, &two)
	require.NotNil(t, row2)
	assert.Equal(t, SyncConfirmed, row2.SyncState)
	assert.Equal(t, "price_orphan", row2.StripePriceID)

	// only the three remaining counts created new prices and rows
	assert.Equal(t, 3, stripeFake.prices)
	assert.Equal(t, insertsBefore+3, store.inserts)
}

func TestExpandInstallmentsSkipsConfirmedRows(t *testing.T) {
	store := newFakeStore()
	stripeFake := newFakeBilling()
	s := newTestSynchronizer(t, store, stripeFake)

	seedConfirmedBase(store, "Essencial", "89.00")

	require.NoError(t, s.ExpandInstallments(context.Background(), []string{"Essencial"}))
	pricesAfterFirst := stripeFake.prices

	require.NoError(t, s.ExpandInstallments(context.Background(), []string{"Essencial"}))
	assert.Equal(t, pricesAfterFirst, stripeFake.prices)
}

func seedConfirmedBase(store *fakeStore, name string, annualPrice string) {
	base := &Plan{
		ID:              "plan_base",
		Name:            name,
		Description:     "Plano anual",
		Price:           decimal.RequireFromString(annualPrice),
		Currency:        "brl",
		StripePriceID:   "price_base",
		StripeProductID: "prod_base",
		BillingInterval: IntervalYearly,
		SyncState:       SyncConfirmed,
		IsActive:        true,
		Features:        Features{"1 profissional"},
	}
	store.rows[naturalKey(name, IntervalYearly, nil)] = base
}
