package plan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atendo-app/billing/billing"

	extErrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var lookupKeyRegex = regexp.MustCompile("[^a-zA-Z0-9]+")

// Store is the slice of plan persistence the synchronizer needs.
// *Manager satisfies it; tests substitute an in-memory fake.
type Store interface {
	FindByNaturalKey(ctx context.Context, name string, interval BillingInterval, installments *int64) (*Plan, error)
	CreatePending(ctx context.Context, p *Plan) error
	Confirm(ctx context.Context, id string, stripePriceID string) error
}

// SynchronizerOptions describes the dependencies of a Synchronizer
type SynchronizerOptions struct {
	Store   Store
	Billing billing.Client
	Logger  *zap.Logger
}

// Synchronizer reconciles the plan catalog with Stripe and the local
// subscription_plans table. Each plan is processed independently: an
// error for one plan is logged and the batch continues.
type Synchronizer struct {
	SynchronizerOptions
}

// NewSynchronizer returns a new Synchronizer
func NewSynchronizer(option SynchronizerOptions) (*Synchronizer, error) {
	if option.Store == nil {
		return nil, fmt.Errorf("nil Store is invalid")
	}
	if option.Billing == nil {
		return nil, fmt.Errorf("nil Billing is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Synchronizer{
		SynchronizerOptions: option,
	}, nil
}

// EnsureBasePlans guarantees that every catalog entry has a Product on
// Stripe plus a monthly and a yearly Price, mirrored as confirmed rows
// in the local table. Entries whose rows already exist are skipped
// without any provider call.
func (s *Synchronizer) EnsureBasePlans(ctx context.Context, entries []CatalogEntry) error {
	var failed int
	for _, entry := range entries {
		if err := s.ensureBasePlan(ctx, entry); err != nil {
			s.Logger.Error("Cannot ensure base plan",
				zap.String("PlanName", entry.Name),
				zap.Error(err),
			)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans failed to synchronize", failed, len(entries))
	}
	return nil
}

func (s *Synchronizer) ensureBasePlan(ctx context.Context, entry CatalogEntry) error {
	monthly, err := s.Store.FindByNaturalKey(ctx, entry.Name, IntervalMonthly, nil)
	if err != nil {
		return err
	}
	yearly, err := s.Store.FindByNaturalKey(ctx, entry.Name, IntervalYearly, nil)
	if err != nil {
		return err
	}
	if isConfirmed(monthly) && isConfirmed(yearly) {
		s.Logger.Info("Plan already present, skipping",
			zap.String("PlanName", entry.Name),
		)
		fmt.Printf("= %s: already present, skipped\n", entry.Name)
		return nil
	}

	productID := firstProductID(monthly, yearly)
	if len(productID) == 0 {
		product, err := s.Billing.NewProduct(ctx, billing.ProductParams{
			Name:        entry.Name,
			Description: entry.Description,
			Metadata: map[string]string{
				"plan_name": entry.Name,
			},
		})
		if err != nil {
			return extErrors.Wrap(err, "Cannot create Product on Stripe")
		}
		productID = product.ID
		fmt.Printf("+ %s: created product %s\n", entry.Name, productID)
	}

	annual := FromMinorUnits(AnnualPrice(MinorUnits(entry.MonthlyPrice)))

	if err := s.ensurePrice(ctx, priceIntent{
		entry:     entry,
		row:       monthly,
		productID: productID,
		interval:  IntervalMonthly,
		price:     entry.MonthlyPrice,
		recurrence: billing.Recurrence{
			Interval:      "month",
			IntervalCount: 1,
		},
	}); err != nil {
		return err
	}
	return s.ensurePrice(ctx, priceIntent{
		entry:     entry,
		row:       yearly,
		productID: productID,
		interval:  IntervalYearly,
		price:     annual,
		recurrence: billing.Recurrence{
			Interval:      "year",
			IntervalCount: 1,
		},
	})
}

// ExpandInstallments derives the per-installment prices from each plan's
// annual base row and mirrors them on Stripe and in the local table. A
// plan without an annual base row is skipped with a warning; the batch
// continues.
func (s *Synchronizer) ExpandInstallments(ctx context.Context, names []string) error {
	var failed int
	for _, name := range names {
		if err := s.expandPlan(ctx, name); err != nil {
			s.Logger.Error("Cannot expand installments",
				zap.String("PlanName", name),
				zap.Error(err),
			)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans failed to expand", failed, len(names))
	}
	return nil
}

func (s *Synchronizer) expandPlan(ctx context.Context, name string) error {
	base, err := s.Store.FindByNaturalKey(ctx, name, IntervalYearly, nil)
	if err != nil {
		return err
	}
	if base == nil || len(base.StripeProductID) == 0 {
		s.Logger.Warn("No annual base plan found, skipping",
			zap.String("PlanName", name),
		)
		fmt.Printf("! %s: no annual base plan, skipped\n", name)
		return nil
	}

	entry := CatalogEntry{
		Name:        base.Name,
		Description: base.Description,
		Currency:    base.Currency,
		Features:    base.Features,
	}
	for _, count := range SupportedInstallments {
		count := count
		price, err := InstallmentPrice(base.Price, count)
		if err != nil {
			return err
		}
		existing, err := s.Store.FindByNaturalKey(ctx, name, IntervalYearly, &count)
		if err != nil {
			return err
		}
		if err := s.ensurePrice(ctx, priceIntent{
			entry:        entry,
			row:          existing,
			productID:    base.StripeProductID,
			interval:     IntervalYearly,
			installments: &count,
			price:        price,
			recurrence: billing.Recurrence{
				Interval:      "month",
				IntervalCount: InstallmentInterval(count),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// priceIntent carries everything ensurePrice needs to mirror one Price
type priceIntent struct {
	entry        CatalogEntry
	row          *Plan // existing row for the natural key, nil if absent
	productID    string
	interval     BillingInterval
	installments *int64
	price        decimal.Decimal
	recurrence   billing.Recurrence
}

// ensurePrice is the recorded-intent flow: a pending row is written
// before the provider call and confirmed with the price ID afterwards.
// A confirmed row is skipped; a pending row from an earlier partial run
// is resumed, adopting an already-created Stripe price by lookup key
// instead of minting a duplicate.
func (s *Synchronizer) ensurePrice(ctx context.Context, intent priceIntent) error {
	if isConfirmed(intent.row) {
		s.Logger.Info("Price already mirrored, skipping",
			zap.String("PlanName", intent.entry.Name),
			zap.String("BillingInterval", string(intent.interval)),
			zap.Int64("Installments", installmentCount(intent.installments)),
		)
		return nil
	}

	lookupKey := s.lookupKey(intent.entry.Name, intent.interval, intent.installments)

	row := intent.row
	if row == nil {
		row = &Plan{
			Name:            intent.entry.Name,
			Description:     intent.entry.Description,
			Price:           intent.price,
			Currency:        intent.entry.Currency,
			StripeProductID: intent.productID,
			BillingInterval: intent.interval,
			Installments:    intent.installments,
			Features:        intent.entry.Features,
		}
		if err := s.Store.CreatePending(ctx, row); err != nil {
			return extErrors.Wrap(err, "Cannot record pending plan row")
		}
	} else {
		s.Logger.Warn("Resuming pending plan row from an earlier run",
			zap.String("PlanID", row.ID),
			zap.String("PlanName", row.Name),
		)
		// the provider call may have succeeded before the last run died
		prices, err := s.Billing.ListPricesByLookupKeys(ctx, []string{lookupKey})
		if err != nil {
			return extErrors.Wrap(err, "Cannot look up existing Prices on Stripe")
		}
		if len(prices) > 0 {
			if err := s.Store.Confirm(ctx, row.ID, prices[0].ID); err != nil {
				return extErrors.Wrap(err, "Cannot confirm resumed plan row")
			}
			fmt.Printf("~ %s (%s, %dx): adopted existing price %s\n",
				row.Name, intent.interval, installmentCount(intent.installments), prices[0].ID)
			return nil
		}
	}

	metadata := map[string]string{
		"plan_name": intent.entry.Name,
	}
	if intent.installments != nil {
		metadata["installments"] = strconv.FormatInt(*intent.installments, 10)
	}
	price, err := s.Billing.NewPrice(ctx, billing.PriceParams{
		ProductID:  intent.productID,
		UnitAmount: MinorUnits(intent.price),
		Currency:   intent.entry.Currency,
		Recurrence: intent.recurrence,
		LookupKey:  lookupKey,
		Nickname:   s.nickname(intent.entry.Name, intent.interval, intent.installments),
		Metadata:   metadata,
	})
	if err != nil {
		return extErrors.Wrap(err, "Cannot create Price on Stripe")
	}
	if err := s.Store.Confirm(ctx, row.ID, price.ID); err != nil {
		return extErrors.Wrap(err, "Cannot confirm plan row")
	}
	fmt.Printf("+ %s (%s, %dx): %s %s -> %s\n",
		row.Name, intent.interval, installmentCount(intent.installments),
		strings.ToUpper(intent.entry.Currency), intent.price.StringFixed(2), price.ID)
	return nil
}

// lookupKey generates a unique LookupKey on Stripe to identify each
// Price of a plan
func (s *Synchronizer) lookupKey(name string, interval BillingInterval, installments *int64) string {
	cleaned := lookupKeyRegex.ReplaceAllString(name, "-")
	return strings.ToLower(fmt.Sprintf("%s_%s_%d", cleaned, interval, installmentCount(installments)))
}

func (s *Synchronizer) nickname(name string, interval BillingInterval, installments *int64) string {
	if installments == nil {
		return fmt.Sprintf("%s (%s)", name, interval)
	}
	return fmt.Sprintf("%s (%s, %dx)", name, interval, *installments)
}

func isConfirmed(p *Plan) bool {
	return p != nil && p.SyncState == SyncConfirmed
}

func installmentCount(installments *int64) int64 {
	if installments == nil {
		return 1
	}
	return *installments
}

func firstProductID(rows ...*Plan) string {
	for _, row := range rows {
		if row != nil && len(row.StripeProductID) > 0 {
			return row.StripeProductID
		}
	}
	return ""
}
