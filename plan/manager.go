package plan

import (
	"context"
	"errors"

	"github.com/lithammer/shortuuid/v3"
	extErrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager handles the database operations relating to subscription plans
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager returns a new Manager for subscription plans
func NewManager(logger *zap.Logger, db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Plan{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize plan.Manager")
	}
	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// FindByNaturalKey looks up a plan row by its full natural key
// (name, billing interval, installments). A nil or 1 installments value
// matches the base row, which historically stored either NULL or 1.
// Returns (nil, nil) when no row exists.
func (m *Manager) FindByNaturalKey(ctx context.Context, name string, interval BillingInterval, installments *int64) (*Plan, error) {
	query := m.db.WithContext(ctx).
		Where("name = ?", name).
		Where("billing_interval = ?", interval)
	if installments == nil || *installments <= 1 {
		query = query.Where("installments IS NULL OR installments = 1")
	} else {
		query = query.Where("installments = ?", *installments)
	}

	var p Plan
	result := query.First(&p)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return &p, nil
}

// Create inserts a new plan row, minting an ID if the caller didn't
func (m *Manager) Create(ctx context.Context, p *Plan) error {
	if len(p.ID) == 0 {
		p.ID = shortuuid.New()
	}
	result := m.db.WithContext(ctx).Create(p)
	if result.Error != nil {
		m.logger.Error("Unable to create new plan in database",
			zap.String("PlanName", p.Name),
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot create plan")
	}
	return nil
}

// CreatePending records the intent to mirror a plan row on Stripe before
// the provider call is made. The row stays inactive until Confirm.
func (m *Manager) CreatePending(ctx context.Context, p *Plan) error {
	p.SyncState = SyncPending
	p.IsActive = false
	p.StripePriceID = ""
	return m.Create(ctx, p)
}

// Confirm marks a pending row as mirrored, attaching the Stripe price ID
// and activating the plan
func (m *Manager) Confirm(ctx context.Context, id string, stripePriceID string) error {
	result := m.db.WithContext(ctx).
		Model(&Plan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_price_id": stripePriceID,
			"sync_state":      SyncConfirmed,
			"is_active":       true,
		})
	if result.Error != nil {
		m.logger.Error("Unable to confirm plan in database",
			zap.String("PlanID", id),
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot confirm plan")
	}
	if result.RowsAffected == 0 {
		return extErrors.Errorf("no plan row with id %s to confirm", id)
	}
	return nil
}

// UpdatePrice mutates the stored price of an existing plan row. The
// Stripe price is immutable, so callers are expected to create a
// replacement Price on the provider separately; this only updates the
// local mirror.
func (m *Manager) UpdatePrice(ctx context.Context, name string, interval BillingInterval, installments *int64, price decimal.Decimal) (*Plan, error) {
	existing, err := m.FindByNaturalKey(ctx, name, interval, installments)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, extErrors.Errorf("no plan named %q with interval %s to update", name, interval)
	}
	result := m.db.WithContext(ctx).
		Model(&Plan{}).
		Where("id = ?", existing.ID).
		Update("price", price)
	if result.Error != nil {
		m.logger.Error("Unable to update plan price in database",
			zap.String("PlanName", name),
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot update plan price")
	}
	existing.Price = price
	return existing, nil
}

// ListActive returns the active plan rows, base plans first
func (m *Manager) ListActive(ctx context.Context) ([]Plan, error) {
	results := make([]Plan, 0, 8)
	result := m.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc, billing_interval asc, installments asc").
		Find(&results)
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return results, nil
}
