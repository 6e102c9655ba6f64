package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/lithammer/shortuuid/v3"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager handles the database operations relating to coupons
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager returns a new Manager for coupons
func NewManager(logger *zap.Logger, db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Coupon{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize coupon.Manager")
	}
	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// FindByCode looks up a coupon by its code. Returns (nil, nil) when no
// row exists.
func (m *Manager) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	result := m.db.WithContext(ctx).Where("code = ?", code).First(&c)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return &c, nil
}

// Seed validates and inserts the given coupons, skipping codes that
// already exist. Each coupon is processed independently: a failure is
// logged and the batch continues.
func (m *Manager) Seed(ctx context.Context, coupons []Coupon) error {
	var failed int
	for _, c := range coupons {
		c := c
		if err := m.seedOne(ctx, &c); err != nil {
			m.logger.Error("Cannot seed coupon",
				zap.String("Code", c.Code),
				zap.Error(err),
			)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d coupons failed to seed", failed, len(coupons))
	}
	return nil
}

func (m *Manager) seedOne(ctx context.Context, c *Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	existing, err := m.FindByCode(ctx, c.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		m.logger.Info("Coupon already present, skipping",
			zap.String("Code", c.Code),
		)
		fmt.Printf("= %s: already present, skipped\n", c.Code)
		return nil
	}
	if len(c.ID) == 0 {
		c.ID = shortuuid.New()
	}
	result := m.db.WithContext(ctx).Create(c)
	if result.Error != nil {
		return extErrors.Wrap(result.Error, "Cannot create coupon")
	}
	fmt.Printf("+ %s: created\n", c.Code)
	return nil
}
