package service

import (
	"errors"
	"testing"
	"time"

	"experience_booking/internal/domain/order/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// MockCouponRepository is a mock of CouponRepository
type MockCouponRepository struct {
	couponByKey map[string]*model.Coupon
	err         error
}

func (m *MockCouponRepository) Create(coupon *model.Coupon) error {
	return m.err
}

func (m *MockCouponRepository) FindByPackageAndCode(packageID, code string) (*model.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	coupon, ok := m.couponByKey[packageID+"/"+code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coupon, nil
}

func (m *MockCouponRepository) ListActive(packageID string, now time.Time) ([]model.Coupon, error) {
	return nil, m.err
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	newService := func(coupon *model.Coupon) CouponService {
		repo := &MockCouponRepository{couponByKey: map[string]*model.Coupon{}}
		if coupon != nil {
			repo.couponByKey[coupon.PackageID+"/"+coupon.Code] = coupon
		}
		return NewCouponService(repo)
	}

	t.Run("Valid coupon returns percentage unmodified", func(t *testing.T) {
		svc := newService(&model.Coupon{
			PackageID:          "pkg-1",
			Code:               "SAVE15",
			DiscountPercentage: 15,
			ValidFrom:          now.AddDate(0, 0, -1),
			ValidUntil:         now.AddDate(0, 0, 1),
		})

		pct, err := svc.Validate("pkg-1", "SAVE15", now)

		assert.NoError(t, err)
		assert.Equal(t, 15, pct)
	})

	t.Run("Coupon not found", func(t *testing.T) {
		svc := newService(nil)

		_, err := svc.Validate("pkg-1", "NOPE", now)

		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("Coupon scoped to its package", func(t *testing.T) {
		svc := newService(&model.Coupon{
			PackageID:          "pkg-1",
			Code:               "SAVE15",
			DiscountPercentage: 15,
			ValidFrom:          now.AddDate(0, 0, -1),
			ValidUntil:         now.AddDate(0, 0, 1),
		})

		_, err := svc.Validate("pkg-2", "SAVE15", now)

		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("Coupon not yet valid", func(t *testing.T) {
		svc := newService(&model.Coupon{
			PackageID:  "pkg-1",
			Code:       "FUTURE",
			ValidFrom:  now.AddDate(0, 0, 1),
			ValidUntil: now.AddDate(0, 0, 10),
		})

		_, err := svc.Validate("pkg-1", "FUTURE", now)

		assert.ErrorIs(t, err, ErrCouponNotYetValid)
	})

	t.Run("Coupon expired", func(t *testing.T) {
		svc := newService(&model.Coupon{
			PackageID:  "pkg-1",
			Code:       "OLD",
			ValidFrom:  now.AddDate(0, 0, -10),
			ValidUntil: now.AddDate(0, 0, -1),
		})

		_, err := svc.Validate("pkg-1", "OLD", now)

		assert.ErrorIs(t, err, ErrCouponExpired)
	})

	t.Run("Validity window boundaries are inclusive", func(t *testing.T) {
		svc := newService(&model.Coupon{
			PackageID:          "pkg-1",
			Code:               "EDGE",
			DiscountPercentage: 20,
			ValidFrom:          now,
			ValidUntil:         now,
		})

		pct, err := svc.Validate("pkg-1", "EDGE", now)

		assert.NoError(t, err)
		assert.Equal(t, 20, pct)
	})

	t.Run("Repository error propagates", func(t *testing.T) {
		repo := &MockCouponRepository{err: errors.New("db down")}
		svc := NewCouponService(repo)

		_, err := svc.Validate("pkg-1", "ANY", now)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCouponNotFound)
	})
}
