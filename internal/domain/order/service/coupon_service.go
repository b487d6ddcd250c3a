package service

import (
	"errors"
	"time"

	"experience_booking/internal/domain/order/model"
	"experience_booking/internal/domain/order/repository"

	"gorm.io/gorm"
)

// 折扣码校验错误
var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponNotYetValid = errors.New("coupon not yet valid")
	ErrCouponExpired     = errors.New("coupon has expired")
)

// CouponService 折扣码服务接口
type CouponService interface {
	// Validate 校验 (套餐, 折扣码) 并返回折扣百分比
	// 对 now 是纯函数：有效窗口为 validFrom <= now <= validUntil（闭区间）
	Validate(packageID, code string, now time.Time) (int, error)
	ListActive(packageID string, now time.Time) ([]model.Coupon, error)
	CreateCoupon(packageID, code string, discountPercentage int, validFrom, validUntil time.Time) (*model.Coupon, error)
}

type couponService struct {
	repo repository.CouponRepository
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{repo: repo}
}

func (s *couponService) Validate(packageID, code string, now time.Time) (int, error) {
	coupon, err := s.repo.FindByPackageAndCode(packageID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCouponNotFound
		}
		return 0, err
	}

	if now.Before(coupon.ValidFrom) {
		return 0, ErrCouponNotYetValid
	}
	if now.After(coupon.ValidUntil) {
		return 0, ErrCouponExpired
	}

	// 百分比原样返回，不做任何舍入
	return coupon.DiscountPercentage, nil
}

func (s *couponService) ListActive(packageID string, now time.Time) ([]model.Coupon, error) {
	return s.repo.ListActive(packageID, now)
}

func (s *couponService) CreateCoupon(packageID, code string, discountPercentage int, validFrom, validUntil time.Time) (*model.Coupon, error) {
	coupon := &model.Coupon{
		PackageID:          packageID,
		Code:               code,
		DiscountPercentage: discountPercentage,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}
