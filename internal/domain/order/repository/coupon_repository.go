package repository

import (
	"time"

	"experience_booking/internal/domain/order/model"

	"gorm.io/gorm"
)

// CouponRepository 接口定义
type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindByPackageAndCode(packageID, code string) (*model.Coupon, error)
	ListActive(packageID string, now time.Time) ([]model.Coupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

// FindByPackageAndCode 按 (套餐, 折扣码) 定位唯一一条记录
func (r *couponRepository) FindByPackageAndCode(packageID, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("package_id = ? AND code = ?", packageID, code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListActive 列出套餐下未过期的折扣码（valid_until >= now；尚未生效的也会列出）
func (r *couponRepository) ListActive(packageID string, now time.Time) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.
		Where("package_id = ? AND valid_until >= ?", packageID, now).
		Find(&coupons).Error
	return coupons, err
}
