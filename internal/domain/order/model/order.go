package model

import (
	"time"

	experienceModel "experience_booking/internal/domain/experience/model"
	baseModel "experience_booking/pkg/model"

	"github.com/shopspring/decimal"
)

// Coupon 套餐级限时折扣码
// code 只在所属套餐内唯一，(package_id, code) 上有复合唯一索引
type Coupon struct {
	baseModel.BaseModel
	PackageID          string    `gorm:"type:uuid;uniqueIndex:idx_coupons_package_code;not null" json:"packageId"`
	Code               string    `gorm:"uniqueIndex:idx_coupons_package_code;not null" json:"code"`
	DiscountPercentage int       `gorm:"not null" json:"discountPercentage"` // 0-100
	ValidFrom          time.Time `gorm:"not null" json:"validFrom"`
	ValidUntil         time.Time `gorm:"not null" json:"validUntil"`
}

// Order 一次确认的预订：为某个用户在 [start, end] 区间锁定 N 个名额
// 创建后不再修改（取消/退款不在当前业务范围内）
type Order struct {
	baseModel.BaseModel
	PackageID      string          `gorm:"type:uuid;index:idx_orders_user_package;not null" json:"packageId"`
	UserID         string          `gorm:"type:uuid;index:idx_orders_user_package,priority:1;not null" json:"userId"`
	Start          time.Time       `gorm:"not null" json:"start"`
	End            time.Time       `gorm:"not null" json:"end"`
	NumberOfPeople int             `gorm:"not null" json:"numberOfPeople"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"` // 折前总价
	YourPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"yourPrice"`  // 折后应付
	Status         string          `gorm:"type:varchar(16);default:'confirmed'" json:"status"`
	PaymentMethod  string          `gorm:"type:varchar(32)" json:"paymentMethod"`
	Completed      bool            `gorm:"default:false" json:"completed"`

	Package *experienceModel.Package `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

const (
	OrderStatusConfirmed = "confirmed"

	// 未指定支付方式时记录的默认值
	PaymentMethodOnline = "online"
)
