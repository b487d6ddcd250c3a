package model

import (
	baseModel "experience_booking/pkg/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Package 体验/套餐模型
// AvailableSlots 是唯一的库存计数，只会被确认成功的预订扣减，永不为负
type Package struct {
	baseModel.BaseModel
	Title                 string          `gorm:"not null" json:"title"`
	Description           string          `gorm:"type:text" json:"description"`
	Price                 decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"` // 单人价格
	Location              string          `json:"location"`
	Duration              int             `gorm:"not null;default:1" json:"duration"` // 行程天数
	AvailableSlots        int             `gorm:"not null;default:0" json:"availableSlots"`
	Itinerary             string          `gorm:"type:text" json:"itinerary"`
	Inclusions            string          `gorm:"type:text" json:"inclusions"`
	Exclusions            string          `gorm:"type:text" json:"exclusions"`
	ThumbnailImages       pq.StringArray  `gorm:"type:text[]" json:"thumbnailImages"`
	PreferedPaymentMethod pq.StringArray  `gorm:"type:text[]" json:"preferedPaymentMethod"`

	Reviews []Review `gorm:"foreignKey:PackageID" json:"reviews,omitempty"`
}

// Review 体验评价，只随套餐一起读出，没有独立的写入口
type Review struct {
	baseModel.BaseModel
	PackageID string `gorm:"type:uuid;index;not null" json:"packageId"`
	UserID    string `gorm:"type:uuid;not null" json:"userId"`
	Rating    int    `gorm:"not null" json:"rating"` // 1-5
	Comment   string `gorm:"type:text" json:"comment"`
}
