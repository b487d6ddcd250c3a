package repository

import (
	"errors"
	"time"

	experienceModel "experience_booking/internal/domain/experience/model"
	"experience_booking/internal/domain/order/model"

	"gorm.io/gorm"
)

// ErrNotEnoughSlots 条件扣减库存未命中任何行
var ErrNotEnoughSlots = errors.New("not enough slots available")

// OrderRepository 接口定义
type OrderRepository interface {
	FindOverlapping(userID, packageID string, start, end time.Time) (*model.Order, error)
	CreateWithSlotReservation(order *model.Order) error
	ListByUser(userID string) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// FindOverlapping 查找同一 (用户, 套餐) 下与 [start, end] 相交的已有预订
// 闭区间比较：边界相接也算冲突，避免同一天背靠背的重复预订
// 第三个子句（已有区间被新区间完全包含）与前两个有重叠，保留是刻意的——
// 这是对边界语义的显式声明，改动前应与业务方确认
func (r *orderRepository) FindOverlapping(userID, packageID string, start, end time.Time) (*model.Order, error) {
	var order model.Order
	err := r.db.
		Where("user_id = ? AND package_id = ?", userID, packageID).
		Where(
			r.db.Where("start <= ? AND \"end\" >= ?", start, start).
				Or("start <= ? AND \"end\" >= ?", end, end).
				Or("start >= ? AND \"end\" <= ?", start, end),
		).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CreateWithSlotReservation 在一个事务中完成条件扣减库存 + 创建订单
// 扣减带 available_slots >= ? 守卫：并发下两个请求同时读到足够库存时，
// 只有先提交的扣减生效，后者零行命中并整体回滚，套餐不会超卖
func (r *orderRepository) CreateWithSlotReservation(order *model.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&experienceModel.Package{}).
			Where("id = ? AND available_slots >= ?", order.PackageID, order.NumberOfPeople).
			UpdateColumn("available_slots", gorm.Expr("available_slots - ?", order.NumberOfPeople))

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotEnoughSlots
		}

		return tx.Create(order).Error
	})
}

// ListByUser 获取用户全部订单（按出发时间倒序，带套餐摘要）
func (r *orderRepository) ListByUser(userID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Preload("Package", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "description", "location", "price", "duration", "thumbnail_images")
		}).
		Where("user_id = ?", userID).
		Order("start DESC").
		Find(&orders).Error
	return orders, err
}
