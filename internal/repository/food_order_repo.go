package repository

import (
	"context"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// FoodOrderRepository 餐饮订单数据访问接口
type FoodOrderRepository interface {
	// Create 订单与明细在同一事务中写入
	Create(ctx context.Context, order *model.FoodOrder) error
	GetByID(ctx context.Context, id string) (*model.FoodOrder, error)
	List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.FoodOrder, int64, error)
	// UpdateStatus 乐观锁更新状态与时间戳
	UpdateStatus(ctx context.Context, order *model.FoodOrder) error
	Stats(ctx context.Context) (*OrderStats, error)
}

type foodOrderRepo struct {
	db *gorm.DB
}

// NewFoodOrderRepo 创建 FoodOrderRepository 实例
func NewFoodOrderRepo(db *gorm.DB) FoodOrderRepository {
	return &foodOrderRepo{db: db}
}

func (r *foodOrderRepo) Create(ctx context.Context, order *model.FoodOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 明细单独插入；无论成败都把明细还给调用方
		items := order.Items
		order.Items = nil
		defer func() { order.Items = items }()
		if err := tx.Omit("Vendor", "Student").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].FoodOrderID = order.FoodOrderID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *foodOrderRepo) GetByID(ctx context.Context, id string) (*model.FoodOrder, error) {
	var order model.FoodOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Vendor").
		Where("food_order_id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *foodOrderRepo) List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.FoodOrder, int64, error) {
	var orders []model.FoodOrder
	var total int64

	db := applyOrderFilter(r.db.WithContext(ctx).Model(&model.FoodOrder{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Items").
		Preload("Vendor").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *foodOrderRepo) UpdateStatus(ctx context.Context, order *model.FoodOrder) error {
	fields := statusFields(order.Status, order.OrderTimestamps, order.UpdatedBy)
	if err := updateVersioned(ctx, r.db, &model.FoodOrder{}, "food_order_id", order.FoodOrderID, order.Version, fields); err != nil {
		return err
	}
	order.Version++
	return nil
}

func (r *foodOrderRepo) Stats(ctx context.Context) (*OrderStats, error) {
	return orderStats(r.db.WithContext(ctx), &model.FoodOrder{})
}
