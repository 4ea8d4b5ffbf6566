package repository

import (
	"context"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// ShopOrderRepository 商城订单数据访问接口
type ShopOrderRepository interface {
	// Create 写入订单及明细；库存扣减由调用方在同一事务内完成
	Create(ctx context.Context, order *model.ShopOrder) error
	GetByID(ctx context.Context, id string) (*model.ShopOrder, error)
	List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.ShopOrder, int64, error)
	UpdateStatus(ctx context.Context, order *model.ShopOrder) error
	Stats(ctx context.Context) (*OrderStats, error)
}

type shopOrderRepo struct {
	db *gorm.DB
}

// NewShopOrderRepo 创建 ShopOrderRepository 实例
func NewShopOrderRepo(db *gorm.DB) ShopOrderRepository {
	return &shopOrderRepo{db: db}
}

func (r *shopOrderRepo) Create(ctx context.Context, order *model.ShopOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		defer func() { order.Items = items }()
		if err := tx.Omit("Shop").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ShopOrderID = order.ShopOrderID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *shopOrderRepo) GetByID(ctx context.Context, id string) (*model.ShopOrder, error) {
	var order model.ShopOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shop").
		Where("shop_order_id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *shopOrderRepo) List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.ShopOrder, int64, error) {
	var orders []model.ShopOrder
	var total int64

	db := applyOrderFilter(r.db.WithContext(ctx).Model(&model.ShopOrder{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Items").
		Preload("Shop").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *shopOrderRepo) UpdateStatus(ctx context.Context, order *model.ShopOrder) error {
	fields := statusFields(order.Status, order.OrderTimestamps, order.UpdatedBy)
	if err := updateVersioned(ctx, r.db, &model.ShopOrder{}, "shop_order_id", order.ShopOrderID, order.Version, fields); err != nil {
		return err
	}
	order.Version++
	return nil
}

func (r *shopOrderRepo) Stats(ctx context.Context) (*OrderStats, error) {
	return orderStats(r.db.WithContext(ctx), &model.ShopOrder{})
}
