package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// ShopItemRepository 店铺商品数据访问接口
type ShopItemRepository interface {
	Create(ctx context.Context, item *model.ShopItem) error
	GetByID(ctx context.Context, id string) (*model.ShopItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.ShopItem, error)
	ListByShop(ctx context.Context, shopID string, activeOnly bool) ([]model.ShopItem, error)
	Update(ctx context.Context, item *model.ShopItem) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// DecrementStock 条件扣减库存，库存不足返回 ErrStockNotEnough
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
}

type shopItemRepo struct {
	db *gorm.DB
}

// NewShopItemRepo 创建 ShopItemRepository 实例
func NewShopItemRepo(db *gorm.DB) ShopItemRepository {
	return &shopItemRepo{db: db}
}

func (r *shopItemRepo) Create(ctx context.Context, item *model.ShopItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *shopItemRepo) GetByID(ctx context.Context, id string) (*model.ShopItem, error) {
	var item model.ShopItem
	err := r.db.WithContext(ctx).Where("shop_item_id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *shopItemRepo) GetByIDs(ctx context.Context, ids []string) ([]model.ShopItem, error) {
	var items []model.ShopItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("shop_item_id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *shopItemRepo) ListByShop(ctx context.Context, shopID string, activeOnly bool) ([]model.ShopItem, error) {
	var items []model.ShopItem
	db := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *shopItemRepo) Update(ctx context.Context, item *model.ShopItem) error {
	err := updateVersioned(ctx, r.db, &model.ShopItem{}, "shop_item_id", item.ShopItemID, item.Version, map[string]interface{}{
		"name":        item.Name,
		"description": item.Description,
		"price_minor": item.PriceMinor,
		"stock":       item.Stock,
		"is_active":   item.IsActive,
		"updated_by":  item.UpdatedBy,
		"updated_at":  time.Now(),
	})
	if err != nil {
		return err
	}
	item.Version++
	return nil
}

func (r *shopItemRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.ShopItem{}, "shop_item_id", id, deletedBy)
}

func (r *shopItemRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShopItem{}).
		Where("shop_item_id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockNotEnough
	}
	return nil
}

func (r *shopItemRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	return r.db.WithContext(ctx).
		Model(&model.ShopItem{}).
		Where("shop_item_id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
}
