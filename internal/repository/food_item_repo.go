package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// FoodItemRepository 菜品数据访问接口
type FoodItemRepository interface {
	Create(ctx context.Context, item *model.FoodItem) error
	GetByID(ctx context.Context, id string) (*model.FoodItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.FoodItem, error)
	ListByVendor(ctx context.Context, vendorID string, availableOnly bool) ([]model.FoodItem, error)
	Update(ctx context.Context, item *model.FoodItem) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type foodItemRepo struct {
	db *gorm.DB
}

// NewFoodItemRepo 创建 FoodItemRepository 实例
func NewFoodItemRepo(db *gorm.DB) FoodItemRepository {
	return &foodItemRepo{db: db}
}

func (r *foodItemRepo) Create(ctx context.Context, item *model.FoodItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *foodItemRepo) GetByID(ctx context.Context, id string) (*model.FoodItem, error) {
	var item model.FoodItem
	err := r.db.WithContext(ctx).Where("food_item_id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *foodItemRepo) GetByIDs(ctx context.Context, ids []string) ([]model.FoodItem, error) {
	var items []model.FoodItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("food_item_id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *foodItemRepo) ListByVendor(ctx context.Context, vendorID string, availableOnly bool) ([]model.FoodItem, error) {
	var items []model.FoodItem
	db := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if availableOnly {
		db = db.Where("is_available = ?", true)
	}
	err := db.Order("category ASC, name ASC").Find(&items).Error
	return items, err
}

func (r *foodItemRepo) Update(ctx context.Context, item *model.FoodItem) error {
	err := updateVersioned(ctx, r.db, &model.FoodItem{}, "food_item_id", item.FoodItemID, item.Version, map[string]interface{}{
		"name":         item.Name,
		"description":  item.Description,
		"category":     item.Category,
		"price_minor":  item.PriceMinor,
		"image_url":    item.ImageURL,
		"is_available": item.IsAvailable,
		"updated_by":   item.UpdatedBy,
		"updated_at":   time.Now(),
	})
	if err != nil {
		return err
	}
	item.Version++
	return nil
}

func (r *foodItemRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.FoodItem{}, "food_item_id", id, deletedBy)
}
