package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// ShopFilter 店铺列表筛选条件
type ShopFilter struct {
	UniversityID string
	OwnerID      string
	Category     string
	Keyword      string
	OpenOnly     bool
}

// ShopRepository 店铺数据访问接口
type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	GetByID(ctx context.Context, id string) (*model.Shop, error)
	List(ctx context.Context, filter ShopFilter, offset, limit int) ([]model.Shop, int64, error)
	Update(ctx context.Context, shop *model.Shop) error
	Delete(ctx context.Context, id string, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type shopRepo struct {
	db *gorm.DB
}

// NewShopRepo 创建 ShopRepository 实例
func NewShopRepo(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) Create(ctx context.Context, shop *model.Shop) error {
	return r.db.WithContext(ctx).Omit("Items").Create(shop).Error
}

func (r *shopRepo) GetByID(ctx context.Context, id string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).Where("shop_id = ?", id).First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) List(ctx context.Context, filter ShopFilter, offset, limit int) ([]model.Shop, int64, error) {
	var shops []model.Shop
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Shop{})
	if filter.UniversityID != "" {
		db = db.Where("university_id = ?", filter.UniversityID)
	}
	if filter.OwnerID != "" {
		db = db.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.OpenOnly {
		db = db.Where("is_open = ?", true)
	}
	if filter.Keyword != "" {
		kw := likePattern(filter.Keyword)
		db = db.Where("name ILIKE ? OR description ILIKE ?", kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("name ASC").Find(&shops).Error; err != nil {
		return nil, 0, err
	}
	return shops, total, nil
}

func (r *shopRepo) Update(ctx context.Context, shop *model.Shop) error {
	err := updateVersioned(ctx, r.db, &model.Shop{}, "shop_id", shop.ShopID, shop.Version, map[string]interface{}{
		"name":        shop.Name,
		"description": shop.Description,
		"category":    shop.Category,
		"is_open":     shop.IsOpen,
		"updated_by":  shop.UpdatedBy,
		"updated_at":  time.Now(),
	})
	if err != nil {
		return err
	}
	shop.Version++
	return nil
}

func (r *shopRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Shop{}, "shop_id", id, deletedBy)
}

func (r *shopRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Shop{}).Count(&n).Error
	return n, err
}
