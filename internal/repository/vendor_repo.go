package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// VendorFilter 商家列表筛选条件
type VendorFilter struct {
	UniversityID string
	Keyword      string
	OpenOnly     bool
}

// VendorRepository 餐饮商家数据访问接口
type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	GetByID(ctx context.Context, id string) (*model.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*model.Vendor, error)
	List(ctx context.Context, filter VendorFilter) ([]model.Vendor, error)
	Update(ctx context.Context, vendor *model.Vendor) error
	Count(ctx context.Context) (int64, error)
}

type vendorRepo struct {
	db *gorm.DB
}

// NewVendorRepo 创建 VendorRepository 实例
func NewVendorRepo(db *gorm.DB) VendorRepository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *vendorRepo) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	var vendor model.Vendor
	err := r.db.WithContext(ctx).Where("vendor_id = ?", id).First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepo) GetByUserID(ctx context.Context, userID string) (*model.Vendor, error) {
	var vendor model.Vendor
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepo) List(ctx context.Context, filter VendorFilter) ([]model.Vendor, error) {
	var vendors []model.Vendor
	db := r.db.WithContext(ctx)

	if filter.UniversityID != "" {
		db = db.Where("university_id = ?", filter.UniversityID)
	}
	if filter.OpenOnly {
		db = db.Where("is_open = ?", true)
	}
	if filter.Keyword != "" {
		kw := likePattern(filter.Keyword)
		db = db.Where("business_name ILIKE ? OR description ILIKE ?", kw, kw)
	}

	err := db.Order("business_name ASC").Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) Update(ctx context.Context, vendor *model.Vendor) error {
	err := updateVersioned(ctx, r.db, &model.Vendor{}, "vendor_id", vendor.VendorID, vendor.Version, map[string]interface{}{
		"business_name":      vendor.BusinessName,
		"description":        vendor.Description,
		"location":           vendor.Location,
		"phone":              vendor.Phone,
		"is_open":            vendor.IsOpen,
		"delivery_fee_minor": vendor.DeliveryFeeMinor,
		"updated_by":         vendor.UpdatedBy,
		"updated_at":         time.Now(),
	})
	if err != nil {
		return err
	}
	vendor.Version++
	return nil
}

func (r *vendorRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Vendor{}).Count(&n).Error
	return n, err
}
