package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// UniversityRepository 高校数据访问接口
type UniversityRepository interface {
	Create(ctx context.Context, uni *model.University) error
	GetByID(ctx context.Context, id string) (*model.University, error)
	GetByName(ctx context.Context, name string) (*model.University, error)
	List(ctx context.Context, includeInactive bool) ([]model.University, error)
	Update(ctx context.Context, uni *model.University) error
	Delete(ctx context.Context, id string, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type universityRepo struct {
	db *gorm.DB
}

// NewUniversityRepo 创建 UniversityRepository 实例
func NewUniversityRepo(db *gorm.DB) UniversityRepository {
	return &universityRepo{db: db}
}

func (r *universityRepo) Create(ctx context.Context, uni *model.University) error {
	return r.db.WithContext(ctx).Create(uni).Error
}

func (r *universityRepo) GetByID(ctx context.Context, id string) (*model.University, error) {
	var uni model.University
	err := r.db.WithContext(ctx).
		Where("university_id = ?", id).
		First(&uni).Error
	if err != nil {
		return nil, err
	}
	return &uni, nil
}

// GetByName 名称大小写不敏感
func (r *universityRepo) GetByName(ctx context.Context, name string) (*model.University, error) {
	var uni model.University
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&uni).Error
	if err != nil {
		return nil, err
	}
	return &uni, nil
}

func (r *universityRepo) List(ctx context.Context, includeInactive bool) ([]model.University, error) {
	var unis []model.University
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&unis).Error
	return unis, err
}

func (r *universityRepo) Update(ctx context.Context, uni *model.University) error {
	err := updateVersioned(ctx, r.db, &model.University{}, "university_id", uni.UniversityID, uni.Version, map[string]interface{}{
		"name":         uni.Name,
		"short_name":   uni.ShortName,
		"city":         uni.City,
		"email_domain": uni.EmailDomain,
		"is_active":    uni.IsActive,
		"updated_by":   uni.UpdatedBy,
		"updated_at":   time.Now(),
	})
	if err != nil {
		return err
	}
	uni.Version++
	return nil
}

func (r *universityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.University{}, "university_id", id, deletedBy)
}

func (r *universityRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.University{}).Count(&n).Error
	return n, err
}
