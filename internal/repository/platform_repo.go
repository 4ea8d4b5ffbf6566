package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unilife/backend/internal/model"
)

// PlatformRepository 平台配置与统计快照数据访问接口
type PlatformRepository interface {
	// GetSettings 读取单行配置，不存在时按默认值创建
	GetSettings(ctx context.Context) (*model.PlatformSettings, error)
	UpdateSettings(ctx context.Context, s *model.PlatformSettings) error
	CreateSnapshot(ctx context.Context, stats *model.PlatformStats) error
	ListSnapshots(ctx context.Context, limit int) ([]model.PlatformStats, error)
}

type platformRepo struct {
	db *gorm.DB
}

// NewPlatformRepo 创建 PlatformRepository 实例
func NewPlatformRepo(db *gorm.DB) PlatformRepository {
	return &platformRepo{db: db}
}

func (r *platformRepo) GetSettings(ctx context.Context) (*model.PlatformSettings, error) {
	s := model.PlatformSettings{Singleton: true}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&s).Error
	if err != nil {
		return nil, err
	}

	var out model.PlatformSettings
	if err := r.db.WithContext(ctx).Where("singleton = ?", true).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *platformRepo) UpdateSettings(ctx context.Context, s *model.PlatformSettings) error {
	return r.db.WithContext(ctx).
		Model(&model.PlatformSettings{}).
		Where("singleton = ?", true).
		Updates(map[string]interface{}{
			"service_fee_bps":            s.ServiceFeeBps,
			"max_active_deliveries":      s.MaxActiveDeliveries,
			"default_delivery_fee_minor": s.DefaultDeliveryFeeMinor,
			"laundry_min_weight_kg":      s.LaundryMinWeightKg,
			"updated_by":                 s.UpdatedBy,
			"updated_at":                 time.Now(),
		}).Error
}

func (r *platformRepo) CreateSnapshot(ctx context.Context, stats *model.PlatformStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

func (r *platformRepo) ListSnapshots(ctx context.Context, limit int) ([]model.PlatformStats, error) {
	var list []model.PlatformStats
	err := r.db.WithContext(ctx).Order("captured_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
