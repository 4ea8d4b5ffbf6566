package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// LaundryServiceRepository 洗衣服务数据访问接口
type LaundryServiceRepository interface {
	Create(ctx context.Context, svc *model.LaundryService) error
	GetByID(ctx context.Context, id string) (*model.LaundryService, error)
	List(ctx context.Context, universityID, ownerID string, activeOnly bool) ([]model.LaundryService, error)
	Update(ctx context.Context, svc *model.LaundryService) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type laundryServiceRepo struct {
	db *gorm.DB
}

// NewLaundryServiceRepo 创建 LaundryServiceRepository 实例
func NewLaundryServiceRepo(db *gorm.DB) LaundryServiceRepository {
	return &laundryServiceRepo{db: db}
}

func (r *laundryServiceRepo) Create(ctx context.Context, svc *model.LaundryService) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *laundryServiceRepo) GetByID(ctx context.Context, id string) (*model.LaundryService, error) {
	var svc model.LaundryService
	err := r.db.WithContext(ctx).Where("laundry_service_id = ?", id).First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *laundryServiceRepo) List(ctx context.Context, universityID, ownerID string, activeOnly bool) ([]model.LaundryService, error) {
	var list []model.LaundryService
	db := r.db.WithContext(ctx)
	if universityID != "" {
		db = db.Where("university_id = ?", universityID)
	}
	if ownerID != "" {
		db = db.Where("owner_id = ?", ownerID)
	}
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *laundryServiceRepo) Update(ctx context.Context, svc *model.LaundryService) error {
	err := updateVersioned(ctx, r.db, &model.LaundryService{}, "laundry_service_id", svc.LaundryServiceID, svc.Version, map[string]interface{}{
		"name":               svc.Name,
		"description":        svc.Description,
		"price_per_kg_minor": svc.PricePerKgMinor,
		"turnaround_hours":   svc.TurnaroundHours,
		"is_active":          svc.IsActive,
		"updated_by":         svc.UpdatedBy,
		"updated_at":         time.Now(),
	})
	if err != nil {
		return err
	}
	svc.Version++
	return nil
}

func (r *laundryServiceRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.LaundryService{}, "laundry_service_id", id, deletedBy)
}

// LaundryOrderRepository 洗衣订单数据访问接口
type LaundryOrderRepository interface {
	Create(ctx context.Context, order *model.LaundryOrder) error
	GetByID(ctx context.Context, id string) (*model.LaundryOrder, error)
	List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.LaundryOrder, int64, error)
	// ListByOwner 商家名下全部洗衣服务的订单
	ListByOwner(ctx context.Context, ownerID, status string, offset, limit int) ([]model.LaundryOrder, int64, error)
	UpdateStatus(ctx context.Context, order *model.LaundryOrder) error
	Stats(ctx context.Context) (*OrderStats, error)
}

type laundryOrderRepo struct {
	db *gorm.DB
}

// NewLaundryOrderRepo 创建 LaundryOrderRepository 实例
func NewLaundryOrderRepo(db *gorm.DB) LaundryOrderRepository {
	return &laundryOrderRepo{db: db}
}

func (r *laundryOrderRepo) Create(ctx context.Context, order *model.LaundryOrder) error {
	return r.db.WithContext(ctx).Omit("Service").Create(order).Error
}

func (r *laundryOrderRepo) GetByID(ctx context.Context, id string) (*model.LaundryOrder, error) {
	var order model.LaundryOrder
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("laundry_order_id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *laundryOrderRepo) List(ctx context.Context, filter OrderFilter, offset, limit int) ([]model.LaundryOrder, int64, error) {
	db := applyOrderFilter(r.db.WithContext(ctx).Model(&model.LaundryOrder{}), filter)
	return r.page(db, offset, limit)
}

func (r *laundryOrderRepo) ListByOwner(ctx context.Context, ownerID, status string, offset, limit int) ([]model.LaundryOrder, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.LaundryOrder{}).
		Where("service_id IN (?)",
			r.db.Model(&model.LaundryService{}).Select("laundry_service_id").Where("owner_id = ?", ownerID))
	if status != "" {
		db = db.Where("status = ?", status)
	}
	return r.page(db, offset, limit)
}

func (r *laundryOrderRepo) page(db *gorm.DB, offset, limit int) ([]model.LaundryOrder, int64, error) {
	var orders []model.LaundryOrder
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Service").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *laundryOrderRepo) UpdateStatus(ctx context.Context, order *model.LaundryOrder) error {
	fields := statusFields(order.Status, order.OrderTimestamps, order.UpdatedBy)
	fields["estimated_ready_at"] = order.EstimatedReadyAt
	if err := updateVersioned(ctx, r.db, &model.LaundryOrder{}, "laundry_order_id", order.LaundryOrderID, order.Version, fields); err != nil {
		return err
	}
	order.Version++
	return nil
}

func (r *laundryOrderRepo) Stats(ctx context.Context) (*OrderStats, error) {
	return orderStats(r.db.WithContext(ctx), &model.LaundryOrder{})
}
