package repository

import (
	"context"

	"gorm.io/gorm"

	pkgerrors "unilife/backend/pkg/errors"
)

// ErrStockNotEnough 扣减库存时库存不足
var ErrStockNotEnough = pkgerrors.ErrStockNotEnough

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	University     UniversityRepository
	InviteCode     InviteCodeRepository
	Venue          VenueRepository
	Course         CourseRepository
	Enrollment     EnrollmentRepository
	Timetable      TimetableRepository
	Vendor         VendorRepository
	FoodItem       FoodItemRepository
	FoodOrder      FoodOrderRepository
	Shop           ShopRepository
	ShopItem       ShopItemRepository
	ShopOrder      ShopOrderRepository
	LaundryService LaundryServiceRepository
	LaundryOrder   LaundryOrderRepository
	DeliveryAgent  DeliveryAgentRepository
	Delivery       DeliveryRepository
	Trip           TripRepository
	Notification   NotificationRepository
	Platform       PlatformRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		University:     NewUniversityRepo(db),
		InviteCode:     NewInviteCodeRepo(db),
		Venue:          NewVenueRepo(db),
		Course:         NewCourseRepo(db),
		Enrollment:     NewEnrollmentRepo(db),
		Timetable:      NewTimetableRepo(db),
		Vendor:         NewVendorRepo(db),
		FoodItem:       NewFoodItemRepo(db),
		FoodOrder:      NewFoodOrderRepo(db),
		Shop:           NewShopRepo(db),
		ShopItem:       NewShopItemRepo(db),
		ShopOrder:      NewShopOrderRepo(db),
		LaundryService: NewLaundryServiceRepo(db),
		LaundryOrder:   NewLaundryOrderRepo(db),
		DeliveryAgent:  NewDeliveryAgentRepo(db),
		Delivery:       NewDeliveryRepo(db),
		Trip:           NewTripRepo(db),
		Notification:   NewNotificationRepo(db),
		Platform:       NewPlatformRepo(db),
	}
}

// BeginTx 开启事务；单元测试中未注入数据库时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在单个事务中执行 fn，fn 返回错误或 panic 时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// updateVersioned 带乐观锁的字段更新：version 不匹配时返回 ErrOptimisticLock
func updateVersioned(ctx context.Context, db *gorm.DB, mdl interface{}, pkColumn, id string, version int, fields map[string]interface{}) error {
	fields["version"] = version + 1
	result := db.WithContext(ctx).
		Model(mdl).
		Where(pkColumn+" = ? AND version = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// softDelete 软删除并记录删除人
func softDelete(ctx context.Context, db *gorm.DB, mdl interface{}, pkColumn, id, deletedBy string) error {
	result := db.WithContext(ctx).
		Model(mdl).
		Where(pkColumn+" = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// likePattern 构造 ILIKE 模糊匹配模式
func likePattern(keyword string) string {
	return "%" + keyword + "%"
}
