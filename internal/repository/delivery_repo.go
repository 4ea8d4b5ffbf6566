package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unilife/backend/internal/model"
)

// DeliveryAgentRepository 骑手档案数据访问接口
type DeliveryAgentRepository interface {
	Create(ctx context.Context, agent *model.DeliveryAgent) error
	GetByUserID(ctx context.Context, userID string) (*model.DeliveryAgent, error)
	// GetByUserIDForUpdate 行锁读取，同一骑手的接单请求在事务内串行
	GetByUserIDForUpdate(ctx context.Context, userID string) (*model.DeliveryAgent, error)
	Update(ctx context.Context, agent *model.DeliveryAgent) error
	IncrementCompleted(ctx context.Context, userID string) error
}

type deliveryAgentRepo struct {
	db *gorm.DB
}

// NewDeliveryAgentRepo 创建 DeliveryAgentRepository 实例
func NewDeliveryAgentRepo(db *gorm.DB) DeliveryAgentRepository {
	return &deliveryAgentRepo{db: db}
}

func (r *deliveryAgentRepo) Create(ctx context.Context, agent *model.DeliveryAgent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *deliveryAgentRepo) GetByUserID(ctx context.Context, userID string) (*model.DeliveryAgent, error) {
	return r.first(r.db.WithContext(ctx), userID)
}

// GetByUserIDForUpdate 必须在事务连接上调用（通过 Repository.Transaction 注入）
func (r *deliveryAgentRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*model.DeliveryAgent, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *deliveryAgentRepo) first(db *gorm.DB, userID string) (*model.DeliveryAgent, error) {
	var agent model.DeliveryAgent
	if err := db.Where("user_id = ?", userID).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *deliveryAgentRepo) Update(ctx context.Context, agent *model.DeliveryAgent) error {
	err := updateVersioned(ctx, r.db, &model.DeliveryAgent{}, "agent_id", agent.AgentID, agent.Version, map[string]interface{}{
		"vehicle_type": agent.VehicleType,
		"phone":        agent.Phone,
		"is_available": agent.IsAvailable,
		"updated_by":   agent.UpdatedBy,
		"updated_at":   time.Now(),
	})
	if err != nil {
		return err
	}
	agent.Version++
	return nil
}

func (r *deliveryAgentRepo) IncrementCompleted(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.DeliveryAgent{}).
		Where("user_id = ?", userID).
		UpdateColumn("completed_count", gorm.Expr("completed_count + 1")).Error
}

// DeliveryRepository 配送单数据访问接口
type DeliveryRepository interface {
	Create(ctx context.Context, d *model.Delivery) error
	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	GetByOrder(ctx context.Context, kind, orderID string) (*model.Delivery, error)
	ListOpen(ctx context.Context, universityID string, offset, limit int) ([]model.Delivery, int64, error)
	ListByRider(ctx context.Context, riderID string, activeOnly bool) ([]model.Delivery, error)
	CountActiveByRider(ctx context.Context, riderID string) (int64, error)
	// Assign 抢单：仅当配送单仍为 pending 时成功，返回是否抢到
	Assign(ctx context.Context, deliveryID, riderID string, at time.Time) (bool, error)
	Update(ctx context.Context, d *model.Delivery) error
}

type deliveryRepo struct {
	db *gorm.DB
}

// NewDeliveryRepo 创建 DeliveryRepository 实例
func NewDeliveryRepo(db *gorm.DB) DeliveryRepository {
	return &deliveryRepo{db: db}
}

func (r *deliveryRepo) Create(ctx context.Context, d *model.Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deliveryRepo) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).Where("delivery_id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) GetByOrder(ctx context.Context, kind, orderID string) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).
		Where("order_kind = ? AND order_id = ?", kind, orderID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) ListOpen(ctx context.Context, universityID string, offset, limit int) ([]model.Delivery, int64, error) {
	var list []model.Delivery
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Delivery{}).Where("status = ?", model.DeliveryPending)
	if universityID != "" {
		db = db.Where("university_id = ?", universityID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *deliveryRepo) ListByRider(ctx context.Context, riderID string, activeOnly bool) ([]model.Delivery, error) {
	var list []model.Delivery
	db := r.db.WithContext(ctx).Where("rider_id = ?", riderID)
	if activeOnly {
		db = db.Where("status IN ?", []string{model.DeliveryAssigned, model.DeliveryPickedUp})
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *deliveryRepo) CountActiveByRider(ctx context.Context, riderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("rider_id = ? AND status IN ?", riderID, []string{model.DeliveryAssigned, model.DeliveryPickedUp}).
		Count(&n).Error
	return n, err
}

func (r *deliveryRepo) Assign(ctx context.Context, deliveryID, riderID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("delivery_id = ? AND status = ?", deliveryID, model.DeliveryPending).
		Updates(map[string]interface{}{
			"rider_id":    riderID,
			"status":      model.DeliveryAssigned,
			"assigned_at": at,
			"updated_by":  riderID,
			"updated_at":  at,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *deliveryRepo) Update(ctx context.Context, d *model.Delivery) error {
	err := updateVersioned(ctx, r.db, &model.Delivery{}, "delivery_id", d.DeliveryID, d.Version, map[string]interface{}{
		"rider_id":     d.RiderID,
		"status":       d.Status,
		"assigned_at":  d.AssignedAt,
		"picked_up_at": d.PickedUpAt,
		"delivered_at": d.DeliveredAt,
		"updated_by":   d.UpdatedBy,
		"updated_at":   time.Now(),
	})
	if err != nil {
		return err
	}
	d.Version++
	return nil
}
