package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/metrics"
)

// ── 配送模块业务错误 ──

var (
	ErrDeliveryNotFound     = errors.New("配送单不存在")
	ErrDeliveryTaken        = errors.New("配送单已被其他骑手接走")
	ErrDeliveryNotOwned     = errors.New("只能操作自己接的配送单")
	ErrRiderProfileRequired = errors.New("请先完善骑手档案")
	ErrRiderUnavailable     = errors.New("当前为休息状态，无法接单")
	ErrRiderAtCapacity      = errors.New("进行中的配送单已达上限")
)

// OrderRef 开启配送单所需的订单信息
type OrderRef struct {
	Kind           string
	OrderID        string
	CustomerID     string
	MerchantUserID string
	UniversityID   *string
	PickupAddress  string
	DropoffAddress string
	FeeMinor       int64
}

// DeliveryService 配送业务接口
type DeliveryService interface {
	UpsertProfile(ctx context.Context, userID, universityID string, req *dto.UpsertRiderRequest) (*model.DeliveryAgent, error)
	GetProfile(ctx context.Context, userID string) (*model.DeliveryAgent, error)

	// OpenForOrder 订单备好后开启配送单；tx 非 nil 时在调用方事务内执行
	OpenForOrder(ctx context.Context, tx *repository.Repository, ref OrderRef) (*model.Delivery, error)
	// CancelForOrder 订单被取消时同步取消尚未送达的配送单
	CancelForOrder(ctx context.Context, tx *repository.Repository, kind, orderID, by string) error

	ListOpen(ctx context.Context, universityID string, req *dto.PaginationRequest) ([]model.Delivery, int64, error)
	ListMine(ctx context.Context, riderID string, activeOnly bool) ([]model.Delivery, error)
	Get(ctx context.Context, id, userID, role string) (*model.Delivery, error)
	Accept(ctx context.Context, id, riderID string) (*model.Delivery, error)
	Advance(ctx context.Context, id, riderID, status string) (*model.Delivery, error)
}

type deliveryService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewDeliveryService 创建 DeliveryService 实例
func NewDeliveryService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) DeliveryService {
	return &deliveryService{repo: repo, notifier: notifier, logger: logger}
}

func (s *deliveryService) txOrSelf(tx *repository.Repository) *repository.Repository {
	if tx != nil {
		return tx
	}
	return s.repo
}

// ────────────────────── 骑手档案 ──────────────────────

func (s *deliveryService) UpsertProfile(ctx context.Context, userID, universityID string, req *dto.UpsertRiderRequest) (*model.DeliveryAgent, error) {
	agent, err := s.repo.DeliveryAgent.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if agent == nil {
		agent = &model.DeliveryAgent{UserID: userID, VehicleType: "bicycle"}
		if universityID != "" {
			agent.UniversityID = strPtr(universityID)
		}
		agent.CreatedBy = &userID
	}
	if req.VehicleType != "" {
		agent.VehicleType = req.VehicleType
	}
	if req.Phone != "" {
		agent.Phone = req.Phone
	}
	if req.IsAvailable != nil {
		agent.IsAvailable = *req.IsAvailable
	}

	if agent.AgentID == "" {
		err = s.repo.DeliveryAgent.Create(ctx, agent)
	} else {
		agent.UpdatedBy = &userID
		err = s.repo.DeliveryAgent.Update(ctx, agent)
	}
	if err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("保存骑手档案失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return agent, nil
}

func (s *deliveryService) GetProfile(ctx context.Context, userID string) (*model.DeliveryAgent, error) {
	agent, err := s.repo.DeliveryAgent.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRiderProfileRequired
		}
		return nil, err
	}
	return agent, nil
}

// ────────────────────── 订单联动 ──────────────────────

func (s *deliveryService) OpenForOrder(ctx context.Context, tx *repository.Repository, ref OrderRef) (*model.Delivery, error) {
	repo := s.txOrSelf(tx)

	// 同一订单只保留一张配送单
	if existing, err := repo.Delivery.GetByOrder(ctx, ref.Kind, ref.OrderID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	d := &model.Delivery{
		OrderKind:      ref.Kind,
		OrderID:        ref.OrderID,
		CustomerID:     ref.CustomerID,
		MerchantUserID: ref.MerchantUserID,
		UniversityID:   ref.UniversityID,
		PickupAddress:  ref.PickupAddress,
		DropoffAddress: ref.DropoffAddress,
		FeeMinor:       ref.FeeMinor,
		Status:         model.DeliveryPending,
	}
	d.CreatedBy = &ref.MerchantUserID

	if err := repo.Delivery.Create(ctx, d); err != nil {
		s.logger.Error("创建配送单失败", zap.String("order_id", ref.OrderID), zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (s *deliveryService) CancelForOrder(ctx context.Context, tx *repository.Repository, kind, orderID, by string) error {
	repo := s.txOrSelf(tx)

	d, err := repo.Delivery.GetByOrder(ctx, kind, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if d.Status == model.DeliveryDelivered || d.Status == model.DeliveryCancelled {
		return nil
	}

	d.Status = model.DeliveryCancelled
	d.UpdatedBy = &by
	if err := repo.Delivery.Update(ctx, d); err != nil {
		return err
	}
	if d.RiderID != nil {
		s.notifier.Notify(ctx, *d.RiderID, NotifyDelivery, "配送单已取消",
			"关联订单已被取消，无需继续配送", model.RelatedDelivery, d.DeliveryID)
	}
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *deliveryService) ListOpen(ctx context.Context, universityID string, req *dto.PaginationRequest) ([]model.Delivery, int64, error) {
	list, total, err := s.repo.Delivery.ListOpen(ctx, universityID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询待接配送单失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

func (s *deliveryService) ListMine(ctx context.Context, riderID string, activeOnly bool) ([]model.Delivery, error) {
	return s.repo.Delivery.ListByRider(ctx, riderID, activeOnly)
}

func (s *deliveryService) Get(ctx context.Context, id, userID, role string) (*model.Delivery, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdminRole(role) || d.CustomerID == userID || d.MerchantUserID == userID ||
		(d.RiderID != nil && *d.RiderID == userID) {
		return d, nil
	}
	// 待接单的配送单对骑手可见
	if role == model.RoleRider && d.Status == model.DeliveryPending {
		return d, nil
	}
	return nil, ErrDeliveryNotOwned
}

// ────────────────────── 接单 ──────────────────────

// Accept 先到先得：条件更新 status='pending'，失败者得到 ErrDeliveryTaken；
// 同一骑手的并发接单由档案行锁串行，活跃单数不超过 MaxActiveDeliveries
func (s *deliveryService) Accept(ctx context.Context, id, riderID string) (*model.Delivery, error) {
	agent, err := s.GetProfile(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !agent.IsAvailable {
		return nil, ErrRiderUnavailable
	}

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UniversityID != nil && agent.UniversityID != nil && *d.UniversityID != *agent.UniversityID {
		return nil, ErrDeliveryNotFound
	}
	if d.Status != model.DeliveryPending {
		metrics.RecordDeliveryConflict()
		return nil, ErrDeliveryTaken
	}

	settings, err := s.repo.Platform.GetSettings(ctx)
	if err != nil {
		s.logger.Error("读取平台配置失败", zap.Error(err))
		return nil, err
	}

	// 锁住骑手档案行，计数与抢单在同一事务内完成，并发接单不会超过上限
	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.DeliveryAgent.GetByUserIDForUpdate(ctx, riderID); err != nil {
			return err
		}
		active, err := tx.Delivery.CountActiveByRider(ctx, riderID)
		if err != nil {
			return err
		}
		if active >= int64(settings.MaxActiveDeliveries) {
			return ErrRiderAtCapacity
		}
		ok, err := tx.Delivery.Assign(ctx, id, riderID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeliveryTaken
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrDeliveryTaken):
		metrics.RecordDeliveryConflict()
		return nil, err
	case errors.Is(err, ErrRiderAtCapacity):
		return nil, err
	default:
		s.logger.Error("接单失败", zap.String("delivery_id", id), zap.Error(err))
		return nil, err
	}

	d.Status = model.DeliveryAssigned
	d.RiderID = &riderID
	d.AssignedAt = &now
	d.Version++

	content := fmt.Sprintf("骑手已接单，配送单 %s", shortID(d.DeliveryID))
	s.notifier.Notify(ctx, d.CustomerID, NotifyDelivery, "骑手已接单", content, model.RelatedDelivery, d.DeliveryID)
	s.notifier.Notify(ctx, d.MerchantUserID, NotifyDelivery, "骑手已接单", content, model.RelatedDelivery, d.DeliveryID)
	return d, nil
}

// ────────────────────── 配送推进 ──────────────────────

// Advance assigned → picked_up → delivered，同步推进关联订单
func (s *deliveryService) Advance(ctx context.Context, id, riderID, status string) (*model.Delivery, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.RiderID == nil || *d.RiderID != riderID {
		return nil, ErrDeliveryNotOwned
	}

	now := time.Now()
	var orderStatus string
	switch {
	case d.Status == model.DeliveryAssigned && status == model.DeliveryPickedUp:
		d.PickedUpAt = &now
		orderStatus = model.OrderOutForDelivery
	case d.Status == model.DeliveryPickedUp && status == model.DeliveryDelivered:
		d.DeliveredAt = &now
		orderStatus = model.OrderDelivered
	default:
		return nil, ErrInvalidTransition
	}
	d.Status = status
	d.UpdatedBy = &riderID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Delivery.Update(ctx, d); err != nil {
			return err
		}
		if err := s.advanceOrder(ctx, tx, d, orderStatus, riderID, now); err != nil {
			return err
		}
		if status == model.DeliveryDelivered {
			return tx.DeliveryAgent.IncrementCompleted(ctx, riderID)
		}
		return nil
	})
	if err != nil {
		if !isOptimisticLock(err) && !errors.Is(err, ErrInvalidTransition) {
			s.logger.Error("推进配送单失败", zap.String("delivery_id", id), zap.Error(err))
		}
		return nil, err
	}

	title := "订单配送中"
	if status == model.DeliveryDelivered {
		title = "订单已送达"
	}
	content := fmt.Sprintf("配送单 %s：%s", shortID(d.DeliveryID), statusLabel[orderStatus])
	s.notifier.Notify(ctx, d.CustomerID, NotifyDelivery, title, content, model.RelatedDelivery, d.DeliveryID)
	s.notifier.Notify(ctx, d.MerchantUserID, NotifyDelivery, title, content, model.RelatedDelivery, d.DeliveryID)
	return d, nil
}

// advanceOrder 以骑手身份推进关联订单状态
func (s *deliveryService) advanceOrder(ctx context.Context, tx *repository.Repository, d *model.Delivery, to, riderID string, now time.Time) error {
	switch d.OrderKind {
	case model.OrderKindFood:
		order, err := tx.FoodOrder.GetByID(ctx, d.OrderID)
		if err != nil {
			return err
		}
		if err := checkFulfilment(order.Fulfilment, to); err != nil {
			return err
		}
		if err := applyTransition(model.OrderKindFood, &order.Status, &order.OrderTimestamps, to, actorRider, "", now); err != nil {
			return err
		}
		order.UpdatedBy = &riderID
		if err := tx.FoodOrder.UpdateStatus(ctx, order); err != nil {
			return err
		}
	case model.OrderKindShop:
		order, err := tx.ShopOrder.GetByID(ctx, d.OrderID)
		if err != nil {
			return err
		}
		if err := checkFulfilment(order.Fulfilment, to); err != nil {
			return err
		}
		if err := applyTransition(model.OrderKindShop, &order.Status, &order.OrderTimestamps, to, actorRider, "", now); err != nil {
			return err
		}
		order.UpdatedBy = &riderID
		if err := tx.ShopOrder.UpdateStatus(ctx, order); err != nil {
			return err
		}
	default:
		return ErrInvalidTransition
	}
	recordTransition(d.OrderKind, to)
	return nil
}

func (s *deliveryService) load(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := s.repo.Delivery.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNotFound
		}
		s.logger.Error("查询配送单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return d, nil
}

// shortID 通知文案中展示的短编号
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
