package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/metrics"
)

// ── 洗衣模块业务错误 ──

var (
	ErrLaundryServiceNotFound = errors.New("洗衣服务不存在")
	ErrLaundryServiceInactive = errors.New("洗衣服务已停用")
	ErrLaundryWeightRange     = errors.New("衣物重量超出允许范围")
)

// maxLaundryWeightKg 单笔洗衣订单的重量上限
const maxLaundryWeightKg = 30.0

const defaultTurnaroundHours = 48

// LaundryService 洗衣服务与订单业务接口
type LaundryService interface {
	ListServices(ctx context.Context, universityID string) ([]model.LaundryService, error)
	MyServices(ctx context.Context, ownerID string) ([]model.LaundryService, error)
	GetService(ctx context.Context, id string) (*model.LaundryService, error)
	CreateService(ctx context.Context, ownerID, universityID string, req *dto.CreateLaundryServiceRequest) (*model.LaundryService, error)
	UpdateService(ctx context.Context, id, ownerID string, req *dto.UpdateLaundryServiceRequest) (*model.LaundryService, error)
	DeleteService(ctx context.Context, id, ownerID string) error

	PlaceOrder(ctx context.Context, studentID string, req *dto.LaundryOrderRequest) (*model.LaundryOrder, error)
	ListMyOrders(ctx context.Context, studentID string, req *dto.OrderListRequest) ([]model.LaundryOrder, int64, error)
	ListOwnerOrders(ctx context.Context, ownerID string, req *dto.OrderListRequest) ([]model.LaundryOrder, int64, error)
	GetOrder(ctx context.Context, id, userID, role string) (*model.LaundryOrder, error)
	UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.LaundryOrder, error)
	AdminCancel(ctx context.Context, id, adminID, reason string) (*model.LaundryOrder, error)
}

type laundryService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewLaundryService 创建 LaundryService 实例
func NewLaundryService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) LaundryService {
	return &laundryService{repo: repo, notifier: notifier, logger: logger}
}

// laundryTotal 总价 = ceil(重量 × 单价)，容忍浮点误差
func laundryTotal(weightKg float64, pricePerKg int64) int64 {
	return int64(math.Ceil(weightKg*float64(pricePerKg) - 1e-9))
}

// roundWeight 重量按 numeric(5,2) 列精度取两位小数，校验与计价都用落库后的值
func roundWeight(weightKg float64) float64 {
	return math.Round(weightKg*100) / 100
}

// ────────────────────── 洗衣服务 ──────────────────────

func (s *laundryService) ListServices(ctx context.Context, universityID string) ([]model.LaundryService, error) {
	return s.repo.LaundryService.List(ctx, universityID, "", true)
}

func (s *laundryService) MyServices(ctx context.Context, ownerID string) ([]model.LaundryService, error) {
	return s.repo.LaundryService.List(ctx, "", ownerID, false)
}

func (s *laundryService) GetService(ctx context.Context, id string) (*model.LaundryService, error) {
	svc, err := s.repo.LaundryService.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLaundryServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *laundryService) CreateService(ctx context.Context, ownerID, universityID string, req *dto.CreateLaundryServiceRequest) (*model.LaundryService, error) {
	svc := &model.LaundryService{
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		PricePerKgMinor: req.PricePerKgMinor,
		TurnaroundHours: req.TurnaroundHours,
		IsActive:        true,
	}
	if svc.TurnaroundHours == 0 {
		svc.TurnaroundHours = defaultTurnaroundHours
	}
	if universityID != "" {
		svc.UniversityID = strPtr(universityID)
	}
	svc.CreatedBy = &ownerID

	if err := s.repo.LaundryService.Create(ctx, svc); err != nil {
		s.logger.Error("创建洗衣服务失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return svc, nil
}

func (s *laundryService) UpdateService(ctx context.Context, id, ownerID string, req *dto.UpdateLaundryServiceRequest) (*model.LaundryService, error) {
	svc, err := s.loadOwnService(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.PricePerKgMinor != nil {
		svc.PricePerKgMinor = *req.PricePerKgMinor
	}
	if req.TurnaroundHours != nil {
		svc.TurnaroundHours = *req.TurnaroundHours
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	svc.UpdatedBy = &ownerID

	if err := s.repo.LaundryService.Update(ctx, svc); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新洗衣服务失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return svc, nil
}

func (s *laundryService) DeleteService(ctx context.Context, id, ownerID string) error {
	if _, err := s.loadOwnService(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.LaundryService.Delete(ctx, id, ownerID)
}

func (s *laundryService) loadOwnService(ctx context.Context, id, ownerID string) (*model.LaundryService, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.OwnerID != ownerID {
		return nil, ErrNoPermission
	}
	return svc, nil
}

// ────────────────────── 下单 ──────────────────────

func (s *laundryService) PlaceOrder(ctx context.Context, studentID string, req *dto.LaundryOrderRequest) (*model.LaundryOrder, error) {
	svc, err := s.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrLaundryServiceInactive
	}

	settings, err := s.repo.Platform.GetSettings(ctx)
	if err != nil {
		s.logger.Error("读取平台配置失败", zap.Error(err))
		return nil, err
	}
	weight := roundWeight(req.WeightKg)
	if weight < settings.LaundryMinWeightKg || weight > maxLaundryWeightKg {
		return nil, fmt.Errorf("%w: %.1f-%.0f kg", ErrLaundryWeightRange, settings.LaundryMinWeightKg, maxLaundryWeightKg)
	}

	address := strings.TrimSpace(req.PickupAddress)
	if address == "" {
		return nil, ErrDeliveryAddressRequired
	}

	order := &model.LaundryOrder{
		StudentID:     studentID,
		ServiceID:     svc.LaundryServiceID,
		Status:        model.OrderPending,
		WeightKg:      weight,
		PickupAddress: address,
		Note:          req.Note,
		TotalMinor:    laundryTotal(weight, svc.PricePerKgMinor),
	}
	order.CreatedBy = &studentID

	if err := s.repo.LaundryOrder.Create(ctx, order); err != nil {
		s.logger.Error("创建洗衣订单失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	metrics.RecordOrderCreated(model.OrderKindLaundry, order.TotalMinor)
	s.notifier.Notify(ctx, svc.OwnerID, NotifyOrder, "新洗衣订单",
		fmt.Sprintf("「%s」收到新订单 %s，%.1f kg", svc.Name, shortID(order.LaundryOrderID), order.WeightKg),
		model.RelatedLaundryOrder, order.LaundryOrderID)

	order.Service = svc
	return order, nil
}

// ────────────────────── 订单查询 ──────────────────────

func (s *laundryService) ListMyOrders(ctx context.Context, studentID string, req *dto.OrderListRequest) ([]model.LaundryOrder, int64, error) {
	return s.repo.LaundryOrder.List(ctx, repository.OrderFilter{
		OwnerColumn: "student_id",
		OwnerID:     studentID,
		Status:      req.Status,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *laundryService) ListOwnerOrders(ctx context.Context, ownerID string, req *dto.OrderListRequest) ([]model.LaundryOrder, int64, error) {
	return s.repo.LaundryOrder.ListByOwner(ctx, ownerID, req.Status, req.GetOffset(), req.GetPageSize())
}

func (s *laundryService) GetOrder(ctx context.Context, id, userID, role string) (*model.LaundryOrder, error) {
	order, svc, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdminRole(role) || order.StudentID == userID || svc.OwnerID == userID {
		return order, nil
	}
	return nil, ErrOrderNotOwned
}

// ────────────────────── 状态流转 ──────────────────────

func (s *laundryService) UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.LaundryOrder, error) {
	order, svc, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var actor string
	switch userID {
	case order.StudentID:
		actor = actorCustomer
	case svc.OwnerID:
		actor = actorMerchant
	default:
		return nil, ErrOrderNotOwned
	}
	return s.transition(ctx, order, svc, req.Status, actor, userID, req.Reason)
}

func (s *laundryService) AdminCancel(ctx context.Context, id, adminID, reason string) (*model.LaundryOrder, error) {
	order, svc, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, svc, model.OrderCancelled, actorAdmin, adminID, reason)
}

func (s *laundryService) transition(ctx context.Context, order *model.LaundryOrder, svc *model.LaundryService, to, actor, userID, reason string) (*model.LaundryOrder, error) {
	now := time.Now()
	if err := applyTransition(model.OrderKindLaundry, &order.Status, &order.OrderTimestamps, to, actor, reason, now); err != nil {
		return nil, err
	}
	if to == model.OrderAccepted {
		eta := now.Add(time.Duration(svc.TurnaroundHours) * time.Hour)
		order.EstimatedReadyAt = &eta
	}
	order.UpdatedBy = &userID

	if err := s.repo.LaundryOrder.UpdateStatus(ctx, order); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新洗衣订单状态失败", zap.String("id", order.LaundryOrderID), zap.Error(err))
		}
		return nil, err
	}

	recordTransition(model.OrderKindLaundry, to)

	content := fmt.Sprintf("洗衣订单 %s %s", shortID(order.LaundryOrderID), statusLabel[to])
	if order.EstimatedReadyAt != nil && to == model.OrderAccepted {
		content += "，预计 " + order.EstimatedReadyAt.Format("01-02 15:04") + " 完成"
	}
	if reason != "" {
		content += "：" + reason
	}
	target := order.StudentID
	if actor == actorCustomer {
		target = svc.OwnerID
	}
	s.notifier.Notify(ctx, target, NotifyOrder, "洗衣订单更新", content, model.RelatedLaundryOrder, order.LaundryOrderID)
	return order, nil
}

func (s *laundryService) loadOrder(ctx context.Context, id string) (*model.LaundryOrder, *model.LaundryService, error) {
	order, err := s.repo.LaundryOrder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		s.logger.Error("查询洗衣订单失败", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}
	svc := order.Service
	if svc == nil {
		if svc, err = s.GetService(ctx, order.ServiceID); err != nil {
			return nil, nil, err
		}
	}
	return order, svc, nil
}
