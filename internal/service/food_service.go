package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/metrics"
)

// ── 餐饮模块业务错误 ──

var (
	ErrVendorNotFound        = errors.New("商家不存在")
	ErrVendorProfileRequired = errors.New("请先创建商家档案")
	ErrVendorClosed          = errors.New("商家暂停营业")
	ErrFoodItemNotFound      = errors.New("菜品不存在")
)

// FoodService 商家 / 菜单 / 餐饮订单业务接口
type FoodService interface {
	UpsertVendor(ctx context.Context, userID, universityID string, req *dto.UpsertVendorRequest) (*model.Vendor, error)
	MyVendor(ctx context.Context, userID string) (*model.Vendor, error)
	ListVendors(ctx context.Context, req *dto.VendorListRequest) ([]model.Vendor, error)
	GetVendor(ctx context.Context, id string) (*model.Vendor, error)

	Menu(ctx context.Context, vendorID string) ([]model.FoodItem, error)
	MyMenu(ctx context.Context, userID string) ([]model.FoodItem, error)
	CreateItem(ctx context.Context, userID string, req *dto.CreateFoodItemRequest) (*model.FoodItem, error)
	UpdateItem(ctx context.Context, id, userID string, req *dto.UpdateFoodItemRequest) (*model.FoodItem, error)
	DeleteItem(ctx context.Context, id, userID string) error

	Checkout(ctx context.Context, studentID string, req *dto.CheckoutRequest) (*model.FoodOrder, error)
	ListMyOrders(ctx context.Context, studentID string, req *dto.OrderListRequest) ([]model.FoodOrder, int64, error)
	ListVendorOrders(ctx context.Context, userID string, req *dto.OrderListRequest) ([]model.FoodOrder, int64, error)
	GetOrder(ctx context.Context, id, userID, role string) (*model.FoodOrder, error)
	UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.FoodOrder, error)
	AdminCancel(ctx context.Context, id, adminID, reason string) (*model.FoodOrder, error)
}

type foodService struct {
	repo     *repository.Repository
	notifier NotificationService
	delivery DeliveryService
	logger   *zap.Logger
}

// NewFoodService 创建 FoodService 实例
func NewFoodService(repo *repository.Repository, notifier NotificationService, delivery DeliveryService, logger *zap.Logger) FoodService {
	return &foodService{repo: repo, notifier: notifier, delivery: delivery, logger: logger}
}

// ────────────────────── 商家档案 ──────────────────────

func (s *foodService) UpsertVendor(ctx context.Context, userID, universityID string, req *dto.UpsertVendorRequest) (*model.Vendor, error) {
	vendor, err := s.repo.Vendor.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if vendor == nil {
		vendor = &model.Vendor{UserID: userID}
		if universityID != "" {
			vendor.UniversityID = strPtr(universityID)
		}
		vendor.CreatedBy = &userID
	}

	vendor.BusinessName = strings.TrimSpace(req.BusinessName)
	vendor.Description = req.Description
	vendor.Location = req.Location
	vendor.Phone = req.Phone
	if req.IsOpen != nil {
		vendor.IsOpen = *req.IsOpen
	}
	if req.DeliveryFeeMinor != nil {
		vendor.DeliveryFeeMinor = *req.DeliveryFeeMinor
	}

	if vendor.VendorID == "" {
		err = s.repo.Vendor.Create(ctx, vendor)
	} else {
		vendor.UpdatedBy = &userID
		err = s.repo.Vendor.Update(ctx, vendor)
	}
	if err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("保存商家档案失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return vendor, nil
}

func (s *foodService) MyVendor(ctx context.Context, userID string) (*model.Vendor, error) {
	vendor, err := s.repo.Vendor.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorProfileRequired
		}
		return nil, err
	}
	return vendor, nil
}

func (s *foodService) ListVendors(ctx context.Context, req *dto.VendorListRequest) ([]model.Vendor, error) {
	return s.repo.Vendor.List(ctx, repository.VendorFilter{
		UniversityID: req.UniversityID,
		Keyword:      strings.TrimSpace(req.Keyword),
		OpenOnly:     true,
	})
}

func (s *foodService) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	vendor, err := s.repo.Vendor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return vendor, nil
}

// ────────────────────── 菜单 ──────────────────────

func (s *foodService) Menu(ctx context.Context, vendorID string) ([]model.FoodItem, error) {
	if _, err := s.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.repo.FoodItem.ListByVendor(ctx, vendorID, true)
}

func (s *foodService) MyMenu(ctx context.Context, userID string) ([]model.FoodItem, error) {
	vendor, err := s.MyVendor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.FoodItem.ListByVendor(ctx, vendor.VendorID, false)
}

func (s *foodService) CreateItem(ctx context.Context, userID string, req *dto.CreateFoodItemRequest) (*model.FoodItem, error) {
	vendor, err := s.MyVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &model.FoodItem{
		VendorID:    vendor.VendorID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		PriceMinor:  req.PriceMinor,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	item.CreatedBy = &userID

	if err := s.repo.FoodItem.Create(ctx, item); err != nil {
		s.logger.Error("创建菜品失败", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *foodService) UpdateItem(ctx context.Context, id, userID string, req *dto.UpdateFoodItemRequest) (*model.FoodItem, error) {
	item, err := s.loadOwnItem(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.PriceMinor != nil {
		item.PriceMinor = *req.PriceMinor
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	item.UpdatedBy = &userID

	if err := s.repo.FoodItem.Update(ctx, item); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新菜品失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return item, nil
}

func (s *foodService) DeleteItem(ctx context.Context, id, userID string) error {
	if _, err := s.loadOwnItem(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.FoodItem.Delete(ctx, id, userID)
}

func (s *foodService) loadOwnItem(ctx context.Context, id, userID string) (*model.FoodItem, error) {
	vendor, err := s.MyVendor(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FoodItem.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFoodItemNotFound
		}
		return nil, err
	}
	if item.VendorID != vendor.VendorID {
		return nil, ErrNoPermission
	}
	return item, nil
}

// ────────────────────── Checkout ──────────────────────

func (s *foodService) Checkout(ctx context.Context, studentID string, req *dto.CheckoutRequest) (*model.FoodOrder, error) {
	ids := make([]string, len(req.Items))
	qtys := make([]int, len(req.Items))
	for i, line := range req.Items {
		ids[i], qtys[i] = line.FoodItemID, line.Quantity
	}
	quantities, orderIDs, err := mergeCartLines(ids, qtys)
	if err != nil {
		return nil, err
	}

	fulfilment := req.Fulfilment
	if fulfilment == "" {
		fulfilment = model.FulfilmentPickup
	}
	address := strings.TrimSpace(req.DeliveryAddress)
	if fulfilment == model.FulfilmentDelivery && address == "" {
		return nil, ErrDeliveryAddressRequired
	}

	vendor, err := s.GetVendor(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsOpen {
		return nil, ErrVendorClosed
	}

	items, err := s.repo.FoodItem.GetByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.FoodItem, len(items))
	for i := range items {
		byID[items[i].FoodItemID] = &items[i]
	}

	order := &model.FoodOrder{
		StudentID:  studentID,
		VendorID:   vendor.VendorID,
		Status:     model.OrderPending,
		Fulfilment: fulfilment,
		Note:       req.Note,
	}
	for _, id := range orderIDs {
		item, ok := byID[id]
		if !ok || item.VendorID != vendor.VendorID || !item.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, id)
		}
		qty := quantities[id]
		line := model.FoodOrderItem{
			FoodItemID:     id,
			Name:           item.Name,
			UnitPriceMinor: item.PriceMinor,
			Quantity:       qty,
			LineTotalMinor: item.PriceMinor * int64(qty),
		}
		order.Items = append(order.Items, line)
		order.SubtotalMinor += line.LineTotalMinor
	}

	settings, err := s.repo.Platform.GetSettings(ctx)
	if err != nil {
		s.logger.Error("读取平台配置失败", zap.Error(err))
		return nil, err
	}
	if fulfilment == model.FulfilmentDelivery {
		order.DeliveryAddress = address
		order.DeliveryFeeMinor = vendor.DeliveryFeeMinor
	}
	order.ServiceFeeMinor = serviceFee(order.SubtotalMinor, settings.ServiceFeeBps)
	order.TotalMinor = order.SubtotalMinor + order.DeliveryFeeMinor + order.ServiceFeeMinor
	order.CreatedBy = &studentID

	// 订单与明细在同一事务内写入
	if err := s.repo.FoodOrder.Create(ctx, order); err != nil {
		s.logger.Error("创建餐饮订单失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	metrics.RecordOrderCreated(model.OrderKindFood, order.TotalMinor)
	s.notifier.Notify(ctx, vendor.UserID, NotifyOrder, "新订单",
		fmt.Sprintf("收到新订单 %s，共 %d 项", shortID(order.FoodOrderID), len(order.Items)),
		model.RelatedFoodOrder, order.FoodOrderID)

	order.Vendor = vendor
	return order, nil
}

// ────────────────────── 订单查询 ──────────────────────

func (s *foodService) ListMyOrders(ctx context.Context, studentID string, req *dto.OrderListRequest) ([]model.FoodOrder, int64, error) {
	return s.repo.FoodOrder.List(ctx, repository.OrderFilter{
		OwnerColumn: "student_id",
		OwnerID:     studentID,
		Status:      req.Status,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *foodService) ListVendorOrders(ctx context.Context, userID string, req *dto.OrderListRequest) ([]model.FoodOrder, int64, error) {
	vendor, err := s.MyVendor(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.FoodOrder.List(ctx, repository.OrderFilter{
		OwnerColumn: "vendor_id",
		OwnerID:     vendor.VendorID,
		Status:      req.Status,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *foodService) GetOrder(ctx context.Context, id, userID, role string) (*model.FoodOrder, error) {
	order, vendor, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdminRole(role) || order.StudentID == userID || vendor.UserID == userID {
		return order, nil
	}
	return nil, ErrOrderNotOwned
}

// ────────────────────── 状态流转 ──────────────────────

func (s *foodService) UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.FoodOrder, error) {
	order, vendor, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var actor string
	switch userID {
	case order.StudentID:
		actor = actorCustomer
	case vendor.UserID:
		actor = actorMerchant
	default:
		return nil, ErrOrderNotOwned
	}

	return s.transition(ctx, order, vendor, req.Status, actor, userID, req.Reason)
}

func (s *foodService) AdminCancel(ctx context.Context, id, adminID, reason string) (*model.FoodOrder, error) {
	order, vendor, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, vendor, model.OrderCancelled, actorAdmin, adminID, reason)
}

func (s *foodService) transition(ctx context.Context, order *model.FoodOrder, vendor *model.Vendor, to, actor, userID, reason string) (*model.FoodOrder, error) {
	if err := checkFulfilment(order.Fulfilment, to); err != nil {
		return nil, err
	}
	if err := applyTransition(model.OrderKindFood, &order.Status, &order.OrderTimestamps, to, actor, reason, time.Now()); err != nil {
		return nil, err
	}
	order.UpdatedBy = &userID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.FoodOrder.UpdateStatus(ctx, order); err != nil {
			return err
		}
		switch {
		case to == model.OrderReady && order.Fulfilment == model.FulfilmentDelivery:
			_, err := s.delivery.OpenForOrder(ctx, tx, OrderRef{
				Kind:           model.OrderKindFood,
				OrderID:        order.FoodOrderID,
				CustomerID:     order.StudentID,
				MerchantUserID: vendor.UserID,
				UniversityID:   vendor.UniversityID,
				PickupAddress:  vendor.Location,
				DropoffAddress: order.DeliveryAddress,
				FeeMinor:       order.DeliveryFeeMinor,
			})
			return err
		case to == model.OrderCancelled:
			return s.delivery.CancelForOrder(ctx, tx, model.OrderKindFood, order.FoodOrderID, userID)
		}
		return nil
	})
	if err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新餐饮订单状态失败", zap.String("id", order.FoodOrderID), zap.Error(err))
		}
		return nil, err
	}

	recordTransition(model.OrderKindFood, to)

	// 每次流转通知学生；学生自行取消时改为通知商家
	content := fmt.Sprintf("订单 %s %s", shortID(order.FoodOrderID), statusLabel[to])
	if reason != "" {
		content += "：" + reason
	}
	if actor == actorCustomer {
		s.notifier.Notify(ctx, vendor.UserID, NotifyOrder, "订单状态更新", content, model.RelatedFoodOrder, order.FoodOrderID)
	} else {
		s.notifier.Notify(ctx, order.StudentID, NotifyOrder, "订单状态更新", content, model.RelatedFoodOrder, order.FoodOrderID)
	}
	return order, nil
}

func (s *foodService) loadOrder(ctx context.Context, id string) (*model.FoodOrder, *model.Vendor, error) {
	order, err := s.repo.FoodOrder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		s.logger.Error("查询餐饮订单失败", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}
	vendor := order.Vendor
	if vendor == nil {
		if vendor, err = s.GetVendor(ctx, order.VendorID); err != nil {
			return nil, nil, err
		}
	}
	return order, vendor, nil
}
