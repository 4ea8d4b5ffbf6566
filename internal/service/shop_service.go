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

// ── 商城模块业务错误 ──

var (
	ErrShopNotFound     = errors.New("店铺不存在")
	ErrShopClosed       = errors.New("店铺暂停营业")
	ErrShopItemNotFound = errors.New("商品不存在")
	ErrOutOfStock       = errors.New("商品库存不足")
)

// ShopService 店铺 / 商品 / 商城订单业务接口
type ShopService interface {
	CreateShop(ctx context.Context, ownerID, universityID string, req *dto.CreateShopRequest) (*model.Shop, error)
	UpdateShop(ctx context.Context, id, ownerID string, req *dto.UpdateShopRequest) (*model.Shop, error)
	DeleteShop(ctx context.Context, id, ownerID string) error
	MyShops(ctx context.Context, ownerID string) ([]model.Shop, error)
	ListShops(ctx context.Context, req *dto.ShopListRequest) ([]model.Shop, int64, error)
	GetShop(ctx context.Context, id string) (*model.Shop, error)

	ListItems(ctx context.Context, shopID string, ownerID string) ([]model.ShopItem, error)
	CreateItem(ctx context.Context, shopID, ownerID string, req *dto.CreateShopItemRequest) (*model.ShopItem, error)
	UpdateItem(ctx context.Context, id, ownerID string, req *dto.UpdateShopItemRequest) (*model.ShopItem, error)
	DeleteItem(ctx context.Context, id, ownerID string) error

	Checkout(ctx context.Context, buyerID string, req *dto.ShopCheckoutRequest) (*model.ShopOrder, error)
	ListMyOrders(ctx context.Context, buyerID string, req *dto.OrderListRequest) ([]model.ShopOrder, int64, error)
	ListShopOrders(ctx context.Context, shopID, ownerID string, req *dto.OrderListRequest) ([]model.ShopOrder, int64, error)
	GetOrder(ctx context.Context, id, userID, role string) (*model.ShopOrder, error)
	UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.ShopOrder, error)
	AdminCancel(ctx context.Context, id, adminID, reason string) (*model.ShopOrder, error)
}

type shopService struct {
	repo     *repository.Repository
	notifier NotificationService
	delivery DeliveryService
	logger   *zap.Logger
}

// NewShopService 创建 ShopService 实例
func NewShopService(repo *repository.Repository, notifier NotificationService, delivery DeliveryService, logger *zap.Logger) ShopService {
	return &shopService{repo: repo, notifier: notifier, delivery: delivery, logger: logger}
}

// ────────────────────── 店铺 ──────────────────────

func (s *shopService) CreateShop(ctx context.Context, ownerID, universityID string, req *dto.CreateShopRequest) (*model.Shop, error) {
	shop := &model.Shop{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		IsOpen:      true,
	}
	if req.IsOpen != nil {
		shop.IsOpen = *req.IsOpen
	}
	if universityID != "" {
		shop.UniversityID = strPtr(universityID)
	}
	shop.CreatedBy = &ownerID

	if err := s.repo.Shop.Create(ctx, shop); err != nil {
		s.logger.Error("创建店铺失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return shop, nil
}

func (s *shopService) UpdateShop(ctx context.Context, id, ownerID string, req *dto.UpdateShopRequest) (*model.Shop, error) {
	shop, err := s.loadOwnShop(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		shop.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		shop.Description = *req.Description
	}
	if req.Category != nil {
		shop.Category = *req.Category
	}
	if req.IsOpen != nil {
		shop.IsOpen = *req.IsOpen
	}
	shop.UpdatedBy = &ownerID

	if err := s.repo.Shop.Update(ctx, shop); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新店铺失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return shop, nil
}

func (s *shopService) DeleteShop(ctx context.Context, id, ownerID string) error {
	if _, err := s.loadOwnShop(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Shop.Delete(ctx, id, ownerID)
}

func (s *shopService) MyShops(ctx context.Context, ownerID string) ([]model.Shop, error) {
	shops, _, err := s.repo.Shop.List(ctx, repository.ShopFilter{OwnerID: ownerID}, 0, 100)
	return shops, err
}

func (s *shopService) ListShops(ctx context.Context, req *dto.ShopListRequest) ([]model.Shop, int64, error) {
	return s.repo.Shop.List(ctx, repository.ShopFilter{
		UniversityID: req.UniversityID,
		Category:     req.Category,
		Keyword:      strings.TrimSpace(req.Keyword),
		OpenOnly:     true,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *shopService) GetShop(ctx context.Context, id string) (*model.Shop, error) {
	shop, err := s.repo.Shop.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (s *shopService) loadOwnShop(ctx context.Context, id, ownerID string) (*model.Shop, error) {
	shop, err := s.GetShop(ctx, id)
	if err != nil {
		return nil, err
	}
	if shop.OwnerID != ownerID {
		return nil, ErrNoPermission
	}
	return shop, nil
}

// ────────────────────── 商品 ──────────────────────

// ListItems ownerID 为店主时返回全部商品，否则只返回上架商品
func (s *shopService) ListItems(ctx context.Context, shopID string, ownerID string) ([]model.ShopItem, error) {
	shop, err := s.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return s.repo.ShopItem.ListByShop(ctx, shopID, shop.OwnerID != ownerID)
}

func (s *shopService) CreateItem(ctx context.Context, shopID, ownerID string, req *dto.CreateShopItemRequest) (*model.ShopItem, error) {
	if _, err := s.loadOwnShop(ctx, shopID, ownerID); err != nil {
		return nil, err
	}

	item := &model.ShopItem{
		ShopID:      shopID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
		IsActive:    true,
	}
	item.CreatedBy = &ownerID

	if err := s.repo.ShopItem.Create(ctx, item); err != nil {
		s.logger.Error("创建商品失败", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *shopService) UpdateItem(ctx context.Context, id, ownerID string, req *dto.UpdateShopItemRequest) (*model.ShopItem, error) {
	item, err := s.loadOwnItem(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PriceMinor != nil {
		item.PriceMinor = *req.PriceMinor
	}
	if req.Stock != nil {
		item.Stock = *req.Stock
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedBy = &ownerID

	if err := s.repo.ShopItem.Update(ctx, item); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新商品失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return item, nil
}

func (s *shopService) DeleteItem(ctx context.Context, id, ownerID string) error {
	if _, err := s.loadOwnItem(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.ShopItem.Delete(ctx, id, ownerID)
}

func (s *shopService) loadOwnItem(ctx context.Context, id, ownerID string) (*model.ShopItem, error) {
	item, err := s.repo.ShopItem.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopItemNotFound
		}
		return nil, err
	}
	if _, err := s.loadOwnShop(ctx, item.ShopID, ownerID); err != nil {
		return nil, err
	}
	return item, nil
}

// ────────────────────── 下单 ──────────────────────

func (s *shopService) Checkout(ctx context.Context, buyerID string, req *dto.ShopCheckoutRequest) (*model.ShopOrder, error) {
	ids := make([]string, len(req.Items))
	qtys := make([]int, len(req.Items))
	for i, line := range req.Items {
		ids[i], qtys[i] = line.ShopItemID, line.Quantity
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

	shop, err := s.GetShop(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOpen {
		return nil, ErrShopClosed
	}

	items, err := s.repo.ShopItem.GetByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.ShopItem, len(items))
	for i := range items {
		byID[items[i].ShopItemID] = &items[i]
	}

	order := &model.ShopOrder{
		BuyerID:    buyerID,
		ShopID:     shop.ShopID,
		Status:     model.OrderPending,
		Fulfilment: fulfilment,
		Note:       req.Note,
	}
	for _, id := range orderIDs {
		item, ok := byID[id]
		if !ok || item.ShopID != shop.ShopID || !item.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, id)
		}
		qty := quantities[id]
		if item.Stock < qty {
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
		}
		line := model.ShopOrderItem{
			ShopItemID:     id,
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
		order.DeliveryFeeMinor = settings.DefaultDeliveryFeeMinor
	}
	order.ServiceFeeMinor = serviceFee(order.SubtotalMinor, settings.ServiceFeeBps)
	order.TotalMinor = order.SubtotalMinor + order.DeliveryFeeMinor + order.ServiceFeeMinor
	order.CreatedBy = &buyerID

	// 库存扣减与订单写入同一事务；并发扣减由条件更新兜底
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, line := range order.Items {
			if err := tx.ShopItem.DecrementStock(ctx, line.ShopItemID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockNotEnough) {
					return fmt.Errorf("%w: %s", ErrOutOfStock, line.Name)
				}
				return err
			}
		}
		return tx.ShopOrder.Create(ctx, order)
	})
	if err != nil {
		if !errors.Is(err, ErrOutOfStock) {
			s.logger.Error("创建商城订单失败", zap.String("buyer_id", buyerID), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordOrderCreated(model.OrderKindShop, order.TotalMinor)
	s.notifier.Notify(ctx, shop.OwnerID, NotifyOrder, "新订单",
		fmt.Sprintf("店铺「%s」收到新订单 %s", shop.Name, shortID(order.ShopOrderID)),
		model.RelatedShopOrder, order.ShopOrderID)

	order.Shop = shop
	return order, nil
}

// ────────────────────── 订单查询 ──────────────────────

func (s *shopService) ListMyOrders(ctx context.Context, buyerID string, req *dto.OrderListRequest) ([]model.ShopOrder, int64, error) {
	return s.repo.ShopOrder.List(ctx, repository.OrderFilter{
		OwnerColumn: "buyer_id",
		OwnerID:     buyerID,
		Status:      req.Status,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *shopService) ListShopOrders(ctx context.Context, shopID, ownerID string, req *dto.OrderListRequest) ([]model.ShopOrder, int64, error) {
	if _, err := s.loadOwnShop(ctx, shopID, ownerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ShopOrder.List(ctx, repository.OrderFilter{
		OwnerColumn: "shop_id",
		OwnerID:     shopID,
		Status:      req.Status,
	}, req.GetOffset(), req.GetPageSize())
}

func (s *shopService) GetOrder(ctx context.Context, id, userID, role string) (*model.ShopOrder, error) {
	order, shop, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdminRole(role) || order.BuyerID == userID || shop.OwnerID == userID {
		return order, nil
	}
	return nil, ErrOrderNotOwned
}

// ────────────────────── 状态流转 ──────────────────────

func (s *shopService) UpdateStatus(ctx context.Context, id, userID string, req *dto.OrderStatusRequest) (*model.ShopOrder, error) {
	order, shop, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var actor string
	switch userID {
	case order.BuyerID:
		actor = actorCustomer
	case shop.OwnerID:
		actor = actorMerchant
	default:
		return nil, ErrOrderNotOwned
	}
	return s.transition(ctx, order, shop, req.Status, actor, userID, req.Reason)
}

func (s *shopService) AdminCancel(ctx context.Context, id, adminID, reason string) (*model.ShopOrder, error) {
	order, shop, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, shop, model.OrderCancelled, actorAdmin, adminID, reason)
}

func (s *shopService) transition(ctx context.Context, order *model.ShopOrder, shop *model.Shop, to, actor, userID, reason string) (*model.ShopOrder, error) {
	if err := checkFulfilment(order.Fulfilment, to); err != nil {
		return nil, err
	}
	if err := applyTransition(model.OrderKindShop, &order.Status, &order.OrderTimestamps, to, actor, reason, time.Now()); err != nil {
		return nil, err
	}
	order.UpdatedBy = &userID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.ShopOrder.UpdateStatus(ctx, order); err != nil {
			return err
		}
		switch to {
		case model.OrderCancelled, model.OrderRejected:
			// 取消或拒单回补库存
			for _, line := range order.Items {
				if err := tx.ShopItem.IncrementStock(ctx, line.ShopItemID, line.Quantity); err != nil {
					return err
				}
			}
			return s.delivery.CancelForOrder(ctx, tx, model.OrderKindShop, order.ShopOrderID, userID)
		case model.OrderReady:
			if order.Fulfilment != model.FulfilmentDelivery {
				return nil
			}
			_, err := s.delivery.OpenForOrder(ctx, tx, OrderRef{
				Kind:           model.OrderKindShop,
				OrderID:        order.ShopOrderID,
				CustomerID:     order.BuyerID,
				MerchantUserID: shop.OwnerID,
				UniversityID:   shop.UniversityID,
				PickupAddress:  shop.Name,
				DropoffAddress: order.DeliveryAddress,
				FeeMinor:       order.DeliveryFeeMinor,
			})
			return err
		}
		return nil
	})
	if err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新商城订单状态失败", zap.String("id", order.ShopOrderID), zap.Error(err))
		}
		return nil, err
	}

	recordTransition(model.OrderKindShop, to)

	content := fmt.Sprintf("订单 %s %s", shortID(order.ShopOrderID), statusLabel[to])
	if reason != "" {
		content += "：" + reason
	}
	target := order.BuyerID
	if actor == actorCustomer {
		target = shop.OwnerID
	}
	s.notifier.Notify(ctx, target, NotifyOrder, "订单状态更新", content, model.RelatedShopOrder, order.ShopOrderID)
	return order, nil
}

func (s *shopService) loadOrder(ctx context.Context, id string) (*model.ShopOrder, *model.Shop, error) {
	order, err := s.repo.ShopOrder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		s.logger.Error("查询商城订单失败", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}
	shop := order.Shop
	if shop == nil {
		if shop, err = s.GetShop(ctx, order.ShopID); err != nil {
			return nil, nil, err
		}
	}
	return order, shop, nil
}
