package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ── 平台管理业务错误 ──

var (
	ErrUnknownOrderKind = errors.New("未知的订单类型")
	ErrInvalidDateRange = errors.New("日期范围无效")
	ErrExportGenerate   = errors.New("生成 Excel 文件失败")
)

const (
	statsCacheKey = "stats:platform"
	statsCacheTTL = 60 * time.Second

	// maxExportRows 单次导出的订单上限
	maxExportRows = 5000
)

// AdminService 平台配置、统计与订单总览
type AdminService interface {
	GetSettings(ctx context.Context) (*model.PlatformSettings, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest, callerID string) (*model.PlatformSettings, error)

	// Stats 统计结果缓存 60 秒；每次重新计算都会落一条快照
	Stats(ctx context.Context, callerID string) (*dto.StatsResponse, error)
	ListSnapshots(ctx context.Context, limit int) ([]model.PlatformStats, error)

	ListOrders(ctx context.Context, req *dto.AdminOrderListRequest) ([]dto.OrderSummary, int64, error)
	CancelOrder(ctx context.Context, kind, id, adminID, reason string) error
	ExportOrders(ctx context.Context, req *dto.AdminOrderListRequest) (*bytes.Buffer, string, error)
}

type adminService struct {
	repo    *repository.Repository
	cache   Cache
	food    FoodService
	shop    ShopService
	laundry LaundryService
	logger  *zap.Logger
}

// NewAdminService 创建 AdminService 实例；强制取消委托给各订单模块
func NewAdminService(repo *repository.Repository, cache Cache, food FoodService, shop ShopService, laundry LaundryService, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, cache: cache, food: food, shop: shop, laundry: laundry, logger: logger}
}

// ────────────────────── 平台配置 ──────────────────────

func (s *adminService) GetSettings(ctx context.Context) (*model.PlatformSettings, error) {
	settings, err := s.repo.Platform.GetSettings(ctx)
	if err != nil {
		s.logger.Error("读取平台配置失败", zap.Error(err))
		return nil, err
	}
	return settings, nil
}

func (s *adminService) UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest, callerID string) (*model.PlatformSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if req.ServiceFeeBps != nil {
		settings.ServiceFeeBps = *req.ServiceFeeBps
	}
	if req.MaxActiveDeliveries != nil {
		settings.MaxActiveDeliveries = *req.MaxActiveDeliveries
	}
	if req.DefaultDeliveryFeeMinor != nil {
		settings.DefaultDeliveryFeeMinor = *req.DefaultDeliveryFeeMinor
	}
	if req.LaundryMinWeightKg != nil {
		settings.LaundryMinWeightKg = *req.LaundryMinWeightKg
	}
	settings.UpdatedBy = &callerID

	if err := s.repo.Platform.UpdateSettings(ctx, settings); err != nil {
		s.logger.Error("更新平台配置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("平台配置已更新",
		zap.String("by", callerID),
		zap.Int("service_fee_bps", settings.ServiceFeeBps),
		zap.Int("max_active_deliveries", settings.MaxActiveDeliveries),
	)
	return settings, nil
}

// ────────────────────── 统计 ──────────────────────

func (s *adminService) Stats(ctx context.Context, callerID string) (*dto.StatsResponse, error) {
	if s.cache != nil {
		var cached dto.StatsResponse
		if hit, err := s.cache.GetJSON(ctx, statsCacheKey, &cached); err != nil {
			s.logger.Warn("读取统计缓存失败", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	// 各项计数互不依赖，并发查询
	var (
		byRole                              map[string]int64
		universities, vendors, shops, trips int64
		food, shop, laundry                 *repository.OrderStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { byRole, err = s.repo.User.CountByRole(gctx); return })
	g.Go(func() (err error) { universities, err = s.repo.University.Count(gctx); return })
	g.Go(func() (err error) { vendors, err = s.repo.Vendor.Count(gctx); return })
	g.Go(func() (err error) { shops, err = s.repo.Shop.Count(gctx); return })
	g.Go(func() (err error) { trips, err = s.repo.Trip.Count(gctx); return })
	g.Go(func() (err error) { food, err = s.repo.FoodOrder.Stats(gctx); return })
	g.Go(func() (err error) { shop, err = s.repo.ShopOrder.Stats(gctx); return })
	g.Go(func() (err error) { laundry, err = s.repo.LaundryOrder.Stats(gctx); return })
	if err := g.Wait(); err != nil {
		s.logger.Error("计算平台统计失败", zap.Error(err))
		return nil, err
	}

	var totalUsers int64
	for _, n := range byRole {
		totalUsers += n
	}
	byStatus := model.OrderStatusCounts{
		model.OrderKindFood:    food.ByStatus,
		model.OrderKindShop:    shop.ByStatus,
		model.OrderKindLaundry: laundry.ByStatus,
	}
	now := time.Now()
	resp := &dto.StatsResponse{
		TotalUsers:       totalUsers,
		UsersByRole:      byRole,
		Universities:     universities,
		Vendors:          vendors,
		Shops:            shops,
		FoodOrders:       food.Count,
		ShopOrders:       shop.Count,
		LaundryOrders:    laundry.Count,
		Trips:            trips,
		GrossVolumeMinor: food.GrossVolumeMinor + shop.GrossVolumeMinor + laundry.GrossVolumeMinor,
		OrdersByStatus:   byStatus,
		GeneratedAt:      formatTime(now),
	}

	snapshot := &model.PlatformStats{
		TotalUsers:       totalUsers,
		Students:         byRole[model.RoleStudent],
		Lecturers:        byRole[model.RoleLecturer],
		Vendors:          byRole[model.RoleVendor],
		Riders:           byRole[model.RoleRider],
		Universities:     universities,
		Shops:            shops,
		FoodOrders:       food.Count,
		ShopOrders:       shop.Count,
		LaundryOrders:    laundry.Count,
		Trips:            trips,
		GrossVolumeMinor: resp.GrossVolumeMinor,
		VendorProfiles:   vendors,
		OrdersByStatus:   byStatus,
		CapturedAt:       now,
	}
	if callerID != "" {
		snapshot.CapturedBy = &callerID
	}
	if err := s.repo.Platform.CreateSnapshot(ctx, snapshot); err != nil {
		// 快照失败不影响本次统计结果
		s.logger.Warn("保存统计快照失败", zap.Error(err))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsCacheKey, resp, statsCacheTTL); err != nil {
			s.logger.Warn("写入统计缓存失败", zap.Error(err))
		}
	}
	return resp, nil
}

func (s *adminService) ListSnapshots(ctx context.Context, limit int) ([]model.PlatformStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.repo.Platform.ListSnapshots(ctx, limit)
}

// ────────────────────── 订单总览 ──────────────────────

func (s *adminService) ListOrders(ctx context.Context, req *dto.AdminOrderListRequest) ([]dto.OrderSummary, int64, error) {
	return s.listOrders(ctx, req, req.GetOffset(), req.GetPageSize())
}

func (s *adminService) listOrders(ctx context.Context, req *dto.AdminOrderListRequest, offset, limit int) ([]dto.OrderSummary, int64, error) {
	filter, err := adminOrderFilter(req)
	if err != nil {
		return nil, 0, err
	}

	switch req.Kind {
	case model.OrderKindFood:
		orders, total, err := s.repo.FoodOrder.List(ctx, filter, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		list := make([]dto.OrderSummary, 0, len(orders))
		for i := range orders {
			o := &orders[i]
			merchant := ""
			if o.Vendor != nil {
				merchant = o.Vendor.BusinessName
			}
			list = append(list, dto.OrderSummary{
				Kind: req.Kind, OrderID: o.FoodOrderID, CustomerID: o.StudentID, Merchant: merchant,
				Status: o.Status, Fulfilment: o.Fulfilment, TotalMinor: o.TotalMinor, CreatedAt: formatTime(o.CreatedAt),
			})
		}
		return list, total, nil

	case model.OrderKindShop:
		orders, total, err := s.repo.ShopOrder.List(ctx, filter, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		list := make([]dto.OrderSummary, 0, len(orders))
		for i := range orders {
			o := &orders[i]
			merchant := ""
			if o.Shop != nil {
				merchant = o.Shop.Name
			}
			list = append(list, dto.OrderSummary{
				Kind: req.Kind, OrderID: o.ShopOrderID, CustomerID: o.BuyerID, Merchant: merchant,
				Status: o.Status, Fulfilment: o.Fulfilment, TotalMinor: o.TotalMinor, CreatedAt: formatTime(o.CreatedAt),
			})
		}
		return list, total, nil

	case model.OrderKindLaundry:
		orders, total, err := s.repo.LaundryOrder.List(ctx, filter, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		list := make([]dto.OrderSummary, 0, len(orders))
		for i := range orders {
			o := &orders[i]
			merchant := ""
			if o.Service != nil {
				merchant = o.Service.Name
			}
			list = append(list, dto.OrderSummary{
				Kind: req.Kind, OrderID: o.LaundryOrderID, CustomerID: o.StudentID, Merchant: merchant,
				Status: o.Status, TotalMinor: o.TotalMinor, CreatedAt: formatTime(o.CreatedAt),
			})
		}
		return list, total, nil
	}
	return nil, 0, ErrUnknownOrderKind
}

// adminOrderFilter from/to 为自然日，to 含当天
func adminOrderFilter(req *dto.AdminOrderListRequest) (repository.OrderFilter, error) {
	filter := repository.OrderFilter{Status: req.Status}
	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return filter, ErrInvalidDateRange
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return filter, ErrInvalidDateRange
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, ErrInvalidDateRange
	}
	return filter, nil
}

func (s *adminService) CancelOrder(ctx context.Context, kind, id, adminID, reason string) error {
	var err error
	switch kind {
	case model.OrderKindFood:
		_, err = s.food.AdminCancel(ctx, id, adminID, reason)
	case model.OrderKindShop:
		_, err = s.shop.AdminCancel(ctx, id, adminID, reason)
	case model.OrderKindLaundry:
		_, err = s.laundry.AdminCancel(ctx, id, adminID, reason)
	default:
		return ErrUnknownOrderKind
	}
	if err != nil {
		return err
	}
	s.logger.Info("管理员强制取消订单",
		zap.String("kind", kind),
		zap.String("order_id", id),
		zap.String("by", adminID),
	)
	return nil
}

// ────────────────────── 导出 ──────────────────────

// ExportOrders 按筛选条件导出订单为 Excel，单次最多 maxExportRows 行
func (s *adminService) ExportOrders(ctx context.Context, req *dto.AdminOrderListRequest) (*bytes.Buffer, string, error) {
	list, _, err := s.listOrders(ctx, req, 0, maxExportRows)
	if err != nil {
		return nil, "", err
	}

	const sheet = "订单"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, "", ErrExportGenerate
	}
	defer f.Close()

	writeHeader(f, sheet, 1, []string{"类型", "订单号", "下单用户", "商家", "状态", "履约方式", "金额(分)", "下单时间"})
	for i, o := range list {
		row := i + 2
		values := []interface{}{
			o.Kind, o.OrderID, o.CustomerID, o.Merchant,
			statusLabel[o.Status], o.Fulfilment, o.TotalMinor, o.CreatedAt,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cell(colName(col), row), v)
		}
	}
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 38)
	f.SetColWidth(sheet, "D", "D", 24)
	f.SetColWidth(sheet, "E", "H", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成订单 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerate
	}

	filename := fmt.Sprintf("orders_%s_%s.xlsx", req.Kind, time.Now().Format("20060102"))
	return buf, filename, nil
}
