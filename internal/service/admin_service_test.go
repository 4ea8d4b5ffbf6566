package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

func setupAdminService() (AdminService, *commerceFixture, *mockCache) {
	fx := newCommerceFixture()
	fx.seedVendor()
	fx.seedShop()
	fx.seedLaundry()
	cache := newMockCache()
	admin := NewAdminService(fx.repo, cache, fx.food, fx.shop, fx.laundry, testLogger())
	return admin, fx, cache
}

// completedPickupOrder 自取订单走完全部流程，总额 51250
func completedPickupOrder(t *testing.T, fx *commerceFixture) *model.FoodOrder {
	t.Helper()
	ctx := context.Background()
	order, err := fx.food.Checkout(ctx, "s1", &dto.CheckoutRequest{VendorID: "V1", Items: foodLines(foodLine("f2", 1))})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	for _, to := range []string{model.OrderAccepted, model.OrderPreparing, model.OrderReady, model.OrderCompleted} {
		if _, err := fx.food.UpdateStatus(ctx, order.FoodOrderID, "vu1", &dto.OrderStatusRequest{Status: to}); err != nil {
			t.Fatalf("推进到 %s 失败: %v", to, err)
		}
	}
	return order
}

func TestAdminStats_CachedAndSnapshotted(t *testing.T) {
	admin, fx, cache := setupAdminService()
	ctx := context.Background()

	seedUser(fx.st, "s1", model.RoleStudent, "uni-1")
	seedUser(fx.st, "l1", model.RoleLecturer, "uni-1")
	seedUser(fx.st, "vu1", model.RoleVendor, "uni-1")
	completedPickupOrder(t, fx)
	// 未完成的订单不计入成交额
	if _, err := fx.food.Checkout(ctx, "s1", &dto.CheckoutRequest{VendorID: "V1", Items: foodLines(foodLine("f1", 1))}); err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	stats, err := admin.Stats(ctx, "admin-1")
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	wantRoles := map[string]int64{model.RoleStudent: 1, model.RoleLecturer: 1, model.RoleVendor: 1}
	if diff := cmp.Diff(wantRoles, stats.UsersByRole); diff != "" || stats.TotalUsers != 3 {
		t.Errorf("用户统计不正确 total=%d (-want +got):\n%s", stats.TotalUsers, diff)
	}
	if stats.FoodOrders != 2 || stats.Shops != 2 {
		t.Errorf("订单或店铺统计不正确: food=%d shops=%d", stats.FoodOrders, stats.Shops)
	}
	if stats.GrossVolumeMinor != 51250 {
		t.Errorf("成交额期望 51250，实际=%d", stats.GrossVolumeMinor)
	}
	if stats.Vendors != 2 {
		t.Errorf("已建档商家期望 2，实际=%d", stats.Vendors)
	}
	wantFood := map[string]int64{model.OrderCompleted: 1, model.OrderPending: 1}
	if diff := cmp.Diff(wantFood, stats.OrdersByStatus[model.OrderKindFood]); diff != "" {
		t.Errorf("餐饮订单按状态统计不正确 (-want +got):\n%s", diff)
	}
	if n := len(stats.OrdersByStatus[model.OrderKindShop]); n != 0 {
		t.Errorf("无商城订单时按状态统计应为空，实际=%v", stats.OrdersByStatus[model.OrderKindShop])
	}
	if len(fx.st.snapshots) != 1 || fx.st.snapshots[0].CapturedBy == nil {
		t.Fatalf("应写入 1 条带操作人的快照，实际=%d", len(fx.st.snapshots))
	}
	snap := fx.st.snapshots[0]
	if snap.VendorProfiles != 2 || snap.OrdersByStatus[model.OrderKindFood][model.OrderCompleted] != 1 {
		t.Errorf("快照应包含商家数与按状态统计: %+v", snap)
	}

	// 缓存期内不重新计算
	seedUser(fx.st, "s2", model.RoleStudent, "uni-1")
	again, _ := admin.Stats(ctx, "admin-1")
	if again.TotalUsers != 3 || len(fx.st.snapshots) != 1 {
		t.Errorf("应命中缓存: users=%d snapshots=%d", again.TotalUsers, len(fx.st.snapshots))
	}

	_ = cache.Delete(ctx, statsCacheKey)
	fresh, _ := admin.Stats(ctx, "")
	if fresh.TotalUsers != 4 || len(fx.st.snapshots) != 2 {
		t.Errorf("缓存失效后应重新计算: users=%d snapshots=%d", fresh.TotalUsers, len(fx.st.snapshots))
	}

	snaps, _ := admin.ListSnapshots(ctx, 0)
	if len(snaps) != 2 || snaps[0].TotalUsers != 4 {
		t.Errorf("快照应按时间倒序: %+v", snaps)
	}
}

type failingTripCount struct{ repository.TripRepository }

var errTripCount = errors.New("trip count failed")

func (failingTripCount) Count(context.Context) (int64, error) { return 0, errTripCount }

func TestAdminStats_QueryErrorLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	admin, fx, cache := setupAdminService()
	fx.repo.Trip = failingTripCount{fx.repo.Trip}
	ctx := context.Background()

	if _, err := admin.Stats(ctx, "admin-1"); !errors.Is(err, errTripCount) {
		t.Fatalf("期望透传计数错误，实际=%v", err)
	}
	if len(fx.st.snapshots) != 0 {
		t.Error("统计失败时不应写快照")
	}
	if hit, _ := cache.GetJSON(ctx, statsCacheKey, &dto.StatsResponse{}); hit {
		t.Error("统计失败时不应写缓存")
	}
}

func TestAdminListOrders_Filters(t *testing.T) {
	admin, fx, _ := setupAdminService()
	ctx := context.Background()

	completedPickupOrder(t, fx)
	_, _ = fx.food.Checkout(ctx, "s2", &dto.CheckoutRequest{VendorID: "V1", Items: foodLines(foodLine("f1", 1))})

	today := time.Now().UTC().Format("2006-01-02")
	list, total, err := admin.ListOrders(ctx, &dto.AdminOrderListRequest{Kind: model.OrderKindFood, From: today, To: today})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("当天订单期望 2 条，实际=%d", total)
	}
	if list[0].Merchant != "Mama Put" {
		t.Errorf("摘要应带商家名，实际=%q", list[0].Merchant)
	}

	completed, _, _ := admin.ListOrders(ctx, &dto.AdminOrderListRequest{Kind: model.OrderKindFood, Status: model.OrderCompleted})
	if len(completed) != 1 {
		t.Errorf("按状态筛选期望 1 条，实际=%d", len(completed))
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	future, _, _ := admin.ListOrders(ctx, &dto.AdminOrderListRequest{Kind: model.OrderKindFood, From: tomorrow})
	if len(future) != 0 {
		t.Errorf("未来日期不应有订单，实际=%d", len(future))
	}

	tests := []struct {
		name    string
		req     dto.AdminOrderListRequest
		wantErr error
	}{
		{"起止颠倒", dto.AdminOrderListRequest{Kind: model.OrderKindFood, From: tomorrow, To: today}, ErrInvalidDateRange},
		{"日期格式错误", dto.AdminOrderListRequest{Kind: model.OrderKindFood, From: "2026/10/01"}, ErrInvalidDateRange},
		{"未知类型", dto.AdminOrderListRequest{Kind: "taxi"}, ErrUnknownOrderKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := admin.ListOrders(ctx, &tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际=%v", tt.wantErr, err)
			}
		})
	}
}

func TestAdminCancelOrder_Delegates(t *testing.T) {
	admin, fx, _ := setupAdminService()
	ctx := context.Background()

	shopOrder, err := fx.shop.Checkout(ctx, "b1", &dto.ShopCheckoutRequest{ShopID: "S1", Items: []dto.ShopCartLine{shopLine("p1", 2)}})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if err := admin.CancelOrder(ctx, model.OrderKindShop, shopOrder.ShopOrderID, "admin-1", "重复下单"); err != nil {
		t.Fatalf("强制取消失败: %v", err)
	}
	stored := fx.st.shopOrders[shopOrder.ShopOrderID]
	if stored.Status != model.OrderCancelled || stored.CancelReason != "重复下单" {
		t.Errorf("取消状态或原因不正确: %s %q", stored.Status, stored.CancelReason)
	}
	if fx.st.shopItems["p1"].Stock != 5 {
		t.Errorf("强制取消也应回补库存，实际=%d", fx.st.shopItems["p1"].Stock)
	}

	laundryOrder, _ := fx.laundry.PlaceOrder(ctx, "s1", &dto.LaundryOrderRequest{ServiceID: "L1", WeightKg: 2, PickupAddress: "Hall 2"})
	if err := admin.CancelOrder(ctx, model.OrderKindLaundry, laundryOrder.LaundryOrderID, "admin-1", "测试"); err != nil {
		t.Fatalf("取消洗衣订单失败: %v", err)
	}

	if err := admin.CancelOrder(ctx, "taxi", "x", "admin-1", "测试"); !errors.Is(err, ErrUnknownOrderKind) {
		t.Errorf("期望 ErrUnknownOrderKind，实际=%v", err)
	}
	if err := admin.CancelOrder(ctx, model.OrderKindFood, "missing", "admin-1", "测试"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("期望 ErrOrderNotFound，实际=%v", err)
	}
}

func TestAdminExportOrders(t *testing.T) {
	admin, fx, _ := setupAdminService()
	ctx := context.Background()

	order := completedPickupOrder(t, fx)

	buf, filename, err := admin.ExportOrders(ctx, &dto.AdminOrderListRequest{Kind: model.OrderKindFood})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.HasPrefix(filename, "orders_food_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名不正确: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue("订单", "B1")
	id, _ := f.GetCellValue("订单", "B2")
	status, _ := f.GetCellValue("订单", "E2")
	if header != "订单号" || id != order.FoodOrderID {
		t.Errorf("导出内容不正确: header=%q id=%q", header, id)
	}
	if status != "已完成" {
		t.Errorf("状态列应为中文标签，实际=%q", status)
	}
}

func TestAdminUpdateSettings(t *testing.T) {
	admin, fx, _ := setupAdminService()
	ctx := context.Background()

	bps := 0
	settings, err := admin.UpdateSettings(ctx, &dto.UpdateSettingsRequest{ServiceFeeBps: &bps}, "admin-1")
	if err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}
	if settings.ServiceFeeBps != 0 || settings.MaxActiveDeliveries != 3 {
		t.Errorf("只应修改传入字段: %+v", settings)
	}

	// 新的费率立即作用于下单
	order, _ := fx.food.Checkout(ctx, "s1", &dto.CheckoutRequest{VendorID: "V1", Items: foodLines(foodLine("f2", 1))})
	if order.ServiceFeeMinor != 0 {
		t.Errorf("服务费应为 0，实际=%d", order.ServiceFeeMinor)
	}
}
