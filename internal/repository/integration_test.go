//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/database"
	pkgerrors "unilife/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=unilife password=unilife_password dbname=unilife_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 与生产一致，通过 golang-migrate 建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

type fixture struct {
	uni      *model.University
	lecturer *model.User
	student  *model.User
	course   *model.Course
}

// setupFixture 创建一所高校、一名讲师、一名学生与一门课程，返回清理函数
func setupFixture(t *testing.T) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	suffix := time.Now().UnixNano()

	f := &fixture{}
	f.uni = &model.University{Name: fmt.Sprintf("测试大学-%d", suffix), IsActive: true}
	if err := repo.University.Create(ctx, f.uni); err != nil {
		t.Fatalf("创建高校失败: %v", err)
	}

	newUser := func(role string) *model.User {
		u := &model.User{
			FullName:     "测试" + role,
			Email:        fmt.Sprintf("%s-%d@test.edu", role, suffix),
			PasswordHash: "$2a$10$placeholder",
			Role:         role,
			UniversityID: &f.uni.UniversityID,
			IsActive:     true,
		}
		if err := repo.User.Create(ctx, u); err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
		return u
	}
	f.lecturer = newUser(model.RoleLecturer)
	f.student = newUser(model.RoleStudent)

	f.course = &model.Course{
		UniversityID: f.uni.UniversityID,
		LecturerID:   f.lecturer.UserID,
		Code:         fmt.Sprintf("T%d", suffix%100000),
		Title:        "集成测试课程",
		Units:        3,
	}
	if err := repo.Course.Create(ctx, f.course); err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}

	cleanup := func() {
		testDB.Exec("DELETE FROM timetables WHERE course_id = ?", f.course.CourseID)
		testDB.Exec("DELETE FROM courses WHERE university_id = ?", f.uni.UniversityID)
		testDB.Exec("DELETE FROM deliveries WHERE university_id = ?", f.uni.UniversityID)
		testDB.Exec("DELETE FROM shop_items WHERE shop_id IN (SELECT shop_id FROM shops WHERE university_id = ?)", f.uni.UniversityID)
		testDB.Exec("DELETE FROM shops WHERE university_id = ?", f.uni.UniversityID)
		testDB.Exec("DELETE FROM delivery_agents WHERE university_id = ?", f.uni.UniversityID)
		testDB.Exec("DELETE FROM users WHERE university_id = ?", f.uni.UniversityID)
		testDB.Exec("DELETE FROM universities WHERE university_id = ?", f.uni.UniversityID)
	}
	return f, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	entry := &model.TimetableEntry{
		CourseID: f.course.CourseID, LecturerID: f.lecturer.UserID,
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SessionType: model.SessionLecture,
	}
	if err := txRepo.Timetable.Create(ctx, entry); err != nil {
		t.Fatalf("事务内创建失败: %v", err)
	}
	tx.Rollback()

	if _, err := repo.Timetable.GetByID(ctx, entry.TimetableID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("回滚后记录不应存在，得到: %v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var entryID string
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		entry := &model.TimetableEntry{
			CourseID: f.course.CourseID, LecturerID: f.lecturer.UserID,
			DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00", SessionType: model.SessionLecture,
		}
		if err := txRepo.Timetable.Create(ctx, entry); err != nil {
			return err
		}
		entryID = entry.TimetableID
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction 失败: %v", err)
	}

	if _, err := repo.Timetable.GetByID(ctx, entryID); err != nil {
		t.Errorf("提交后应能读到记录: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock / Soft Delete
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Course(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first, _ := repo.Course.GetByID(ctx, f.course.CourseID)
	second, _ := repo.Course.GetByID(ctx, f.course.CourseID)

	first.Title = "第一次修改"
	if err := repo.Course.Update(ctx, first); err != nil {
		t.Fatalf("首次更新失败: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("更新后版本应为 2，得到: %d", first.Version)
	}

	second.Title = "过期修改"
	if err := repo.Course.Update(ctx, second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestSoftDelete_CourseInvisible(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Course.Delete(ctx, f.course.CourseID, f.lecturer.UserID); err != nil {
		t.Fatalf("软删除失败: %v", err)
	}
	if _, err := repo.Course.GetByID(ctx, f.course.CourseID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("软删除后不应可见，得到: %v", err)
	}
	// 同校同代码可以重新开设
	again := &model.Course{UniversityID: f.uni.UniversityID, LecturerID: f.lecturer.UserID, Code: f.course.Code, Title: "重开", Units: 2}
	if err := repo.Course.Create(ctx, again); err != nil {
		t.Errorf("软删除后应允许复用课程代码: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Timetable Overlap (half-open)
// ═══════════════════════════════════════════════════════════

func TestTimetable_FindOverlappingHalfOpen(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	entry := &model.TimetableEntry{
		CourseID: f.course.CourseID, LecturerID: f.lecturer.UserID,
		DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00", SessionType: model.SessionLecture,
	}
	if err := repo.Timetable.Create(ctx, entry); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"相邻不冲突", "10:00", "12:00", 0},
		{"部分重叠", "09:30", "11:00", 1},
		{"完全包含", "08:30", "09:30", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Timetable.FindOverlapping(ctx, repository.OverlapQuery{
				DayOfWeek: 3, Start: tt.start, End: tt.end, LecturerID: f.lecturer.UserID,
			})
			if err != nil {
				t.Fatalf("查询失败: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("期望 %d 条重叠，得到 %d", tt.want, len(got))
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Conditional Updates
// ═══════════════════════════════════════════════════════════

func TestShopItem_DecrementStock(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	shop := &model.Shop{OwnerID: f.lecturer.UserID, UniversityID: &f.uni.UniversityID, Name: "测试小店", IsOpen: true}
	if err := repo.Shop.Create(ctx, shop); err != nil {
		t.Fatalf("创建店铺失败: %v", err)
	}
	item := &model.ShopItem{ShopID: shop.ShopID, Name: "笔记本", PriceMinor: 1500, Stock: 3, IsActive: true}
	if err := repo.ShopItem.Create(ctx, item); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	if err := repo.ShopItem.DecrementStock(ctx, item.ShopItemID, 2); err != nil {
		t.Fatalf("扣减库存失败: %v", err)
	}
	if err := repo.ShopItem.DecrementStock(ctx, item.ShopItemID, 2); !errors.Is(err, repository.ErrStockNotEnough) {
		t.Errorf("库存不足时期望 ErrStockNotEnough，得到: %v", err)
	}

	got, _ := repo.ShopItem.GetByID(ctx, item.ShopItemID)
	if got.Stock != 1 {
		t.Errorf("剩余库存应为 1，得到: %d", got.Stock)
	}
}

// 插入失败时调用方的订单明细保持原样，可直接重试或记录
func TestOrderCreate_FailureKeepsItems(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	food := &model.FoodOrder{
		StudentID:     f.student.UserID,
		VendorID:      uuid.NewString(), // 商家不存在，订单头插入违反外键
		SubtotalMinor: 1000,
		TotalMinor:    1000,
		Items:         []model.FoodOrderItem{{FoodItemID: uuid.NewString(), Name: "米饭", UnitPriceMinor: 1000, Quantity: 1, LineTotalMinor: 1000}},
	}
	if err := repo.FoodOrder.Create(ctx, food); err == nil {
		t.Fatal("商家不存在时应插入失败")
	}
	if len(food.Items) != 1 || food.Items[0].Name != "米饭" {
		t.Errorf("餐饮订单明细应保留，实际=%+v", food.Items)
	}

	shop := &model.Shop{OwnerID: f.lecturer.UserID, UniversityID: &f.uni.UniversityID, Name: "明细测试店", IsOpen: true}
	if err := repo.Shop.Create(ctx, shop); err != nil {
		t.Fatalf("创建店铺失败: %v", err)
	}
	order := &model.ShopOrder{
		BuyerID:       f.student.UserID,
		ShopID:        shop.ShopID,
		SubtotalMinor: 1500,
		TotalMinor:    1500,
		Items:         []model.ShopOrderItem{{ShopItemID: uuid.NewString(), Name: "笔记本", UnitPriceMinor: 1500, Quantity: 1, LineTotalMinor: 1500}},
	}
	// 订单头插入成功、明细违反外键
	if err := repo.ShopOrder.Create(ctx, order); err == nil {
		t.Fatal("商品不存在时应插入失败")
	}
	if len(order.Items) != 1 || order.Items[0].Name != "笔记本" {
		t.Errorf("商城订单明细应保留，实际=%+v", order.Items)
	}
	var headers int64
	testDB.Model(&model.ShopOrder{}).Where("shop_id = ?", shop.ShopID).Count(&headers)
	if headers != 0 {
		t.Errorf("明细失败时订单头应回滚，实际残留=%d", headers)
	}
}

func TestDelivery_AssignFirstComeWins(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	d := &model.Delivery{
		OrderKind:      model.OrderKindFood,
		OrderID:        uuid.NewString(),
		CustomerID:     f.student.UserID,
		MerchantUserID: f.lecturer.UserID,
		UniversityID:   &f.uni.UniversityID,
		DropoffAddress: "宿舍 3 栋",
		Status:         model.DeliveryPending,
	}
	if err := repo.Delivery.Create(ctx, d); err != nil {
		t.Fatalf("创建配送单失败: %v", err)
	}

	won, err := repo.Delivery.Assign(ctx, d.DeliveryID, f.student.UserID, time.Now())
	if err != nil || !won {
		t.Fatalf("首个骑手应抢到: won=%v err=%v", won, err)
	}
	won, err = repo.Delivery.Assign(ctx, d.DeliveryID, f.lecturer.UserID, time.Now())
	if err != nil {
		t.Fatalf("Assign 出错: %v", err)
	}
	if won {
		t.Error("配送单已被接走，后来者不应抢到")
	}
}

// TestDelivery_AcceptCapacityUnderRowLock 同一骑手并发抢两张单，上限为 1 时只能成功一次
func TestDelivery_AcceptCapacityUnderRowLock(t *testing.T) {
	f, cleanup := setupFixture(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rider := f.student
	agent := &model.DeliveryAgent{UserID: rider.UserID, UniversityID: &f.uni.UniversityID, VehicleType: "bicycle", IsAvailable: true}
	if err := repo.DeliveryAgent.Create(ctx, agent); err != nil {
		t.Fatalf("创建骑手档案失败: %v", err)
	}

	ids := make([]string, 2)
	for i := range ids {
		d := &model.Delivery{
			OrderKind:      model.OrderKindFood,
			OrderID:        uuid.NewString(),
			CustomerID:     f.lecturer.UserID,
			MerchantUserID: f.lecturer.UserID,
			UniversityID:   &f.uni.UniversityID,
			DropoffAddress: "宿舍 5 栋",
			Status:         model.DeliveryPending,
		}
		if err := repo.Delivery.Create(ctx, d); err != nil {
			t.Fatalf("创建配送单失败: %v", err)
		}
		ids[i] = d.DeliveryID
	}

	const maxActive = 1
	errAtCapacity := errors.New("at capacity")
	accept := func(deliveryID string) error {
		return repo.Transaction(ctx, func(tx *repository.Repository) error {
			if _, err := tx.DeliveryAgent.GetByUserIDForUpdate(ctx, rider.UserID); err != nil {
				return err
			}
			active, err := tx.Delivery.CountActiveByRider(ctx, rider.UserID)
			if err != nil {
				return err
			}
			if active >= maxActive {
				return errAtCapacity
			}
			// 拉长持锁时间，让另一个事务必然在锁上等待
			time.Sleep(50 * time.Millisecond)
			won, err := tx.Delivery.Assign(ctx, deliveryID, rider.UserID, time.Now())
			if err != nil {
				return err
			}
			if !won {
				return errors.New("lost race")
			}
			return nil
		})
	}

	var wg sync.WaitGroup
	results := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = accept(id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errAtCapacity):
		default:
			t.Errorf("意外错误: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("上限为 1 时应恰好成功 1 次，实际=%d", succeeded)
	}

	active, err := repo.Delivery.CountActiveByRider(ctx, rider.UserID)
	if err != nil || active != 1 {
		t.Errorf("骑手活跃配送单应为 1: active=%d err=%v", active, err)
	}
}
