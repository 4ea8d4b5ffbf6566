package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
)

func setupTripService() (TripService, *mockStore) {
	repo, st := newMockRepository()
	notifier := NewNotificationService(repo, testLogger())
	return NewTripService(repo, notifier, testLogger()), st
}

func newRide(t *testing.T, svc TripService, userID string) *model.Trip {
	t.Helper()
	trip, err := svc.Create(context.Background(), userID, &dto.CreateTripRequest{
		Title:       "去机场",
		Origin:      "Main Gate",
		Destination: "Airport",
		DepartAt:    time.Date(2026, 11, 2, 7, 30, 0, 0, time.UTC),
		Mode:        model.TripModeRide,
	})
	if err != nil {
		t.Fatalf("创建行程失败: %v", err)
	}
	return trip
}

func TestTripCreate_Defaults(t *testing.T) {
	svc, _ := setupTripService()

	trip, err := svc.Create(context.Background(), "u1", &dto.CreateTripRequest{
		Title:       " 图书馆 ",
		Origin:      "Hall 1",
		Destination: "Library",
		DepartAt:    time.Date(2026, 11, 2, 9, 0, 0, 0, time.FixedZone("WAT", 3600)),
	})
	if err != nil {
		t.Fatalf("创建行程失败: %v", err)
	}
	if trip.Status != model.TripPlanned || trip.Mode != "walk" || trip.Seats != 1 {
		t.Errorf("默认值不正确: status=%s mode=%s seats=%d", trip.Status, trip.Mode, trip.Seats)
	}
	if trip.Title != "图书馆" {
		t.Errorf("标题应去除首尾空白，实际=%q", trip.Title)
	}
	if trip.DepartAt.Location() != time.UTC || trip.DepartAt.Hour() != 8 {
		t.Errorf("出发时间应转为 UTC，实际=%v", trip.DepartAt)
	}
}

func TestTripRideLifecycle(t *testing.T) {
	svc, st := setupTripService()
	ctx := context.Background()

	trip := newRide(t, svc, "u1")

	// 未发布的约车不对骑手开放
	if _, err := svc.AcceptRide(ctx, trip.TripID, "r1"); !errors.Is(err, ErrTripTaken) {
		t.Errorf("未发布的约车期望 ErrTripTaken，实际=%v", err)
	}

	if _, err := svc.ChangeStatus(ctx, trip.TripID, "u1", &dto.TripStatusRequest{Status: model.TripRequested}); err != nil {
		t.Fatalf("发布约车失败: %v", err)
	}
	open, total, _ := svc.ListOpenRides(ctx, &dto.PaginationRequest{})
	if total != 1 || len(open) != 1 {
		t.Fatalf("待接约车期望 1 条，实际=%d", total)
	}

	if _, err := svc.AcceptRide(ctx, trip.TripID, "u1"); !errors.Is(err, ErrTripSelfAccept) {
		t.Errorf("期望 ErrTripSelfAccept，实际=%v", err)
	}
	accepted, err := svc.AcceptRide(ctx, trip.TripID, "r1")
	if err != nil {
		t.Fatalf("骑手接单失败: %v", err)
	}
	if accepted.Status != model.TripAccepted || *accepted.RiderID != "r1" {
		t.Errorf("接单后状态不正确: %+v", accepted)
	}
	if _, err := svc.AcceptRide(ctx, trip.TripID, "r2"); !errors.Is(err, ErrTripTaken) {
		t.Errorf("第二位骑手期望 ErrTripTaken，实际=%v", err)
	}
	if n := len(st.notificationsFor("u1")); n != 1 {
		t.Errorf("发起人应收到接单通知，实际=%d", n)
	}

	// 已接单的行程不能再编辑或删除
	title := "改名"
	if _, err := svc.Update(ctx, trip.TripID, "u1", &dto.UpdateTripRequest{Title: &title}); !errors.Is(err, ErrTripNotEditable) {
		t.Errorf("期望 ErrTripNotEditable，实际=%v", err)
	}
	if err := svc.Delete(ctx, trip.TripID, "u1"); !errors.Is(err, ErrTripNotEditable) {
		t.Errorf("期望 ErrTripNotEditable，实际=%v", err)
	}

	// 发起人不能代替骑手开始行程
	if _, err := svc.ChangeStatus(ctx, trip.TripID, "u1", &dto.TripStatusRequest{Status: model.TripInProgress}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("期望 ErrInvalidTransition，实际=%v", err)
	}
	if _, err := svc.ChangeStatus(ctx, trip.TripID, "r1", &dto.TripStatusRequest{Status: model.TripInProgress}); err != nil {
		t.Fatalf("骑手开始行程失败: %v", err)
	}
	fare := int64(150000)
	done, err := svc.ChangeStatus(ctx, trip.TripID, "r1", &dto.TripStatusRequest{Status: model.TripCompleted, FareMinor: &fare})
	if err != nil {
		t.Fatalf("骑手完成行程失败: %v", err)
	}
	if done.FareMinor != 150000 || st.trips[trip.TripID].Status != model.TripCompleted {
		t.Errorf("完成后车费或状态不正确: %+v", done)
	}

	rides, _ := svc.ListRiderTrips(ctx, "r1")
	if len(rides) != 1 {
		t.Errorf("骑手行程期望 1 条，实际=%d", len(rides))
	}
}

func TestTripChangeStatus_Rules(t *testing.T) {
	svc, _ := setupTripService()
	ctx := context.Background()

	walk, _ := svc.Create(ctx, "u1", &dto.CreateTripRequest{Title: "上课", Origin: "A", Destination: "B", DepartAt: time.Now()})

	if _, err := svc.ChangeStatus(ctx, walk.TripID, "u1", &dto.TripStatusRequest{Status: model.TripRequested}); !errors.Is(err, ErrTripNotRide) {
		t.Errorf("步行行程不能约车，实际=%v", err)
	}
	if _, err := svc.ChangeStatus(ctx, walk.TripID, "u2", &dto.TripStatusRequest{Status: model.TripCompleted}); !errors.Is(err, ErrTripNotOwned) {
		t.Errorf("期望 ErrTripNotOwned，实际=%v", err)
	}
	if _, err := svc.ChangeStatus(ctx, walk.TripID, "u1", &dto.TripStatusRequest{Status: model.TripCompleted}); err != nil {
		t.Fatalf("完成计划行程失败: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, walk.TripID, "u1", &dto.TripStatusRequest{Status: model.TripCancelled}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("已完成行程不能取消，实际=%v", err)
	}
	if _, err := svc.ChangeStatus(ctx, "missing", "u1", &dto.TripStatusRequest{Status: model.TripCancelled}); !errors.Is(err, ErrTripNotFound) {
		t.Errorf("期望 ErrTripNotFound，实际=%v", err)
	}
}

func TestTripCancelAfterAccept_NotifiesRider(t *testing.T) {
	svc, st := setupTripService()
	ctx := context.Background()

	trip := newRide(t, svc, "u1")
	_, _ = svc.ChangeStatus(ctx, trip.TripID, "u1", &dto.TripStatusRequest{Status: model.TripRequested})
	if _, err := svc.AcceptRide(ctx, trip.TripID, "r1"); err != nil {
		t.Fatalf("接单失败: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, trip.TripID, "u1", &dto.TripStatusRequest{Status: model.TripCancelled}); err != nil {
		t.Fatalf("发起人取消失败: %v", err)
	}
	if n := len(st.notificationsFor("r1")); n != 1 {
		t.Errorf("骑手应收到取消通知，实际=%d", n)
	}
}

func TestTripGet_Visibility(t *testing.T) {
	svc, _ := setupTripService()
	ctx := context.Background()

	trip := newRide(t, svc, "u1")
	if _, err := svc.Get(ctx, trip.TripID, "r1", model.RoleRider); !errors.Is(err, ErrTripNotOwned) {
		t.Errorf("未发布的约车对骑手不可见，实际=%v", err)
	}
	_, _ = svc.ChangeStatus(ctx, trip.TripID, "u1", &dto.TripStatusRequest{Status: model.TripRequested})
	if _, err := svc.Get(ctx, trip.TripID, "r1", model.RoleRider); err != nil {
		t.Errorf("已发布的约车对骑手可见，实际=%v", err)
	}
	if _, err := svc.Get(ctx, trip.TripID, "u2", model.RoleStudent); !errors.Is(err, ErrTripNotOwned) {
		t.Errorf("期望 ErrTripNotOwned，实际=%v", err)
	}
}
