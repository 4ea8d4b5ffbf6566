package service

import (
	"context"
	"errors"
	"testing"

	"unilife/backend/internal/dto"
)

func TestNotificationLifecycle(t *testing.T) {
	repo, st := newMockRepository()
	svc := NewNotificationService(repo, testLogger())
	ctx := context.Background()

	svc.Notify(ctx, "u1", NotifyOrder, "新订单", "订单 #1", "food_order", "fo-1")
	svc.Notify(ctx, "u1", NotifyTrip, "行程", "已接单", "", "")
	svc.Notify(ctx, "u2", NotifyOrder, "别人的", "x", "", "")
	svc.Notify(ctx, "", NotifyOrder, "忽略", "空用户不写入", "", "")

	if len(st.notifications) != 3 {
		t.Fatalf("期望写入 3 条通知，实际=%d", len(st.notifications))
	}

	unread, _ := svc.UnreadCount(ctx, "u1")
	if unread != 2 {
		t.Errorf("期望未读 2，实际=%d", unread)
	}

	list, total, err := svc.List(ctx, "u1", &dto.NotificationListRequest{})
	if err != nil || total != 2 {
		t.Fatalf("List 失败: total=%d err=%v", total, err)
	}
	var related string
	for _, n := range list {
		if n.RelatedID != nil {
			related = *n.RelatedID
		}
	}
	if related != "fo-1" {
		t.Errorf("关联 ID 应写入，实际=%q", related)
	}

	// 不能标记他人的通知
	otherID := st.notificationsFor("u2")[0].NotificationID
	if err := svc.MarkRead(ctx, otherID, "u1"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际=%v", err)
	}

	if err := svc.MarkRead(ctx, list[0].NotificationID, "u1"); err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}
	unreadOnly, _, _ := svc.List(ctx, "u1", &dto.NotificationListRequest{UnreadOnly: true})
	if len(unreadOnly) != 1 {
		t.Errorf("仅未读应剩 1 条，实际=%d", len(unreadOnly))
	}

	n, err := svc.MarkAllRead(ctx, "u1")
	if err != nil || n != 1 {
		t.Errorf("全部已读应更新 1 条，实际 n=%d err=%v", n, err)
	}

	if err := svc.Delete(ctx, list[0].NotificationID, "u1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if err := svc.Delete(ctx, list[0].NotificationID, "u1"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("重复删除期望 ErrNotificationNotFound，实际=%v", err)
	}
}
