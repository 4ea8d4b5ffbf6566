package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBeforeInit_NoPanic(t *testing.T) {
	// 未初始化时所有记录函数应为空操作
	if HTTPRequestsTotal != nil {
		t.Skip("指标已被其他测试初始化")
	}
	ObserveHTTP("GET", "/x", "200", time.Millisecond)
	RecordAuth("login", "success")
	RecordOrderCreated("food", 100)
	RecordTransition("food", "accepted")
	RecordDeliveryConflict()
	RecordPlaces("cache")
}

func TestInit_Idempotent(t *testing.T) {
	Init("unilife_test")
	Init("unilife_test")

	RecordOrderCreated("food", 1500)
	RecordOrderCreated("food", 500)
	RecordTransition("shop", "confirmed")

	if got := testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("food")); got != 2 {
		t.Errorf("期望 food 订单数=2，实际=%v", got)
	}
	if got := testutil.ToFloat64(OrderValueMinorTotal.WithLabelValues("food")); got != 2000 {
		t.Errorf("期望 food 金额=2000，实际=%v", got)
	}
	if got := testutil.ToFloat64(OrderTransitionsTotal.WithLabelValues("shop", "confirmed")); got != 1 {
		t.Errorf("期望流转次数=1，实际=%v", got)
	}
}
