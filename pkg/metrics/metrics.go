package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 认证指标
	AuthAttemptsTotal *prometheus.CounterVec

	// 订单指标
	OrdersCreatedTotal     *prometheus.CounterVec
	OrderTransitionsTotal  *prometheus.CounterVec
	OrderValueMinorTotal   *prometheus.CounterVec
	DeliveryAcceptConflict prometheus.Counter

	// 外部依赖指标
	PlacesRequestsTotal *prometheus.CounterVec

	initOnce sync.Once
)

// Init 以配置的前缀注册全部指标，重复调用只生效一次
func Init(prefix string) {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "HTTP 请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "HTTP 请求耗时（秒）",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "认证尝试次数，按动作与结果区分",
			},
			[]string{"action", "result"},
		)

		OrdersCreatedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_orders_created_total",
				Help: "创建的订单数，按订单类型区分",
			},
			[]string{"kind"},
		)

		OrderTransitionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_transitions_total",
				Help: "订单状态流转次数",
			},
			[]string{"kind", "to"},
		)

		OrderValueMinorTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_value_minor_total",
				Help: "下单金额累计（最小货币单位）",
			},
			[]string{"kind"},
		)

		DeliveryAcceptConflict = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_delivery_accept_conflicts_total",
				Help: "骑手抢单失败次数",
			},
		)

		PlacesRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_places_requests_total",
				Help: "地点检索请求数，按来源区分（cache / upstream / error）",
			},
			[]string{"source"},
		)
	})
}

// Handler 返回 /metrics 的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ── 记录函数（未初始化时为空操作，便于单元测试） ──

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

// RecordAuth 记录认证动作结果，result 取 success / failure
func RecordAuth(action, result string) {
	if AuthAttemptsTotal == nil {
		return
	}
	AuthAttemptsTotal.WithLabelValues(action, result).Inc()
}

// RecordOrderCreated 记录下单及金额
func RecordOrderCreated(kind string, totalMinor int64) {
	if OrdersCreatedTotal == nil {
		return
	}
	OrdersCreatedTotal.WithLabelValues(kind).Inc()
	if totalMinor > 0 {
		OrderValueMinorTotal.WithLabelValues(kind).Add(float64(totalMinor))
	}
}

// RecordTransition 记录订单状态流转
func RecordTransition(kind, to string) {
	if OrderTransitionsTotal == nil {
		return
	}
	OrderTransitionsTotal.WithLabelValues(kind, to).Inc()
}

// RecordDeliveryConflict 记录抢单冲突
func RecordDeliveryConflict() {
	if DeliveryAcceptConflict == nil {
		return
	}
	DeliveryAcceptConflict.Inc()
}

// RecordPlaces 记录地点检索来源
func RecordPlaces(source string) {
	if PlacesRequestsTotal == nil {
		return
	}
	PlacesRequestsTotal.WithLabelValues(source).Inc()
}
