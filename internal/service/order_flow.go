package service

import (
	"errors"
	"time"

	"unilife/backend/internal/model"
	"unilife/backend/pkg/metrics"
)

// ── 订单通用业务错误 ──

var (
	ErrOrderNotFound           = errors.New("订单不存在")
	ErrOrderNotOwned           = errors.New("无权操作该订单")
	ErrInvalidTransition       = errors.New("当前订单状态不允许此操作")
	ErrCartEmpty               = errors.New("购物车为空")
	ErrInvalidQuantity         = errors.New("单项数量必须在 1-50 之间")
	ErrItemUnavailable         = errors.New("商品不存在或已下架")
	ErrDeliveryAddressRequired = errors.New("配送订单必须填写收货地址")
)

// maxLineQuantity 单个购物车行的数量上限
const maxLineQuantity = 50

// 状态变更的发起方
const (
	actorCustomer = "customer"
	actorMerchant = "merchant"
	actorRider    = "rider"
	actorAdmin    = "admin"
)

// transitionTable from -> to -> 允许的发起方
type transitionTable map[string]map[string]string

// allows 管理员可将任意未终结订单强制取消
func (t transitionTable) allows(from, to, actor string) bool {
	if actor == actorAdmin && to == model.OrderCancelled {
		return !isTerminalOrderStatus(from)
	}
	return t[from][to] == actor
}

var foodTransitions = transitionTable{
	model.OrderPending: {
		model.OrderAccepted:  actorMerchant,
		model.OrderRejected:  actorMerchant,
		model.OrderCancelled: actorCustomer,
	},
	model.OrderAccepted:       {model.OrderPreparing: actorMerchant},
	model.OrderPreparing:      {model.OrderReady: actorMerchant},
	model.OrderReady:          {model.OrderOutForDelivery: actorRider, model.OrderCompleted: actorMerchant},
	model.OrderOutForDelivery: {model.OrderDelivered: actorRider},
}

var shopTransitions = transitionTable{
	model.OrderPending: {
		model.OrderConfirmed: actorMerchant,
		model.OrderRejected:  actorMerchant,
		model.OrderCancelled: actorCustomer,
	},
	model.OrderConfirmed:      {model.OrderReady: actorMerchant},
	model.OrderReady:          {model.OrderOutForDelivery: actorRider, model.OrderCompleted: actorMerchant},
	model.OrderOutForDelivery: {model.OrderDelivered: actorRider},
}

var laundryTransitions = transitionTable{
	model.OrderPending: {
		model.OrderAccepted:  actorMerchant,
		model.OrderRejected:  actorMerchant,
		model.OrderCancelled: actorCustomer,
	},
	model.OrderAccepted: {model.OrderPickedUp: actorMerchant},
	model.OrderPickedUp: {model.OrderWashing: actorMerchant},
	model.OrderWashing:  {model.OrderReady: actorMerchant},
	model.OrderReady:    {model.OrderDelivered: actorMerchant},
}

func transitionsFor(kind string) transitionTable {
	switch kind {
	case model.OrderKindFood:
		return foodTransitions
	case model.OrderKindShop:
		return shopTransitions
	default:
		return laundryTransitions
	}
}

func isTerminalOrderStatus(status string) bool {
	switch status {
	case model.OrderRejected, model.OrderCancelled, model.OrderDelivered, model.OrderCompleted:
		return true
	}
	return false
}

// checkFulfilment ready 之后的分支由履约方式决定：自取由商家完成，配送由骑手取货
func checkFulfilment(fulfilment, to string) error {
	if to == model.OrderCompleted && fulfilment != model.FulfilmentPickup {
		return ErrInvalidTransition
	}
	if to == model.OrderOutForDelivery && fulfilment != model.FulfilmentDelivery {
		return ErrInvalidTransition
	}
	return nil
}

// applyTransition 校验状态流转并写入对应的时间戳
func applyTransition(kind string, status *string, ts *model.OrderTimestamps, to, actor, reason string, now time.Time) error {
	if !transitionsFor(kind).allows(*status, to, actor) {
		return ErrInvalidTransition
	}

	switch to {
	case model.OrderAccepted, model.OrderConfirmed:
		ts.AcceptedAt = &now
	case model.OrderReady:
		ts.ReadyAt = &now
	case model.OrderCompleted, model.OrderDelivered:
		ts.CompletedAt = &now
	case model.OrderCancelled, model.OrderRejected:
		ts.CancelledAt = &now
		ts.CancelReason = reason
	}
	*status = to
	return nil
}

// recordTransition 状态流转成功后的指标
func recordTransition(kind, to string) {
	metrics.RecordTransition(kind, to)
}

// serviceFee 平台服务费 = subtotal × bps / 10000（向下取整）
func serviceFee(subtotal int64, bps int) int64 {
	if bps <= 0 {
		return 0
	}
	return subtotal * int64(bps) / 10000
}

// mergeCartLines 合并重复商品并校验数量
func mergeCartLines(ids []string, qtys []int) (map[string]int, []string, error) {
	if len(ids) == 0 {
		return nil, nil, ErrCartEmpty
	}
	merged := make(map[string]int, len(ids))
	order := make([]string, 0, len(ids))
	for i, id := range ids {
		q := qtys[i]
		if q < 1 || q > maxLineQuantity {
			return nil, nil, ErrInvalidQuantity
		}
		if _, ok := merged[id]; !ok {
			order = append(order, id)
		}
		merged[id] += q
		if merged[id] > maxLineQuantity {
			return nil, nil, ErrInvalidQuantity
		}
	}
	return merged, order, nil
}

// statusLabel 通知文案中的状态名称
var statusLabel = map[string]string{
	model.OrderPending:        "待处理",
	model.OrderAccepted:       "已接单",
	model.OrderConfirmed:      "已确认",
	model.OrderRejected:       "已拒单",
	model.OrderPreparing:      "制作中",
	model.OrderReady:          "已备好",
	model.OrderOutForDelivery: "配送中",
	model.OrderDelivered:      "已送达",
	model.OrderCompleted:      "已完成",
	model.OrderCancelled:      "已取消",
	model.OrderPickedUp:       "已取件",
	model.OrderWashing:        "清洗中",
}
