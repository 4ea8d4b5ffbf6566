// Package errors 数据层跨包共享的哨兵错误
package errors

import "errors"

var (
	// ErrOptimisticLock 按 version 条件更新未命中：记录已被其他请求修改
	ErrOptimisticLock = errors.New("记录已被其他请求修改，请刷新后重试")

	// ErrStockNotEnough 条件扣减库存未命中
	ErrStockNotEnough = errors.New("库存不足")
)
