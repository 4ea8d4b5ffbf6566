package repository

import (
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// OrderFilter 订单列表筛选条件（学生、商家、管理端共用）
type OrderFilter struct {
	OwnerColumn string // student_id / vendor_id / buyer_id / shop_id 等，为空时不限
	OwnerID     string
	Status      string
	From        *time.Time
	To          *time.Time
}

// OrderStats 订单汇总
type OrderStats struct {
	Count            int64
	GrossVolumeMinor int64            // 仅 delivered / completed 订单
	ByStatus         map[string]int64 // 状态 → 订单数
}

// applyOrderFilter 拼接通用的订单筛选条件
func applyOrderFilter(db *gorm.DB, f OrderFilter) *gorm.DB {
	if f.OwnerColumn != "" && f.OwnerID != "" {
		db = db.Where(f.OwnerColumn+" = ?", f.OwnerID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at < ?", *f.To)
	}
	return db
}

// orderStats 按状态分组统计订单数，成交额只计已送达 / 已完成的订单
func orderStats(db *gorm.DB, mdl interface{}) (*OrderStats, error) {
	var rows []struct {
		Status     string
		Count      int64
		TotalMinor int64
	}
	err := db.Model(mdl).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_minor), 0) AS total_minor").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{ByStatus: make(map[string]int64, len(rows))}
	for _, row := range rows {
		stats.Count += row.Count
		stats.ByStatus[row.Status] = row.Count
		if row.Status == model.OrderDelivered || row.Status == model.OrderCompleted {
			stats.GrossVolumeMinor += row.TotalMinor
		}
	}
	return stats, nil
}

// statusFields 订单状态更新字段
func statusFields(status string, ts model.OrderTimestamps, updatedBy *string) map[string]interface{} {
	return map[string]interface{}{
		"status":        status,
		"accepted_at":   ts.AcceptedAt,
		"ready_at":      ts.ReadyAt,
		"completed_at":  ts.CompletedAt,
		"cancelled_at":  ts.CancelledAt,
		"cancel_reason": ts.CancelReason,
		"updated_by":    updatedBy,
		"updated_at":    time.Now(),
	}
}
