package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlatformSettings 平台配置表，对应 platform_settings（单行强类型）
type PlatformSettings struct {
	Singleton               bool    `gorm:"primaryKey;default:true"            json:"-"`
	ServiceFeeBps           int     `gorm:"not null;default:250"               json:"service_fee_bps"` // 服务费，万分比
	MaxActiveDeliveries     int     `gorm:"not null;default:3"                 json:"max_active_deliveries"`
	DefaultDeliveryFeeMinor int64   `gorm:"not null;default:50000"             json:"default_delivery_fee_minor"`
	LaundryMinWeightKg      float64 `gorm:"type:numeric(5,2);not null;default:0.5" json:"laundry_min_weight_kg"`
	BaseModel
}

// TableName 指定表名
func (PlatformSettings) TableName() string { return "platform_settings" }

// PlatformStats 平台统计快照，对应 platform_stats
type PlatformStats struct {
	StatsID          string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"stats_id"`
	TotalUsers       int64             `gorm:"not null;default:0"                             json:"total_users"`
	Students         int64             `gorm:"not null;default:0"                             json:"students"`
	Lecturers        int64             `gorm:"not null;default:0"                             json:"lecturers"`
	Vendors          int64             `gorm:"not null;default:0"                             json:"vendors"`
	Riders           int64             `gorm:"not null;default:0"                             json:"riders"`
	Universities     int64             `gorm:"not null;default:0"                             json:"universities"`
	Shops            int64             `gorm:"not null;default:0"                             json:"shops"`
	FoodOrders       int64             `gorm:"not null;default:0"                             json:"food_orders"`
	ShopOrders       int64             `gorm:"not null;default:0"                             json:"shop_orders"`
	LaundryOrders    int64             `gorm:"not null;default:0"                             json:"laundry_orders"`
	Trips            int64             `gorm:"not null;default:0"                             json:"trips"`
	GrossVolumeMinor int64             `gorm:"not null;default:0"                             json:"gross_volume_minor"`
	VendorProfiles   int64             `gorm:"not null;default:0"                             json:"vendor_profiles"`
	OrdersByStatus   OrderStatusCounts `gorm:"type:jsonb;not null;default:'{}'"       json:"orders_by_status"`
	CapturedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"captured_at"`
	CapturedBy       *string           `gorm:"type:uuid"                                      json:"captured_by,omitempty"`
}

// TableName 指定表名
func (PlatformStats) TableName() string { return "platform_stats" }

// OrderStatusCounts 订单类型 → 状态 → 数量，以 jsonb 存储
type OrderStatusCounts map[string]map[string]int64

// Scan 解析 jsonb 文本
func (c *OrderStatusCounts) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("OrderStatusCounts.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(raw, c)
}

// Value 序列化为 jsonb 文本，nil 写为 {}
func (c OrderStatusCounts) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
