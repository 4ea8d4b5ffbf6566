package dto

// ── 平台管理 DTO ──

// UpdateSettingsRequest 修改平台配置
type UpdateSettingsRequest struct {
	ServiceFeeBps           *int     `json:"service_fee_bps"            binding:"omitempty,min=0,max=5000"`
	MaxActiveDeliveries     *int     `json:"max_active_deliveries"      binding:"omitempty,min=1,max=20"`
	DefaultDeliveryFeeMinor *int64   `json:"default_delivery_fee_minor" binding:"omitempty,min=0"`
	LaundryMinWeightKg      *float64 `json:"laundry_min_weight_kg"      binding:"omitempty,gt=0,max=30"`
}

// AdminOrderListRequest 管理端订单查询参数
type AdminOrderListRequest struct {
	PaginationRequest
	Kind   string `form:"kind"   binding:"required,oneof=food shop laundry"`
	Status string `form:"status" binding:"omitempty,max=20"`
	From   string `form:"from"   binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"     binding:"omitempty,datetime=2006-01-02"`
}

// AdminCancelRequest 管理员强制取消订单
type AdminCancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// OrderSummary 管理端统一的订单摘要
type OrderSummary struct {
	Kind       string `json:"kind"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Merchant   string `json:"merchant"`
	Status     string `json:"status"`
	Fulfilment string `json:"fulfilment,omitempty"`
	TotalMinor int64  `json:"total_minor"`
	CreatedAt  string `json:"created_at"`
}

// StatsResponse 平台统计
type StatsResponse struct {
	TotalUsers       int64            `json:"total_users"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
	Universities     int64            `json:"universities"`
	Vendors          int64            `json:"vendors"` // 已建档的餐饮商家
	Shops            int64            `json:"shops"`
	FoodOrders       int64            `json:"food_orders"`
	ShopOrders       int64            `json:"shop_orders"`
	LaundryOrders    int64            `json:"laundry_orders"`
	Trips            int64            `json:"trips"`
	GrossVolumeMinor int64            `json:"gross_volume_minor"`
	// OrdersByStatus 订单类型（food / shop / laundry）→ 状态 → 数量
	OrdersByStatus map[string]map[string]int64 `json:"orders_by_status"`
	GeneratedAt    string                      `json:"generated_at"`
}
