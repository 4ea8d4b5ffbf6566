package model

import "time"

// 履约方式
const (
	FulfilmentPickup   = "pickup"
	FulfilmentDelivery = "delivery"
)

// 订单状态（餐饮 / 商城 / 洗衣共用取值，合法流转见 service 层状态机）
const (
	OrderPending        = "pending"
	OrderAccepted       = "accepted"
	OrderConfirmed      = "confirmed"
	OrderRejected       = "rejected"
	OrderPreparing      = "preparing"
	OrderReady          = "ready"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCompleted      = "completed"
	OrderCancelled      = "cancelled"
	OrderPickedUp       = "picked_up"
	OrderWashing        = "washing"
)

// 订单类型
const (
	OrderKindFood    = "food"
	OrderKindShop    = "shop"
	OrderKindLaundry = "laundry"
)

// OrderTimestamps 订单状态时间戳
type OrderTimestamps struct {
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`
}

// FoodOrder 餐饮订单表，对应 food_orders
type FoodOrder struct {
	FoodOrderID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"food_order_id"`
	StudentID        string `gorm:"type:uuid;not null"                             json:"student_id"`
	VendorID         string `gorm:"type:uuid;not null"                             json:"vendor_id"`
	Status           string `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Fulfilment       string `gorm:"type:varchar(20);not null;default:'pickup'"     json:"fulfilment"` // pickup | delivery
	DeliveryAddress  string `gorm:"type:varchar(300)"                              json:"delivery_address,omitempty"`
	Note             string `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	SubtotalMinor    int64  `gorm:"not null"                                       json:"subtotal_minor"`
	DeliveryFeeMinor int64  `gorm:"not null;default:0"                             json:"delivery_fee_minor"`
	ServiceFeeMinor  int64  `gorm:"not null;default:0"                             json:"service_fee_minor"`
	TotalMinor       int64  `gorm:"not null"                                       json:"total_minor"`
	OrderTimestamps
	VersionedModel

	// 关联
	Items   []FoodOrderItem `gorm:"foreignKey:FoodOrderID"                      json:"items,omitempty"`
	Vendor  *Vendor         `gorm:"foreignKey:VendorID;references:VendorID"     json:"vendor,omitempty"`
	Student *User           `gorm:"foreignKey:StudentID;references:UserID"      json:"student,omitempty"`
}

// TableName 指定表名
func (FoodOrder) TableName() string { return "food_orders" }

// FoodOrderItem 餐饮订单明细，对应 food_order_items（下单时快照名称与单价）
type FoodOrderItem struct {
	FoodOrderItemID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"food_order_item_id"`
	FoodOrderID     string    `gorm:"type:uuid;not null"                             json:"food_order_id"`
	FoodItemID      string    `gorm:"type:uuid;not null"                             json:"food_item_id"`
	Name            string    `gorm:"type:varchar(100);not null"                     json:"name"`
	UnitPriceMinor  int64     `gorm:"not null"                                       json:"unit_price_minor"`
	Quantity        int       `gorm:"not null"                                       json:"quantity"`
	LineTotalMinor  int64     `gorm:"not null"                                       json:"line_total_minor"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (FoodOrderItem) TableName() string { return "food_order_items" }
