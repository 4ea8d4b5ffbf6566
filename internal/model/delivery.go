package model

import "time"

// 配送单状态
const (
	DeliveryPending   = "pending"
	DeliveryAssigned  = "assigned"
	DeliveryPickedUp  = "picked_up"
	DeliveryDelivered = "delivered"
	DeliveryCancelled = "cancelled"
)

// DeliveryAgent 骑手档案，对应 delivery_agents（与 rider 角色用户 1:1）
type DeliveryAgent struct {
	AgentID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"agent_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	UniversityID   *string `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	VehicleType    string  `gorm:"type:varchar(20);not null;default:'bicycle'"    json:"vehicle_type"` // foot | bicycle | motorcycle | car
	Phone          string  `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	IsAvailable    bool    `gorm:"not null;default:false"                         json:"is_available"`
	CompletedCount int     `gorm:"not null;default:0"                             json:"completed_count"`
	VersionedModel
}

// TableName 指定表名
func (DeliveryAgent) TableName() string { return "delivery_agents" }

// Delivery 配送单，对应 deliveries
type Delivery struct {
	DeliveryID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"delivery_id"`
	OrderKind      string     `gorm:"type:varchar(20);not null"                      json:"order_kind"` // food | shop
	OrderID        string     `gorm:"type:uuid;not null"                             json:"order_id"`
	CustomerID     string     `gorm:"type:uuid;not null"                             json:"customer_id"`
	MerchantUserID string     `gorm:"type:uuid;not null"                             json:"merchant_user_id"`
	UniversityID   *string    `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	RiderID        *string    `gorm:"type:uuid"                                      json:"rider_id,omitempty"`
	PickupAddress  string     `gorm:"type:varchar(300)"                              json:"pickup_address"`
	DropoffAddress string     `gorm:"type:varchar(300);not null"                     json:"dropoff_address"`
	FeeMinor       int64      `gorm:"not null;default:0"                             json:"fee_minor"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`
	PickedUpAt     *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Delivery) TableName() string { return "deliveries" }
