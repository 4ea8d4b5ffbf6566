package model

import "time"

// LaundryService 洗衣服务，对应 laundry_services
type LaundryService struct {
	LaundryServiceID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"laundry_service_id"`
	OwnerID          string  `gorm:"type:uuid;not null"                             json:"owner_id"`
	UniversityID     *string `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	Name             string  `gorm:"type:varchar(150);not null"                     json:"name"`
	Description      string  `gorm:"type:text"                                      json:"description,omitempty"`
	PricePerKgMinor  int64   `gorm:"not null"                                       json:"price_per_kg_minor"`
	TurnaroundHours  int     `gorm:"not null;default:48"                            json:"turnaround_hours"`
	IsActive         bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (LaundryService) TableName() string { return "laundry_services" }

// LaundryOrder 洗衣订单，对应 laundry_orders
type LaundryOrder struct {
	LaundryOrderID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"laundry_order_id"`
	StudentID        string     `gorm:"type:uuid;not null"                             json:"student_id"`
	ServiceID        string     `gorm:"type:uuid;not null"                             json:"service_id"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | picked_up | washing | ready | delivered | rejected | cancelled
	WeightKg         float64    `gorm:"type:numeric(5,2);not null"                     json:"weight_kg"`
	PickupAddress    string     `gorm:"type:varchar(300);not null"                     json:"pickup_address"`
	Note             string     `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	TotalMinor       int64      `gorm:"not null"                                       json:"total_minor"`
	EstimatedReadyAt *time.Time `json:"estimated_ready_at,omitempty"`
	OrderTimestamps
	VersionedModel

	// 关联
	Service *LaundryService `gorm:"foreignKey:ServiceID;references:LaundryServiceID" json:"service,omitempty"`
}

// TableName 指定表名
func (LaundryOrder) TableName() string { return "laundry_orders" }
