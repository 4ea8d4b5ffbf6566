package model

import "time"

// 通知关联对象类型
const (
	RelatedFoodOrder    = "food_order"
	RelatedShopOrder    = "shop_order"
	RelatedLaundryOrder = "laundry_order"
	RelatedDelivery     = "delivery"
	RelatedTrip         = "trip"
	RelatedEnrollment   = "enrollment"
)

// Notification 站内通知，订单、配送、行程、成绩等状态变化时写入
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string     `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string     `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool       `gorm:"not null;default:false"                         json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	RelatedType    *string    `gorm:"type:varchar(20)"                               json:"related_type,omitempty"`
	RelatedID      *string    `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

func (Notification) TableName() string { return "notifications" }
