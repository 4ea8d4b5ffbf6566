package model

import "time"

// 行程状态
const (
	TripPlanned    = "planned"
	TripRequested  = "requested"
	TripAccepted   = "accepted"
	TripInProgress = "in_progress"
	TripCompleted  = "completed"
	TripCancelled  = "cancelled"
)

// TripModeRide 需要骑手接单的出行方式
const TripModeRide = "ride"

// Trip 出行计划 / 约车，对应 trips
type Trip struct {
	TripID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"trip_id"`
	UserID             string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Title              string    `gorm:"type:varchar(150);not null"                     json:"title"`
	Origin             string    `gorm:"type:varchar(300);not null"                     json:"origin"`
	Destination        string    `gorm:"type:varchar(300);not null"                     json:"destination"`
	OriginPlaceID      string    `gorm:"type:varchar(255)"                              json:"origin_place_id,omitempty"`
	DestinationPlaceID string    `gorm:"type:varchar(255)"                              json:"destination_place_id,omitempty"`
	DepartAt           time.Time `gorm:"not null"                                       json:"depart_at"`
	Seats              int       `gorm:"type:smallint;not null;default:1"               json:"seats"`
	Mode               string    `gorm:"type:varchar(20);not null;default:'walk'"       json:"mode"` // walk | ride | bus | car
	Notes              string    `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	Status             string    `gorm:"type:varchar(20);not null;default:'planned'"    json:"status"`
	RiderID            *string   `gorm:"type:uuid"                                      json:"rider_id,omitempty"`
	FareMinor          int64     `gorm:"not null;default:0"                             json:"fare_minor"`
	VersionedModel
}

// TableName 指定表名
func (Trip) TableName() string { return "trips" }
