package dto

import "time"

// ── 配送 / 出行 / 地点 DTO ──

// UpsertRiderRequest 骑手档案
type UpsertRiderRequest struct {
	VehicleType string `json:"vehicle_type" binding:"omitempty,oneof=foot bicycle motorcycle car"`
	Phone       string `json:"phone"        binding:"omitempty,max=30"`
	IsAvailable *bool  `json:"is_available"`
}

// DeliveryStatusRequest 骑手推进配送状态
type DeliveryStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=picked_up delivered"`
}

// CreateTripRequest 新建出行计划
type CreateTripRequest struct {
	Title              string    `json:"title"                binding:"required,min=1,max=150"`
	Origin             string    `json:"origin"               binding:"required,max=300"`
	Destination        string    `json:"destination"          binding:"required,max=300"`
	OriginPlaceID      string    `json:"origin_place_id"      binding:"omitempty,max=255"`
	DestinationPlaceID string    `json:"destination_place_id" binding:"omitempty,max=255"`
	DepartAt           time.Time `json:"depart_at"            binding:"required"`
	Seats              int       `json:"seats"                binding:"omitempty,min=1,max=8"`
	Mode               string    `json:"mode"                 binding:"omitempty,oneof=walk ride bus car"`
	Notes              string    `json:"notes"                binding:"omitempty,max=500"`
}

// UpdateTripRequest 修改出行计划
type UpdateTripRequest struct {
	Title              *string    `json:"title"                binding:"omitempty,min=1,max=150"`
	Origin             *string    `json:"origin"               binding:"omitempty,max=300"`
	Destination        *string    `json:"destination"          binding:"omitempty,max=300"`
	OriginPlaceID      *string    `json:"origin_place_id"      binding:"omitempty,max=255"`
	DestinationPlaceID *string    `json:"destination_place_id" binding:"omitempty,max=255"`
	DepartAt           *time.Time `json:"depart_at"`
	Seats              *int       `json:"seats"                binding:"omitempty,min=1,max=8"`
	Notes              *string    `json:"notes"                binding:"omitempty,max=500"`
}

// TripListRequest 行程列表查询参数
type TripListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=planned requested accepted in_progress completed cancelled"`
}

// TripStatusRequest 行程状态变更
type TripStatusRequest struct {
	Status    string `json:"status"     binding:"required,oneof=requested in_progress completed cancelled"`
	FareMinor *int64 `json:"fare_minor" binding:"omitempty,min=0"`
}

// PlacesSearchRequest 地点检索参数
type PlacesSearchRequest struct {
	Query    string `form:"query"    binding:"required,min=2,max=200"`
	Location string `form:"location" binding:"omitempty,max=60"` // "lat,lng"
	Radius   int    `form:"radius"   binding:"omitempty,min=1,max=50000"`
}

// PlaceResult 归一化后的地点
type PlaceResult struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Rating  float64 `json:"rating,omitempty"`
}

// ── 通知 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
