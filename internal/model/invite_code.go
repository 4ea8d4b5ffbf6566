package model

import "time"

// InviteCode 注册邀请码：绑定目标角色，可选绑定高校；一次性使用
type InviteCode struct {
	InviteCodeID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invite_code_id"`
	Code         string     `gorm:"type:varchar(50);not null;uniqueIndex"          json:"code"`
	Role         string     `gorm:"type:varchar(20);not null"                      json:"role"`
	UniversityID *string    `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	ExpiresAt    time.Time  `gorm:"not null"                                       json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedBy       *string    `gorm:"type:uuid"                                      json:"used_by,omitempty"`
	VersionedModel
}

func (InviteCode) TableName() string { return "invite_codes" }

// Used 是否已被注册消费
func (i *InviteCode) Used() bool { return i.UsedAt != nil }

// Expired 以 now 为准判断是否过期
func (i *InviteCode) Expired(now time.Time) bool { return !now.Before(i.ExpiresAt) }
