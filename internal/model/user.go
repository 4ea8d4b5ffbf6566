package model

import "time"

// 角色取值
const (
	RoleStudent    = "student"
	RoleLecturer   = "lecturer"
	RoleVendor     = "vendor"
	RoleRider      = "rider"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// AllRoles 全部合法角色
var AllRoles = []string{RoleStudent, RoleLecturer, RoleVendor, RoleRider, RoleAdmin, RoleSuperAdmin}

// IsValidRole 判断角色是否合法
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivilegedRole 管理类角色（仅 super_admin 可授予或撤销）
func IsPrivilegedRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// User 用户表，对应 users
type User struct {
	UserID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FullName           string     `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Email              string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string     `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // student | lecturer | vendor | rider | admin | super_admin
	UniversityID       *string    `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	MatricNo           string     `gorm:"type:varchar(30)"                               json:"matric_no,omitempty"`
	Phone              string     `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	AvatarURL          string     `gorm:"type:varchar(500)"                              json:"avatar_url,omitempty"`
	IsActive           bool       `gorm:"not null;default:true"                          json:"is_active"`
	MustChangePassword bool       `gorm:"not null;default:false"                         json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	VersionedModel

	// 关联
	University *University `gorm:"foreignKey:UniversityID;references:UniversityID" json:"university,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
