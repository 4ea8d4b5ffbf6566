package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest 注册请求
// 学生可直接注册；其他角色必须携带与角色匹配的邀请码
type RegisterRequest struct {
	Email        string `json:"email"         binding:"required,email,max=255"`
	Password     string `json:"password"      binding:"required,min=8,max=64"`
	FullName     string `json:"full_name"     binding:"required,min=2,max=100"`
	Role         string `json:"role"          binding:"omitempty,oneof=student lecturer vendor rider admin"`
	UniversityID string `json:"university_id" binding:"omitempty,uuid"`
	MatricNo     string `json:"matric_no"     binding:"omitempty,max=30"`
	InviteCode   string `json:"invite_code"   binding:"omitempty,max=50"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` // 非 Cookie 模式时使用
}

// GenerateInviteRequest 生成邀请码请求
type GenerateInviteRequest struct {
	Role         string `json:"role"          binding:"required,oneof=lecturer vendor rider admin"`
	UniversityID string `json:"university_id" binding:"omitempty,uuid"`
	ExpiresDays  int    `json:"expires_days"  binding:"omitempty,min=1,max=90"` // 缺省取配置 auth.invite_ttl_default
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"` // Cookie 模式下可不返回
	ExpiresIn    int          `json:"expires_in"`              // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// InviteResponse 邀请码响应
type InviteResponse struct {
	InviteCode string `json:"invite_code"`
	InviteURL  string `json:"invite_url"`
	Role       string `json:"role"`
	ExpiresAt  string `json:"expires_at"`
}

// InviteValidateResponse 邀请码验证响应
type InviteValidateResponse struct {
	Valid     bool   `json:"valid"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
