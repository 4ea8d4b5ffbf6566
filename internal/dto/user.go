package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role         string `form:"role"          binding:"omitempty,oneof=student lecturer vendor rider admin super_admin"`
	UniversityID string `form:"university_id" binding:"omitempty,uuid"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
	IsActive     *bool  `form:"is_active"`
}

// UpdateUserRequest 更新用户资料请求
type UpdateUserRequest struct {
	FullName     *string `json:"full_name"     binding:"omitempty,min=2,max=100"`
	Phone        *string `json:"phone"         binding:"omitempty,max=30"`
	AvatarURL    *string `json:"avatar_url"    binding:"omitempty,url,max=500"`
	MatricNo     *string `json:"matric_no"     binding:"omitempty,max=30"`
	UniversityID *string `json:"university_id" binding:"omitempty,uuid"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student lecturer vendor rider admin super_admin"`
}

// SetActiveRequest 启用 / 停用账号请求
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
