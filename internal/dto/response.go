package dto

// ── 用户信息响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string           `json:"id"`
	FullName           string           `json:"full_name"`
	Email              string           `json:"email"`
	Role               string           `json:"role"`
	MatricNo           string           `json:"matric_no,omitempty"`
	Phone              string           `json:"phone,omitempty"`
	AvatarURL          string           `json:"avatar_url,omitempty"`
	University         *UniversityBrief `json:"university,omitempty"`
	IsActive           bool             `json:"is_active"`
	MustChangePassword bool             `json:"must_change_password"`
	LastLoginAt        string           `json:"last_login_at,omitempty"`
	CreatedAt          string           `json:"created_at,omitempty"`
}

// UserBrief 用户简要信息（嵌入课程、成绩等响应）
type UserBrief struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	MatricNo string `json:"matric_no,omitempty"`
}

// UniversityBrief 高校简要信息
type UniversityBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
