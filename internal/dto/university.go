package dto

// ── 高校 / 上课地点 DTO ──

// CreateUniversityRequest 创建高校请求
type CreateUniversityRequest struct {
	Name        string `json:"name"         binding:"required,min=2,max=150"`
	ShortName   string `json:"short_name"   binding:"omitempty,max=30"`
	City        string `json:"city"         binding:"omitempty,max=100"`
	EmailDomain string `json:"email_domain" binding:"omitempty,fqdn"`
}

// UpdateUniversityRequest 更新高校请求
type UpdateUniversityRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=2,max=150"`
	ShortName   *string `json:"short_name"   binding:"omitempty,max=30"`
	City        *string `json:"city"         binding:"omitempty,max=100"`
	EmailDomain *string `json:"email_domain" binding:"omitempty,fqdn"`
	IsActive    *bool   `json:"is_active"`
}

// UniversityResponse 高校信息响应
type UniversityResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name,omitempty"`
	City        string `json:"city,omitempty"`
	EmailDomain string `json:"email_domain,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// CreateVenueRequest 创建上课地点请求
type CreateVenueRequest struct {
	UniversityID string `json:"university_id" binding:"required,uuid"`
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	Building     string `json:"building"      binding:"omitempty,max=100"`
	Capacity     int    `json:"capacity"      binding:"omitempty,min=0,max=5000"`
}

// UpdateVenueRequest 更新上课地点请求
type UpdateVenueRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=1,max=100"`
	Building *string `json:"building"  binding:"omitempty,max=100"`
	Capacity *int    `json:"capacity"  binding:"omitempty,min=0,max=5000"`
	IsActive *bool   `json:"is_active"`
}

// VenueListRequest 上课地点列表查询参数
type VenueListRequest struct {
	UniversityID    string `form:"university_id" binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}

// VenueResponse 上课地点响应
type VenueResponse struct {
	ID           string `json:"id"`
	UniversityID string `json:"university_id"`
	Name         string `json:"name"`
	Building     string `json:"building,omitempty"`
	Capacity     int    `json:"capacity"`
	IsActive     bool   `json:"is_active"`
}
