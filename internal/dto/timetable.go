package dto

// ── 课表模块 DTO ──

// CreateTimetableRequest 新增课表条目请求
type CreateTimetableRequest struct {
	CourseID    string  `json:"course_id"    binding:"required,uuid"`
	DayOfWeek   int     `json:"day_of_week"  binding:"required,min=1,max=7"`
	StartTime   string  `json:"start_time"   binding:"required"` // HH:MM
	EndTime     string  `json:"end_time"     binding:"required"` // HH:MM
	VenueID     *string `json:"venue_id"     binding:"omitempty,uuid"`
	SessionType string  `json:"session_type" binding:"omitempty,oneof=lecture tutorial lab"`
}

// UpdateTimetableRequest 修改课表条目请求
type UpdateTimetableRequest struct {
	DayOfWeek   *int    `json:"day_of_week"  binding:"omitempty,min=1,max=7"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	VenueID     *string `json:"venue_id"     binding:"omitempty"` // 传空字符串表示清除地点
	SessionType *string `json:"session_type" binding:"omitempty,oneof=lecture tutorial lab"`
	Version     int     `json:"version"      binding:"required,min=1"`
}

// TimetableEntryResponse 课表条目响应
type TimetableEntryResponse struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	CourseCode  string `json:"course_code,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
	LecturerID  string `json:"lecturer_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	VenueID     string `json:"venue_id,omitempty"`
	VenueName   string `json:"venue_name,omitempty"`
	SessionType string `json:"session_type"`
	Version     int    `json:"version"`
}

// TimetableConflict 冲突条目说明
type TimetableConflict struct {
	Reason string                 `json:"reason"` // lecturer | venue
	Entry  TimetableEntryResponse `json:"entry"`
}

// GridResponse 周视图课表
type GridResponse struct {
	StartHour int       `json:"start_hour"`
	EndHour   int       `json:"end_hour"`
	Rows      []string  `json:"rows"` // 每小时一行的标签，如 "08:00"
	Days      []GridDay `json:"days"`
	Clashes   bool      `json:"clashes"`
}

// GridDay 单日课表
type GridDay struct {
	DayOfWeek int         `json:"day_of_week"`
	Name      string      `json:"name"`
	LaneCount int         `json:"lane_count"`
	Clashes   bool        `json:"clashes"`
	Entries   []GridEntry `json:"entries"`
}

// GridEntry 网格中的课表条目
type GridEntry struct {
	TimetableEntryResponse
	RowStart int `json:"row_start"` // 从 0 开始的起始行
	RowSpan  int `json:"row_span"`
	Lane     int `json:"lane"`
}

// TimetableExportRequest 课表导出参数
type TimetableExportRequest struct {
	Format    string `form:"format"     binding:"omitempty,oneof=ics xlsx"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"` // 学期首周任意一天
	Weeks     int    `form:"weeks"      binding:"omitempty,min=1,max=52"`
}

// TimetableImportError 未能导入的 ICS 事件
type TimetableImportError struct {
	Index   int    `json:"index"` // 事件序号，从 1 开始
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

// TimetableImportResult ICS 导入结果
type TimetableImportResult struct {
	Created []TimetableEntryResponse `json:"created"`
	Errors  []TimetableImportError   `json:"errors"`
}
