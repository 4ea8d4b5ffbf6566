package dto

// ── 课程 / 选课 / 成绩 DTO ──

// CreateCourseRequest 讲师创建课程请求
type CreateCourseRequest struct {
	Code        string `json:"code"        binding:"required,min=2,max=20"`
	Title       string `json:"title"       binding:"required,min=2,max=200"`
	Units       int    `json:"units"       binding:"required,min=1,max=10"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Code        *string `json:"code"        binding:"omitempty,min=2,max=20"`
	Title       *string `json:"title"       binding:"omitempty,min=2,max=200"`
	Units       *int    `json:"units"       binding:"omitempty,min=1,max=10"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// CourseCatalogRequest 课程目录查询参数
type CourseCatalogRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID           string     `json:"id"`
	UniversityID string     `json:"university_id"`
	Code         string     `json:"code"`
	Title        string     `json:"title"`
	Units        int        `json:"units"`
	Description  string     `json:"description,omitempty"`
	Lecturer     *UserBrief `json:"lecturer,omitempty"`
	Version      int        `json:"version"`
}

// GradeRequest 录入成绩请求；grade 缺省时按分数换算
type GradeRequest struct {
	Score *int   `json:"score" binding:"required,min=0,max=100"`
	Grade string `json:"grade" binding:"omitempty,oneof=A B C D E F"`
}

// EnrollmentResponse 选课记录（含成绩）
type EnrollmentResponse struct {
	ID       string          `json:"id"`
	Course   *CourseResponse `json:"course,omitempty"`
	Student  *UserBrief      `json:"student,omitempty"`
	Score    *int            `json:"score,omitempty"`
	Grade    *string         `json:"grade,omitempty"`
	GradedAt string          `json:"graded_at,omitempty"`
	Enrolled string          `json:"enrolled_at"`
}

// AcademicRecordResponse 学生学业记录
type AcademicRecordResponse struct {
	Records     []EnrollmentResponse `json:"records"`
	TotalUnits  int                  `json:"total_units"`
	GradedUnits int                  `json:"graded_units"`
	GPA         float64              `json:"gpa"` // 5 分制，按学分加权，保留两位小数
}
