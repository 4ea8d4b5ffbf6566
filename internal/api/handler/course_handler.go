package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ────────────────────── 讲师 ──────────────────────

// ListOwn 我开设的课程
// GET /api/v1/lecturer/courses
func (h *CourseHandler) ListOwn(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.courseSvc.ListOwn(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 开设课程
// POST /api/v1/lecturer/courses
func (h *CourseHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), userID, universityID, &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改课程
// PUT /api/v1/lecturer/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除课程
// DELETE /api/v1/lecturer/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListStudents 课程选课学生
// GET /api/v1/lecturer/courses/:id/students
func (h *CourseHandler) ListStudents(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.courseSvc.ListStudents(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Grade 录入成绩
// PUT /api/v1/lecturer/courses/:id/students/:student_id/grade
func (h *CourseHandler) Grade(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.courseSvc.Grade(c.Request.Context(), c.Param("id"), c.Param("student_id"), userID, &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, result)
}

// ────────────────────── 学生 ──────────────────────

// Catalog 本校课程目录
// GET /api/v1/courses
func (h *CourseHandler) Catalog(c *gin.Context) {
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.CourseCatalogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.courseSvc.Catalog(c.Request.Context(), universityID, &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	result, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, result)
}

// Enroll 选课
// POST /api/v1/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	result, err := h.courseSvc.Enroll(c.Request.Context(), c.Param("id"), userID, universityID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, result)
}

// Unenroll 退选
// DELETE /api/v1/courses/:id/enroll
func (h *CourseHandler) Unenroll(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Unenroll(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

// AcademicRecords 我的成绩单（含 GPA）
// GET /api/v1/students/me/records
func (h *CourseHandler) AcademicRecords(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.courseSvc.AcademicRecords(c.Request.Context(), userID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 15001, "课程不存在")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 15002, "本校已存在相同课程代码")
	case errors.Is(err, service.ErrCourseNotOwned):
		response.Forbidden(c, 15003, "只能操作自己开设的课程")
	case errors.Is(err, service.ErrCourseOtherSchool):
		response.Forbidden(c, 15004, "不能选修其他高校的课程")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 15005, "已选修该课程")
	case errors.Is(err, service.ErrNotEnrolled):
		response.NotFound(c, 15006, "未选修该课程")
	case errors.Is(err, service.ErrEnrollmentGraded):
		response.Conflict(c, 15007, "已录入成绩，不能退选")
	case errors.Is(err, service.ErrGradeScoreMismatch):
		response.BadRequest(c, 15008, "等级与分数不一致")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
