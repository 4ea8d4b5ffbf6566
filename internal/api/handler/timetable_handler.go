package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// List 我的课表条目
// GET /api/v1/lecturer/schedule
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.timetableSvc.ListOwn(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 新增课表条目
// POST /api/v1/lecturer/schedule
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改课表条目
// PUT /api/v1/lecturer/schedule/:id
func (h *TimetableHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除课表条目
// DELETE /api/v1/lecturer/schedule/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.timetableSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// LecturerGrid 讲师周课表网格
// GET /api/v1/lecturer/schedule/grid
func (h *TimetableHandler) LecturerGrid(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grid, err := h.timetableSvc.LecturerGrid(c.Request.Context(), userID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// StudentGrid 学生周课表网格
// GET /api/v1/students/me/timetable
func (h *TimetableHandler) StudentGrid(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grid, err := h.timetableSvc.StudentGrid(c.Request.Context(), userID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// Export 导出课表（.ics / .xlsx）
// GET /api/v1/lecturer/schedule/export?format=ics&start_date=2026-09-07&weeks=15
// GET /api/v1/students/me/timetable/export
func (h *TimetableHandler) Export(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.TimetableExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	data, filename, contentType, err := h.timetableSvc.Export(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Attachment(c, filename, contentType, data)
}

// Import 从 .ics 文件导入课表
// POST /api/v1/lecturer/schedule/import
func (h *TimetableHandler) Import(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传日历文件（字段名 file）")
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".ics") {
		response.BadRequest(c, 16201, "仅支持 .ics 格式")
		return
	}
	if fh.Size > maxImportFileSize {
		response.BadRequest(c, 16202, "文件大小不能超过 5MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	result, err := h.timetableSvc.ImportICS(c.Request.Context(), userID, f)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.ErrorWithData(c, http.StatusConflict, 16001, "课表时间冲突", gin.H{"conflicts": conflictErr.Conflicts})
	case errors.Is(err, service.ErrTimetableConflict):
		response.Conflict(c, 16001, "课表时间冲突")
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 16002, "课表条目不存在")
	case errors.Is(err, service.ErrTimetableNotOwned):
		response.Forbidden(c, 16003, "只能操作自己课程的课表")
	case errors.Is(err, service.ErrTimetableInvalidTime):
		response.BadRequest(c, 16004, "时间格式错误，应为 HH:MM")
	case errors.Is(err, service.ErrTimetableOutOfHours):
		response.BadRequest(c, 16005, "上课时间必须在 07:00-22:00 之间")
	case errors.Is(err, service.ErrTimetableInvalidRange):
		response.BadRequest(c, 16006, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrTimetableVenueInvalid):
		response.BadRequest(c, 16007, "上课地点不可用")
	case errors.Is(err, service.ErrTimetableExportEmpty):
		response.NotFound(c, 16101, "暂无课表可导出")
	case errors.Is(err, service.ErrTimetableExportFail):
		response.InternalError(c)
	case errors.Is(err, service.ErrTimetableImportInvalid):
		response.BadRequest(c, 16203, "ICS 文件格式无效")
	case errors.Is(err, service.ErrTimetableImportEmpty):
		response.BadRequest(c, 16204, "ICS 文件中没有课程事件")
	case errors.Is(err, service.ErrVenueNotFound):
		response.BadRequest(c, 14001, "上课地点不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 15001, "课程不存在")
	case errors.Is(err, service.ErrCourseNotOwned):
		response.Forbidden(c, 15003, "只能操作自己开设的课程")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
