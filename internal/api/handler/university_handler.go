package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// UniversityHandler 高校模块 HTTP 处理器
type UniversityHandler struct {
	universitySvc service.UniversityService
}

// NewUniversityHandler 创建 UniversityHandler
func NewUniversityHandler(universitySvc service.UniversityService) *UniversityHandler {
	return &UniversityHandler{universitySvc: universitySvc}
}

// List 高校列表
// GET /api/v1/universities?include_inactive=true
// include_inactive 仅对管理员生效
func (h *UniversityHandler) List(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	includeInactive := c.Query("include_inactive") == "true" && isAdmin(role)

	list, err := h.universitySvc.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 高校详情
// GET /api/v1/universities/:id
func (h *UniversityHandler) Get(c *gin.Context) {
	result, err := h.universitySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUniversityError(c, err)
		return
	}

	response.OK(c, result)
}

// Create 新增高校
// POST /api/v1/universities
func (h *UniversityHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.universitySvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleUniversityError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改高校
// PUT /api/v1/universities/:id
func (h *UniversityHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.universitySvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleUniversityError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除高校
// DELETE /api/v1/universities/:id
func (h *UniversityHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.universitySvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleUniversityError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *UniversityHandler) handleUniversityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUniversityNotFound):
		response.NotFound(c, 13001, "高校不存在")
	case errors.Is(err, service.ErrUniversityNameExists):
		response.Conflict(c, 13002, "高校名称已存在")
	case errors.Is(err, service.ErrUniversityInUse):
		response.Conflict(c, 13003, "该高校下仍有用户，无法删除")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
