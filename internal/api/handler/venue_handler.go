package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// VenueHandler 上课地点 HTTP 处理器
type VenueHandler struct {
	venueSvc service.VenueService
}

// NewVenueHandler 创建 VenueHandler
func NewVenueHandler(venueSvc service.VenueService) *VenueHandler {
	return &VenueHandler{venueSvc: venueSvc}
}

// List 地点列表
// GET /api/v1/venues?university_id=xxx
// 未指定高校时默认当前用户所属高校
func (h *VenueHandler) List(c *gin.Context) {
	var req dto.VenueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.UniversityID == "" {
		req.UniversityID = c.GetString("university_id")
	}

	list, err := h.venueSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 地点详情
// GET /api/v1/venues/:id
func (h *VenueHandler) Get(c *gin.Context) {
	result, err := h.venueSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleVenueError(c, err)
		return
	}

	response.OK(c, result)
}

// Create 新增地点
// POST /api/v1/venues
func (h *VenueHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.venueSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleVenueError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改地点
// PUT /api/v1/venues/:id
func (h *VenueHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.venueSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleVenueError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除地点
// DELETE /api/v1/venues/:id
func (h *VenueHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.venueSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleVenueError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *VenueHandler) handleVenueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVenueNotFound):
		response.NotFound(c, 14001, "上课地点不存在")
	case errors.Is(err, service.ErrUniversityNotFound):
		response.BadRequest(c, 13001, "高校不存在")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
