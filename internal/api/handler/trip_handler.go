package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// TripHandler 出行模块 HTTP 处理器
type TripHandler struct {
	tripSvc service.TripService
}

// NewTripHandler 创建 TripHandler
func NewTripHandler(tripSvc service.TripService) *TripHandler {
	return &TripHandler{tripSvc: tripSvc}
}

// Create 新建行程
// POST /api/v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trip, err := h.tripSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleTripError(c, err)
		return
	}

	response.Created(c, trip)
}

// ListMine 我的行程
// GET /api/v1/trips
func (h *TripHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TripListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.tripSvc.ListMine(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 行程详情
// GET /api/v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	trip, err := h.tripSvc.Get(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleTripError(c, err)
		return
	}

	response.OK(c, trip)
}

// Update 修改行程
// PUT /api/v1/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trip, err := h.tripSvc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleTripError(c, err)
		return
	}

	response.OK(c, trip)
}

// Delete 删除行程
// DELETE /api/v1/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.tripSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleTripError(c, err)
		return
	}

	response.OK(c, nil)
}

// ChangeStatus 变更行程状态
// PUT /api/v1/trips/:id/status
func (h *TripHandler) ChangeStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trip, err := h.tripSvc.ChangeStatus(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleTripError(c, err)
		return
	}

	response.OK(c, trip)
}

// ────────────────────── 骑手 ──────────────────────

// ListOpenRides 待接约车
// GET /api/v1/rider/rides/open
func (h *TripHandler) ListOpenRides(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.tripSvc.ListOpenRides(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// AcceptRide 接单
// POST /api/v1/rider/rides/:id/accept
func (h *TripHandler) AcceptRide(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trip, err := h.tripSvc.AcceptRide(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleTripError(c, err)
		return
	}

	response.OK(c, trip)
}

// ListRiderTrips 我接的约车
// GET /api/v1/rider/rides
func (h *TripHandler) ListRiderTrips(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.tripSvc.ListRiderTrips(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *TripHandler) handleTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTripNotFound):
		response.NotFound(c, 21001, "行程不存在")
	case errors.Is(err, service.ErrTripNotOwned):
		response.Forbidden(c, 21002, "只能操作自己的行程")
	case errors.Is(err, service.ErrTripNotEditable):
		response.Conflict(c, 21003, "只有计划中的行程可以修改")
	case errors.Is(err, service.ErrTripNotRide):
		response.BadRequest(c, 21004, "只有约车行程可以发布给骑手")
	case errors.Is(err, service.ErrTripTaken):
		response.Conflict(c, 21005, "该约车已被其他骑手接走")
	case errors.Is(err, service.ErrTripSelfAccept):
		response.BadRequest(c, 21006, "不能接自己发布的约车")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 21007, "当前行程状态不允许此操作")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
