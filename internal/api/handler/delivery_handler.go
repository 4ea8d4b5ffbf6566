package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// DeliveryHandler 配送模块 HTTP 处理器
type DeliveryHandler struct {
	deliverySvc service.DeliveryService
}

// NewDeliveryHandler 创建 DeliveryHandler
func NewDeliveryHandler(deliverySvc service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliverySvc: deliverySvc}
}

// UpsertProfile 创建或更新骑手档案
// PUT /api/v1/rider/profile
func (h *DeliveryHandler) UpsertProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.UpsertRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	agent, err := h.deliverySvc.UpsertProfile(c.Request.Context(), userID, universityID, &req)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OK(c, agent)
}

// GetProfile 我的骑手档案
// GET /api/v1/rider/profile
func (h *DeliveryHandler) GetProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	agent, err := h.deliverySvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OK(c, agent)
}

// ListOpen 本校待接配送单
// GET /api/v1/rider/deliveries/open
func (h *DeliveryHandler) ListOpen(c *gin.Context) {
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.deliverySvc.ListOpen(c.Request.Context(), universityID, &req)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListMine 我接的配送单
// GET /api/v1/rider/deliveries?active=true
func (h *DeliveryHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.deliverySvc.ListMine(c.Request.Context(), userID, c.Query("active") == "true")
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 配送单详情
// GET /api/v1/deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	delivery, err := h.deliverySvc.Get(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OK(c, delivery)
}

// Accept 抢单
// POST /api/v1/rider/deliveries/:id/accept
func (h *DeliveryHandler) Accept(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	delivery, err := h.deliverySvc.Accept(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OK(c, delivery)
}

// Advance 推进配送状态（取货 / 送达）
// PUT /api/v1/rider/deliveries/:id/status
func (h *DeliveryHandler) Advance(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	delivery, err := h.deliverySvc.Advance(c.Request.Context(), c.Param("id"), userID, req.Status)
	if err != nil {
		h.handleDeliveryError(c, err)
		return
	}

	response.OK(c, delivery)
}

func (h *DeliveryHandler) handleDeliveryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeliveryNotFound):
		response.NotFound(c, 20001, "配送单不存在")
	case errors.Is(err, service.ErrDeliveryTaken):
		response.Conflict(c, 20002, "配送单已被其他骑手接走")
	case errors.Is(err, service.ErrDeliveryNotOwned):
		response.Forbidden(c, 20003, "只能操作自己接的配送单")
	case errors.Is(err, service.ErrRiderProfileRequired):
		response.BadRequest(c, 20004, "请先完善骑手档案")
	case errors.Is(err, service.ErrRiderUnavailable):
		response.Conflict(c, 20005, "当前为休息状态，无法接单")
	case errors.Is(err, service.ErrRiderAtCapacity):
		response.Conflict(c, 20006, "进行中的配送单已达上限")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 20007, "当前配送状态不允许此操作")
	default:
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
