package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// LaundryHandler 洗衣模块 HTTP 处理器
type LaundryHandler struct {
	laundrySvc service.LaundryService
}

// NewLaundryHandler 创建 LaundryHandler
func NewLaundryHandler(laundrySvc service.LaundryService) *LaundryHandler {
	return &LaundryHandler{laundrySvc: laundrySvc}
}

// ListServices 本校可用洗衣服务
// GET /api/v1/laundry/services?university_id=xxx
func (h *LaundryHandler) ListServices(c *gin.Context) {
	universityID := c.Query("university_id")
	if universityID == "" {
		universityID = c.GetString("university_id")
	}

	list, err := h.laundrySvc.ListServices(c.Request.Context(), universityID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetService 洗衣服务详情
// GET /api/v1/laundry/services/:id
func (h *LaundryHandler) GetService(c *gin.Context) {
	svc, err := h.laundrySvc.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.OK(c, svc)
}

// PlaceOrder 下单
// POST /api/v1/laundry/orders
func (h *LaundryHandler) PlaceOrder(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.LaundryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.laundrySvc.PlaceOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.Created(c, order)
}

// ListMyOrders 我的洗衣订单
// GET /api/v1/laundry/orders
func (h *LaundryHandler) ListMyOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.laundrySvc.ListMyOrders(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetOrder 订单详情
// GET /api/v1/laundry/orders/:id
func (h *LaundryHandler) GetOrder(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	order, err := h.laundrySvc.GetOrder(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.OK(c, order)
}

// UpdateStatus 变更订单状态
// PUT /api/v1/laundry/orders/:id/status
func (h *LaundryHandler) UpdateStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.laundrySvc.UpdateStatus(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.OK(c, order)
}

// ────────────────────── 商家后台 ──────────────────────

// MyServices 我的洗衣服务
// GET /api/v1/vendor/laundry/services
func (h *LaundryHandler) MyServices(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.laundrySvc.MyServices(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateService 新增洗衣服务
// POST /api/v1/vendor/laundry/services
func (h *LaundryHandler) CreateService(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.CreateLaundryServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	svc, err := h.laundrySvc.CreateService(c.Request.Context(), userID, universityID, &req)
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.Created(c, svc)
}

// UpdateService 修改洗衣服务
// PUT /api/v1/vendor/laundry/services/:id
func (h *LaundryHandler) UpdateService(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateLaundryServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	svc, err := h.laundrySvc.UpdateService(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.OK(c, svc)
}

// DeleteService 删除洗衣服务
// DELETE /api/v1/vendor/laundry/services/:id
func (h *LaundryHandler) DeleteService(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.laundrySvc.DeleteService(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleLaundryError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListOwnerOrders 商家洗衣订单
// GET /api/v1/vendor/laundry/orders
func (h *LaundryHandler) ListOwnerOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.laundrySvc.ListOwnerOrders(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *LaundryHandler) handleLaundryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLaundryServiceNotFound):
		response.NotFound(c, 19001, "洗衣服务不存在")
	case errors.Is(err, service.ErrLaundryServiceInactive):
		response.Conflict(c, 19002, "洗衣服务已停用")
	case errors.Is(err, service.ErrLaundryWeightRange):
		response.BadRequest(c, 19003, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		if handleOrderFlowError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
