package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// FoodHandler 餐饮模块 HTTP 处理器
type FoodHandler struct {
	foodSvc service.FoodService
}

// NewFoodHandler 创建 FoodHandler
func NewFoodHandler(foodSvc service.FoodService) *FoodHandler {
	return &FoodHandler{foodSvc: foodSvc}
}

// ────────────────────── 公开浏览 ──────────────────────

// ListVendors 营业中的商家
// GET /api/v1/food/vendors?university_id=xxx&keyword=xxx
func (h *FoodHandler) ListVendors(c *gin.Context) {
	var req dto.VendorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.UniversityID == "" {
		req.UniversityID = c.GetString("university_id")
	}

	list, err := h.foodSvc.ListVendors(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetVendor 商家详情
// GET /api/v1/food/vendors/:id
func (h *FoodHandler) GetVendor(c *gin.Context) {
	vendor, err := h.foodSvc.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, vendor)
}

// Menu 商家菜单（仅在售菜品）
// GET /api/v1/food/vendors/:id/menu
func (h *FoodHandler) Menu(c *gin.Context) {
	list, err := h.foodSvc.Menu(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ────────────────────── 学生下单 ──────────────────────

// Checkout 提交订单
// POST /api/v1/food/orders
func (h *FoodHandler) Checkout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.foodSvc.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.Created(c, order)
}

// ListMyOrders 我的餐饮订单
// GET /api/v1/food/orders
func (h *FoodHandler) ListMyOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.foodSvc.ListMyOrders(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetOrder 订单详情（下单学生、商家、管理员可见）
// GET /api/v1/food/orders/:id
func (h *FoodHandler) GetOrder(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	order, err := h.foodSvc.GetOrder(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, order)
}

// UpdateStatus 变更订单状态
// 学生仅可取消待接单订单；商家推进接单 / 备餐 / 出餐 / 完成
// PUT /api/v1/food/orders/:id/status
// PUT /api/v1/vendor/orders/:id/status
func (h *FoodHandler) UpdateStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.foodSvc.UpdateStatus(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, order)
}

// ────────────────────── 商家后台 ──────────────────────

// UpsertVendor 创建或更新商家档案
// PUT /api/v1/vendor/profile
func (h *FoodHandler) UpsertVendor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.UpsertVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	vendor, err := h.foodSvc.UpsertVendor(c.Request.Context(), userID, universityID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, vendor)
}

// MyVendor 我的商家档案
// GET /api/v1/vendor/profile
func (h *FoodHandler) MyVendor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	vendor, err := h.foodSvc.MyVendor(c.Request.Context(), userID)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, vendor)
}

// MyMenu 我的菜单（含下架菜品）
// GET /api/v1/vendor/menu
func (h *FoodHandler) MyMenu(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.foodSvc.MyMenu(c.Request.Context(), userID)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateItem 新增菜品
// POST /api/v1/vendor/menu
func (h *FoodHandler) CreateItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.foodSvc.CreateItem(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.Created(c, item)
}

// UpdateItem 修改菜品
// PUT /api/v1/vendor/menu/:id
func (h *FoodHandler) UpdateItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.foodSvc.UpdateItem(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteItem 删除菜品
// DELETE /api/v1/vendor/menu/:id
func (h *FoodHandler) DeleteItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.foodSvc.DeleteItem(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListVendorOrders 商家订单
// GET /api/v1/vendor/orders
func (h *FoodHandler) ListVendorOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.foodSvc.ListVendorOrders(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleFoodError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *FoodHandler) handleFoodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVendorNotFound):
		response.NotFound(c, 17001, "商家不存在")
	case errors.Is(err, service.ErrVendorProfileRequired):
		response.BadRequest(c, 17002, "请先创建商家档案")
	case errors.Is(err, service.ErrVendorClosed):
		response.Conflict(c, 17003, "商家暂停营业")
	case errors.Is(err, service.ErrFoodItemNotFound):
		response.NotFound(c, 17004, "菜品不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		if handleOrderFlowError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
