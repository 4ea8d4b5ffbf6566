package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// ShopHandler 校园商城 HTTP 处理器
type ShopHandler struct {
	shopSvc service.ShopService
}

// NewShopHandler 创建 ShopHandler
func NewShopHandler(shopSvc service.ShopService) *ShopHandler {
	return &ShopHandler{shopSvc: shopSvc}
}

// ────────────────────── 公开浏览 ──────────────────────

// ListShops 店铺列表（关键字 / 分类检索）
// GET /api/v1/shops
func (h *ShopHandler) ListShops(c *gin.Context) {
	var req dto.ShopListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.UniversityID == "" {
		req.UniversityID = c.GetString("university_id")
	}

	list, total, err := h.shopSvc.ListShops(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetShop 店铺详情
// GET /api/v1/shops/:id
func (h *ShopHandler) GetShop(c *gin.Context) {
	shop, err := h.shopSvc.GetShop(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, shop)
}

// ListItems 店铺商品；店主可看到下架商品
// GET /api/v1/shops/:id/items
func (h *ShopHandler) ListItems(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.shopSvc.ListItems(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ────────────────────── 下单 ──────────────────────

// Checkout 提交订单
// POST /api/v1/shop-orders
func (h *ShopHandler) Checkout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ShopCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.shopSvc.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.Created(c, order)
}

// ListMyOrders 我的商城订单
// GET /api/v1/shop-orders
func (h *ShopHandler) ListMyOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shopSvc.ListMyOrders(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetOrder 订单详情
// GET /api/v1/shop-orders/:id
func (h *ShopHandler) GetOrder(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	order, err := h.shopSvc.GetOrder(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, order)
}

// UpdateStatus 变更订单状态（买家取消 / 店主推进）
// PUT /api/v1/shop-orders/:id/status
func (h *ShopHandler) UpdateStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	order, err := h.shopSvc.UpdateStatus(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, order)
}

// ────────────────────── 店主后台 ──────────────────────

// MyShops 我的店铺
// GET /api/v1/vendor/shops
func (h *ShopHandler) MyShops(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.shopSvc.MyShops(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateShop 开店
// POST /api/v1/vendor/shops
func (h *ShopHandler) CreateShop(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	universityID, ok := MustGetUniversityID(c)
	if !ok {
		return
	}

	var req dto.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shop, err := h.shopSvc.CreateShop(c.Request.Context(), userID, universityID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.Created(c, shop)
}

// UpdateShop 修改店铺
// PUT /api/v1/vendor/shops/:id
func (h *ShopHandler) UpdateShop(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shop, err := h.shopSvc.UpdateShop(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, shop)
}

// DeleteShop 关闭并删除店铺
// DELETE /api/v1/vendor/shops/:id
func (h *ShopHandler) DeleteShop(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.shopSvc.DeleteShop(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateItem 上架商品
// POST /api/v1/vendor/shops/:id/items
func (h *ShopHandler) CreateItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateShopItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.shopSvc.CreateItem(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.Created(c, item)
}

// UpdateItem 修改商品
// PUT /api/v1/vendor/shop-items/:id
func (h *ShopHandler) UpdateItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateShopItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.shopSvc.UpdateItem(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteItem 删除商品
// DELETE /api/v1/vendor/shop-items/:id
func (h *ShopHandler) DeleteItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.shopSvc.DeleteItem(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListShopOrders 店铺订单
// GET /api/v1/vendor/shops/:id/orders
func (h *ShopHandler) ListShopOrders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shopSvc.ListShopOrders(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleShopError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *ShopHandler) handleShopError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShopNotFound):
		response.NotFound(c, 18001, "店铺不存在")
	case errors.Is(err, service.ErrShopClosed):
		response.Conflict(c, 18002, "店铺暂停营业")
	case errors.Is(err, service.ErrShopItemNotFound):
		response.NotFound(c, 18003, "商品不存在")
	case errors.Is(err, service.ErrOutOfStock):
		response.Conflict(c, 18004, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		if handleOrderFlowError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
