package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// xlsxContentType Excel 下载类型
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler 平台管理 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// GetSettings 平台配置
// GET /api/v1/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminSvc.GetSettings(c.Request.Context())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, settings)
}

// UpdateSettings 修改平台配置（超级管理员）
// PUT /api/v1/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	settings, err := h.adminSvc.UpdateSettings(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, settings)
}

// Stats 平台统计
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.adminSvc.Stats(c.Request.Context(), userID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, stats)
}

// ListSnapshots 历史统计快照
// GET /api/v1/admin/stats/snapshots?limit=30
func (h *AdminHandler) ListSnapshots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	list, err := h.adminSvc.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListOrders 订单总览
// GET /api/v1/admin/orders?kind=food&status=pending&from=2026-01-01&to=2026-01-31
func (h *AdminHandler) ListOrders(c *gin.Context) {
	var req dto.AdminOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.adminSvc.ListOrders(c.Request.Context(), &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CancelOrder 强制取消订单
// POST /api/v1/admin/orders/:kind/:id/cancel
func (h *AdminHandler) CancelOrder(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AdminCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.adminSvc.CancelOrder(c.Request.Context(), c.Param("kind"), c.Param("id"), userID, req.Reason); err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportOrders 导出订单（.xlsx）
// GET /api/v1/admin/orders/export?kind=food
func (h *AdminHandler) ExportOrders(c *gin.Context) {
	var req dto.AdminOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.adminSvc.ExportOrders(c.Request.Context(), &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownOrderKind):
		response.BadRequest(c, 23001, "未知的订单类型")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 23002, "日期范围无效")
	case errors.Is(err, service.ErrExportGenerate):
		response.InternalError(c)
	default:
		if handleOrderFlowError(c, err) {
			return
		}
		response.InternalError(c)
	}
}
