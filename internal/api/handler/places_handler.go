package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/service"
	"unilife/backend/pkg/response"
)

// PlacesHandler 地点检索 HTTP 处理器
type PlacesHandler struct {
	placesSvc service.PlacesService
}

// NewPlacesHandler 创建 PlacesHandler
func NewPlacesHandler(placesSvc service.PlacesService) *PlacesHandler {
	return &PlacesHandler{placesSvc: placesSvc}
}

// Search 地点检索
// GET /api/v1/places/search?query=xxx&location=6.5,3.3&radius=5000
func (h *PlacesHandler) Search(c *gin.Context) {
	var req dto.PlacesSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	results, err := h.placesSvc.Search(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlacesUnavailable):
			response.ServiceUnavailable(c, 21101, "地点检索服务未配置")
		case errors.Is(err, service.ErrPlacesUpstream):
			response.Error(c, http.StatusBadGateway, 21102, "地点检索服务暂时不可用")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, gin.H{"list": results})
}
