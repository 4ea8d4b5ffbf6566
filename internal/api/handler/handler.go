package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unilife/backend/config"
	"unilife/backend/internal/model"
	"unilife/backend/internal/service"
	pkgerrors "unilife/backend/pkg/errors"
	"unilife/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	University   *UniversityHandler
	Venue        *VenueHandler
	Course       *CourseHandler
	Timetable    *TimetableHandler
	Food         *FoodHandler
	Shop         *ShopHandler
	Laundry      *LaundryHandler
	Delivery     *DeliveryHandler
	Trip         *TripHandler
	Places       *PlacesHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		User:         NewUserHandler(svc.User),
		University:   NewUniversityHandler(svc.University),
		Venue:        NewVenueHandler(svc.Venue),
		Course:       NewCourseHandler(svc.Course),
		Timetable:    NewTimetableHandler(svc.Timetable),
		Food:         NewFoodHandler(svc.Food),
		Shop:         NewShopHandler(svc.Shop),
		Laundry:      NewLaundryHandler(svc.Laundry),
		Delivery:     NewDeliveryHandler(svc.Delivery),
		Trip:         NewTripHandler(svc.Trip),
		Places:       NewPlacesHandler(svc.Places),
		Notification: NewNotificationHandler(svc.Notification),
		Admin:        NewAdminHandler(svc.Admin),
	}
}

func isAdmin(role string) bool {
	return role == model.RoleAdmin || role == model.RoleSuperAdmin
}

// handleCommonError 处理跨模块共享的错误，已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10005, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrNoUniversity):
		response.BadRequest(c, 10006, "账号未绑定高校")
	default:
		return false
	}
	return true
}

// handleOrderFlowError 处理餐饮 / 商城 / 洗衣订单共用的错误，已写入响应时返回 true
func handleOrderFlowError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 17101, "订单不存在")
	case errors.Is(err, service.ErrOrderNotOwned):
		response.Forbidden(c, 17102, "无权操作该订单")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 17103, "当前订单状态不允许此操作")
	case errors.Is(err, service.ErrCartEmpty):
		response.BadRequest(c, 17104, "购物车为空")
	case errors.Is(err, service.ErrInvalidQuantity):
		response.BadRequest(c, 17105, "单项数量必须在 1-50 之间")
	case errors.Is(err, service.ErrItemUnavailable):
		response.BadRequest(c, 17106, err.Error())
	case errors.Is(err, service.ErrDeliveryAddressRequired):
		response.BadRequest(c, 17107, "配送订单必须填写收货地址")
	default:
		return handleCommonError(c, err)
	}
	return true
}
