package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"unilife/backend/config"
	"unilife/backend/internal/api/handler"
	"unilife/backend/internal/api/middleware"
	"unilife/backend/internal/model"
	"unilife/backend/pkg/jwt"
	"unilife/backend/pkg/metrics"
)

// 登录 / 注册限流：每 IP 每分钟
const (
	loginRateLimit    = 10
	registerRateLimit = 5
	rateLimitWindow   = time.Minute
)

// Deps 路由所需的外部组件；Redis 不可用时 Blacklist / Limiter 传 nil
type Deps struct {
	JWT       *jwt.Manager
	Blacklist middleware.TokenBlacklist
	Limiter   middleware.RateLimiter
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	admins := middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin)
	superAdmin := middleware.RoleAuth(model.RoleSuperAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(d.Limiter, loginRateLimit, rateLimitWindow), h.Auth.Login)
			auth.POST("/register", middleware.RateLimit(d.Limiter, registerRateLimit, rateLimitWindow), h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.GET("/invite/:code", h.Auth.ValidateInvite)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)
			authorized.POST("/auth/invite", admins, h.Auth.GenerateInvite)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", admins, h.User.ListUsers)
				users.POST("/import", admins, h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)    // 本人或管理员（Handler 层鉴权）
				users.PUT("/:id", h.User.UpdateUser) // 本人或管理员（Service 层鉴权）
				users.DELETE("/:id", admins, h.User.DeleteUser)
				users.PUT("/:id/role", admins, h.User.AssignRole)
				users.PUT("/:id/active", admins, h.User.SetActive)
				users.POST("/:id/reset-password", admins, h.User.ResetPassword)
			}

			// 高校
			universities := authorized.Group("/universities")
			{
				universities.GET("", h.University.List)
				universities.GET("/:id", h.University.Get)
				universities.POST("", superAdmin, h.University.Create)
				universities.PUT("/:id", superAdmin, h.University.Update)
				universities.DELETE("/:id", superAdmin, h.University.Delete)
			}

			// 教学地点
			venues := authorized.Group("/venues")
			{
				venues.GET("", h.Venue.List)
				venues.GET("/:id", h.Venue.Get)
				venues.POST("", admins, h.Venue.Create)
				venues.PUT("/:id", admins, h.Venue.Update)
				venues.DELETE("/:id", admins, h.Venue.Delete)
			}

			// 讲师：课程与课表
			lecturer := authorized.Group("/lecturer", middleware.RoleAuth(model.RoleLecturer))
			{
				lecturer.GET("/courses", h.Course.ListOwn)
				lecturer.POST("/courses", h.Course.Create)
				lecturer.PUT("/courses/:id", h.Course.Update)
				lecturer.DELETE("/courses/:id", h.Course.Delete)
				lecturer.GET("/courses/:id/students", h.Course.ListStudents)
				lecturer.PUT("/courses/:id/students/:student_id/grade", h.Course.Grade)

				lecturer.GET("/schedule", h.Timetable.List)
				lecturer.POST("/schedule", h.Timetable.Create)
				lecturer.GET("/schedule/grid", h.Timetable.LecturerGrid)
				lecturer.GET("/schedule/export", h.Timetable.Export)
				lecturer.POST("/schedule/import", h.Timetable.Import)
				lecturer.PUT("/schedule/:id", h.Timetable.Update)
				lecturer.DELETE("/schedule/:id", h.Timetable.Delete)
			}

			// 课程目录与选课
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.Catalog)
				courses.GET("/:id", h.Course.Get)
				courses.POST("/:id/enroll", middleware.RoleAuth(model.RoleStudent), h.Course.Enroll)
				courses.DELETE("/:id/enroll", middleware.RoleAuth(model.RoleStudent), h.Course.Unenroll)
			}

			// 学生
			students := authorized.Group("/students/me", middleware.RoleAuth(model.RoleStudent))
			{
				students.GET("/records", h.Course.AcademicRecords)
				students.GET("/timetable", h.Timetable.StudentGrid)
				students.GET("/timetable/export", h.Timetable.Export)
			}

			// 餐饮（顾客侧）
			food := authorized.Group("/food")
			{
				food.GET("/vendors", h.Food.ListVendors)
				food.GET("/vendors/:id", h.Food.GetVendor)
				food.GET("/vendors/:id/menu", h.Food.Menu)
				food.POST("/orders", h.Food.Checkout)
				food.GET("/orders", h.Food.ListMyOrders)
				food.GET("/orders/:id", h.Food.GetOrder)
				food.PUT("/orders/:id/status", h.Food.UpdateStatus)
			}

			// 商城（顾客侧）
			shops := authorized.Group("/shops")
			{
				shops.GET("", h.Shop.ListShops)
				shops.GET("/:id", h.Shop.GetShop)
				shops.GET("/:id/items", h.Shop.ListItems)
			}
			shopOrders := authorized.Group("/shop-orders")
			{
				shopOrders.POST("", h.Shop.Checkout)
				shopOrders.GET("", h.Shop.ListMyOrders)
				shopOrders.GET("/:id", h.Shop.GetOrder)
				shopOrders.PUT("/:id/status", h.Shop.UpdateStatus)
			}

			// 洗衣（顾客侧）
			laundry := authorized.Group("/laundry")
			{
				laundry.GET("/services", h.Laundry.ListServices)
				laundry.GET("/services/:id", h.Laundry.GetService)
				laundry.POST("/orders", h.Laundry.PlaceOrder)
				laundry.GET("/orders", h.Laundry.ListMyOrders)
				laundry.GET("/orders/:id", h.Laundry.GetOrder)
				laundry.PUT("/orders/:id/status", h.Laundry.UpdateStatus)
			}

			// 商家后台
			vendor := authorized.Group("/vendor", middleware.RoleAuth(model.RoleVendor))
			{
				vendor.GET("/profile", h.Food.MyVendor)
				vendor.PUT("/profile", h.Food.UpsertVendor)
				vendor.GET("/menu", h.Food.MyMenu)
				vendor.POST("/menu", h.Food.CreateItem)
				vendor.PUT("/menu/:id", h.Food.UpdateItem)
				vendor.DELETE("/menu/:id", h.Food.DeleteItem)
				vendor.GET("/orders", h.Food.ListVendorOrders)
				vendor.PUT("/orders/:id/status", h.Food.UpdateStatus)

				vendor.GET("/shops", h.Shop.MyShops)
				vendor.POST("/shops", h.Shop.CreateShop)
				vendor.PUT("/shops/:id", h.Shop.UpdateShop)
				vendor.DELETE("/shops/:id", h.Shop.DeleteShop)
				vendor.POST("/shops/:id/items", h.Shop.CreateItem)
				vendor.GET("/shops/:id/orders", h.Shop.ListShopOrders)
				vendor.PUT("/shop-items/:id", h.Shop.UpdateItem)
				vendor.DELETE("/shop-items/:id", h.Shop.DeleteItem)

				vendor.GET("/laundry/services", h.Laundry.MyServices)
				vendor.POST("/laundry/services", h.Laundry.CreateService)
				vendor.PUT("/laundry/services/:id", h.Laundry.UpdateService)
				vendor.DELETE("/laundry/services/:id", h.Laundry.DeleteService)
				vendor.GET("/laundry/orders", h.Laundry.ListOwnerOrders)
			}

			// 骑手：配送与约车
			rider := authorized.Group("/rider", middleware.RoleAuth(model.RoleRider))
			{
				rider.GET("/profile", h.Delivery.GetProfile)
				rider.PUT("/profile", h.Delivery.UpsertProfile)
				rider.GET("/deliveries", h.Delivery.ListMine)
				rider.GET("/deliveries/open", h.Delivery.ListOpen)
				rider.POST("/deliveries/:id/accept", h.Delivery.Accept)
				rider.PUT("/deliveries/:id/status", h.Delivery.Advance)

				rider.GET("/rides", h.Trip.ListRiderTrips)
				rider.GET("/rides/open", h.Trip.ListOpenRides)
				rider.POST("/rides/:id/accept", h.Trip.AcceptRide)
			}
			// 配送单详情：顾客、商家、骑手、管理员（Service 层鉴权）
			authorized.GET("/deliveries/:id", h.Delivery.Get)

			// 行程
			trips := authorized.Group("/trips")
			{
				trips.POST("", h.Trip.Create)
				trips.GET("", h.Trip.ListMine)
				trips.GET("/:id", h.Trip.Get)
				trips.PUT("/:id", h.Trip.Update)
				trips.DELETE("/:id", h.Trip.Delete)
				trips.PUT("/:id/status", h.Trip.ChangeStatus)
			}

			authorized.GET("/places/search", h.Places.Search)

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}

			// 平台管理
			admin := authorized.Group("/admin", admins)
			{
				admin.GET("/settings", h.Admin.GetSettings)
				admin.PUT("/settings", superAdmin, h.Admin.UpdateSettings)
				admin.GET("/stats", h.Admin.Stats)
				admin.GET("/stats/snapshots", h.Admin.ListSnapshots)
				admin.GET("/orders", h.Admin.ListOrders)
				admin.GET("/orders/export", h.Admin.ExportOrders)
				admin.POST("/orders/:kind/:id/cancel", h.Admin.CancelOrder)
			}
		}
	}

	return r
}
