package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"unilife/backend/config"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/jwt"
)

// Cache JSON 缓存（由 pkg/redis.Client 实现；Redis 不可用时传 nil）
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenBlacklist Token 黑名单（由 pkg/redis.Client 实现；Redis 不可用时传 nil）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	University   UniversityService
	Venue        VenueService
	Course       CourseService
	Timetable    TimetableService
	Food         FoodService
	Shop         ShopService
	Laundry      LaundryService
	Delivery     DeliveryService
	Trip         TripService
	Places       PlacesService
	Notification NotificationService
	Admin        AdminService
}

// Deps 构建 Service 聚合所需的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Cache     Cache
	Blacklist TokenBlacklist
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	notifier := NewNotificationService(d.Repo, d.Logger)
	delivery := NewDeliveryService(d.Repo, notifier, d.Logger)
	food := NewFoodService(d.Repo, notifier, delivery, d.Logger)
	shop := NewShopService(d.Repo, notifier, delivery, d.Logger)
	laundry := NewLaundryService(d.Repo, notifier, d.Logger)

	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:         NewUserService(d.Repo, d.Logger),
		University:   NewUniversityService(d.Repo, d.Logger),
		Venue:        NewVenueService(d.Repo, d.Logger),
		Course:       NewCourseService(d.Repo, notifier, d.Logger),
		Timetable:    NewTimetableService(&d.Config.Timetable, d.Repo, d.Logger),
		Food:         food,
		Shop:         shop,
		Laundry:      laundry,
		Delivery:     delivery,
		Trip:         NewTripService(d.Repo, notifier, d.Logger),
		Places:       NewPlacesService(&d.Config.Places, d.Cache, nil, d.Logger),
		Notification: notifier,
		Admin:        NewAdminService(d.Repo, d.Cache, food, shop, laundry, d.Logger),
	}
}
