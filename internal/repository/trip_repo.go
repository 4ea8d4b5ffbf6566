package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// TripRepository 出行计划数据访问接口
type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error
	GetByID(ctx context.Context, id string) (*model.Trip, error)
	ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Trip, int64, error)
	// ListOpenRides 等待骑手接单的约车行程
	ListOpenRides(ctx context.Context, offset, limit int) ([]model.Trip, int64, error)
	ListByRider(ctx context.Context, riderID string) ([]model.Trip, error)
	Update(ctx context.Context, trip *model.Trip) error
	// AssignRider 首个接单者获胜：仅当状态仍为 requested 时成功
	AssignRider(ctx context.Context, tripID, riderID string) (bool, error)
	Delete(ctx context.Context, id string, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type tripRepo struct {
	db *gorm.DB
}

// NewTripRepo 创建 TripRepository 实例
func NewTripRepo(db *gorm.DB) TripRepository {
	return &tripRepo{db: db}
}

func (r *tripRepo) Create(ctx context.Context, trip *model.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *tripRepo) GetByID(ctx context.Context, id string) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.WithContext(ctx).Where("trip_id = ?", id).First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepo) ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.Trip, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Trip{}).Where("user_id = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	return r.page(db.Order("depart_at ASC"), offset, limit)
}

func (r *tripRepo) ListOpenRides(ctx context.Context, offset, limit int) ([]model.Trip, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.Trip{}).
		Where("mode = ? AND status = ?", model.TripModeRide, model.TripRequested)
	return r.page(db.Order("depart_at ASC"), offset, limit)
}

func (r *tripRepo) page(db *gorm.DB, offset, limit int) ([]model.Trip, int64, error) {
	var trips []model.Trip
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Find(&trips).Error; err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

func (r *tripRepo) ListByRider(ctx context.Context, riderID string) ([]model.Trip, error) {
	var trips []model.Trip
	err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("depart_at DESC").
		Find(&trips).Error
	return trips, err
}

func (r *tripRepo) Update(ctx context.Context, trip *model.Trip) error {
	err := updateVersioned(ctx, r.db, &model.Trip{}, "trip_id", trip.TripID, trip.Version, map[string]interface{}{
		"title":                trip.Title,
		"origin":               trip.Origin,
		"destination":          trip.Destination,
		"origin_place_id":      trip.OriginPlaceID,
		"destination_place_id": trip.DestinationPlaceID,
		"depart_at":            trip.DepartAt,
		"seats":                trip.Seats,
		"mode":                 trip.Mode,
		"notes":                trip.Notes,
		"status":               trip.Status,
		"rider_id":             trip.RiderID,
		"fare_minor":           trip.FareMinor,
		"updated_by":           trip.UpdatedBy,
		"updated_at":           time.Now(),
	})
	if err != nil {
		return err
	}
	trip.Version++
	return nil
}

func (r *tripRepo) AssignRider(ctx context.Context, tripID, riderID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Trip{}).
		Where("trip_id = ? AND status = ?", tripID, model.TripRequested).
		Updates(map[string]interface{}{
			"rider_id":   riderID,
			"status":     model.TripAccepted,
			"updated_by": riderID,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *tripRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Trip{}, "trip_id", id, deletedBy)
}

func (r *tripRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Trip{}).Count(&n).Error
	return n, err
}
