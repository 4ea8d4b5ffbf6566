package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ── 出行模块业务错误 ──

var (
	ErrTripNotFound    = errors.New("行程不存在")
	ErrTripNotOwned    = errors.New("只能操作自己的行程")
	ErrTripNotEditable = errors.New("只有计划中的行程可以修改")
	ErrTripNotRide     = errors.New("只有约车行程可以发布给骑手")
	ErrTripTaken       = errors.New("该约车已被其他骑手接走")
	ErrTripSelfAccept  = errors.New("不能接自己发布的约车")
)

// TripService 出行计划与约车业务接口
type TripService interface {
	Create(ctx context.Context, userID string, req *dto.CreateTripRequest) (*model.Trip, error)
	Update(ctx context.Context, id, userID string, req *dto.UpdateTripRequest) (*model.Trip, error)
	Delete(ctx context.Context, id, userID string) error
	Get(ctx context.Context, id, userID, role string) (*model.Trip, error)
	ListMine(ctx context.Context, userID string, req *dto.TripListRequest) ([]model.Trip, int64, error)
	ChangeStatus(ctx context.Context, id, userID string, req *dto.TripStatusRequest) (*model.Trip, error)

	ListOpenRides(ctx context.Context, req *dto.PaginationRequest) ([]model.Trip, int64, error)
	AcceptRide(ctx context.Context, id, riderID string) (*model.Trip, error)
	ListRiderTrips(ctx context.Context, riderID string) ([]model.Trip, error)
}

type tripService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewTripService 创建 TripService 实例
func NewTripService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) TripService {
	return &tripService{repo: repo, notifier: notifier, logger: logger}
}

func (s *tripService) Create(ctx context.Context, userID string, req *dto.CreateTripRequest) (*model.Trip, error) {
	trip := &model.Trip{
		UserID:             userID,
		Title:              strings.TrimSpace(req.Title),
		Origin:             strings.TrimSpace(req.Origin),
		Destination:        strings.TrimSpace(req.Destination),
		OriginPlaceID:      req.OriginPlaceID,
		DestinationPlaceID: req.DestinationPlaceID,
		DepartAt:           req.DepartAt.UTC(),
		Seats:              req.Seats,
		Mode:               req.Mode,
		Notes:              req.Notes,
		Status:             model.TripPlanned,
	}
	if trip.Seats == 0 {
		trip.Seats = 1
	}
	if trip.Mode == "" {
		trip.Mode = "walk"
	}
	trip.CreatedBy = &userID

	if err := s.repo.Trip.Create(ctx, trip); err != nil {
		s.logger.Error("创建行程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return trip, nil
}

func (s *tripService) Update(ctx context.Context, id, userID string, req *dto.UpdateTripRequest) (*model.Trip, error) {
	trip, err := s.loadOwn(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if trip.Status != model.TripPlanned {
		return nil, ErrTripNotEditable
	}

	if req.Title != nil {
		trip.Title = strings.TrimSpace(*req.Title)
	}
	if req.Origin != nil {
		trip.Origin = strings.TrimSpace(*req.Origin)
	}
	if req.Destination != nil {
		trip.Destination = strings.TrimSpace(*req.Destination)
	}
	if req.OriginPlaceID != nil {
		trip.OriginPlaceID = *req.OriginPlaceID
	}
	if req.DestinationPlaceID != nil {
		trip.DestinationPlaceID = *req.DestinationPlaceID
	}
	if req.DepartAt != nil {
		trip.DepartAt = req.DepartAt.UTC()
	}
	if req.Seats != nil {
		trip.Seats = *req.Seats
	}
	if req.Notes != nil {
		trip.Notes = *req.Notes
	}
	trip.UpdatedBy = &userID

	if err := s.repo.Trip.Update(ctx, trip); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新行程失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return trip, nil
}

func (s *tripService) Delete(ctx context.Context, id, userID string) error {
	trip, err := s.loadOwn(ctx, id, userID)
	if err != nil {
		return err
	}
	// 已被骑手接单的行程需先取消
	if trip.Status == model.TripAccepted || trip.Status == model.TripInProgress {
		return ErrTripNotEditable
	}
	return s.repo.Trip.Delete(ctx, id, userID)
}

func (s *tripService) Get(ctx context.Context, id, userID, role string) (*model.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID == userID || isAdminRole(role) || (trip.RiderID != nil && *trip.RiderID == userID) {
		return trip, nil
	}
	if role == model.RoleRider && trip.Status == model.TripRequested {
		return trip, nil
	}
	return nil, ErrTripNotOwned
}

func (s *tripService) ListMine(ctx context.Context, userID string, req *dto.TripListRequest) ([]model.Trip, int64, error) {
	return s.repo.Trip.ListByUser(ctx, userID, req.Status, req.GetOffset(), req.GetPageSize())
}

// ChangeStatus 发起人：planned → requested(约车) / completed / cancelled，requested|accepted → cancelled；
// 骑手：accepted → in_progress → completed（记录车费）
func (s *tripService) ChangeStatus(ctx context.Context, id, userID string, req *dto.TripStatusRequest) (*model.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := trip.UserID == userID
	isRider := trip.RiderID != nil && *trip.RiderID == userID
	if !isOwner && !isRider {
		return nil, ErrTripNotOwned
	}

	from, to := trip.Status, req.Status
	switch {
	case isOwner && from == model.TripPlanned && to == model.TripRequested:
		if trip.Mode != model.TripModeRide {
			return nil, ErrTripNotRide
		}
	case isOwner && from == model.TripPlanned && to == model.TripCompleted:
	case isOwner && to == model.TripCancelled &&
		(from == model.TripPlanned || from == model.TripRequested || from == model.TripAccepted):
	case isRider && from == model.TripAccepted && to == model.TripInProgress:
	case isRider && from == model.TripInProgress && to == model.TripCompleted:
		if req.FareMinor != nil {
			trip.FareMinor = *req.FareMinor
		}
	default:
		return nil, ErrInvalidTransition
	}

	trip.Status = to
	trip.UpdatedBy = &userID
	if err := s.repo.Trip.Update(ctx, trip); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新行程状态失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.notifyCounterpart(ctx, trip, userID, to)
	return trip, nil
}

// notifyCounterpart 约车双方互相通知状态变化
func (s *tripService) notifyCounterpart(ctx context.Context, trip *model.Trip, actorID, status string) {
	if trip.RiderID == nil {
		return
	}
	target := trip.UserID
	if actorID == trip.UserID {
		target = *trip.RiderID
	}
	s.notifier.Notify(ctx, target, NotifyTrip, "行程状态更新",
		fmt.Sprintf("行程「%s」状态变为 %s", trip.Title, status), model.RelatedTrip, trip.TripID)
}

// ────────────────────── 约车 ──────────────────────

func (s *tripService) ListOpenRides(ctx context.Context, req *dto.PaginationRequest) ([]model.Trip, int64, error) {
	return s.repo.Trip.ListOpenRides(ctx, req.GetOffset(), req.GetPageSize())
}

// AcceptRide 先到先得，条件更新 status='requested'
func (s *tripService) AcceptRide(ctx context.Context, id, riderID string) (*model.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID == riderID {
		return nil, ErrTripSelfAccept
	}
	if trip.Mode != model.TripModeRide || trip.Status != model.TripRequested {
		return nil, ErrTripTaken
	}

	ok, err := s.repo.Trip.AssignRider(ctx, id, riderID)
	if err != nil {
		s.logger.Error("约车接单失败", zap.String("trip_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrTripTaken
	}

	trip.Status = model.TripAccepted
	trip.RiderID = &riderID
	trip.Version++

	s.notifier.Notify(ctx, trip.UserID, NotifyTrip, "约车已被接单",
		fmt.Sprintf("行程「%s」已有骑手接单", trip.Title), model.RelatedTrip, trip.TripID)
	return trip, nil
}

func (s *tripService) ListRiderTrips(ctx context.Context, riderID string) ([]model.Trip, error) {
	return s.repo.Trip.ListByRider(ctx, riderID)
}

func (s *tripService) loadOwn(ctx context.Context, id, userID string) (*model.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, ErrTripNotOwned
	}
	return trip, nil
}

func (s *tripService) load(ctx context.Context, id string) (*model.Trip, error) {
	trip, err := s.repo.Trip.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		s.logger.Error("查询行程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return trip, nil
}
