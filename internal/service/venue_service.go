package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ErrVenueNotFound 上课地点不存在
var ErrVenueNotFound = errors.New("上课地点不存在")

// VenueService 上课地点业务接口
type VenueService interface {
	List(ctx context.Context, req *dto.VenueListRequest) ([]dto.VenueResponse, error)
	GetByID(ctx context.Context, id string) (*dto.VenueResponse, error)
	Create(ctx context.Context, req *dto.CreateVenueRequest, callerID string) (*dto.VenueResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateVenueRequest, callerID string) (*dto.VenueResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type venueService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewVenueService 创建 VenueService 实例
func NewVenueService(repo *repository.Repository, logger *zap.Logger) VenueService {
	return &venueService{repo: repo, logger: logger}
}

func (s *venueService) List(ctx context.Context, req *dto.VenueListRequest) ([]dto.VenueResponse, error) {
	list, err := s.repo.Venue.List(ctx, req.UniversityID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("查询上课地点失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.VenueResponse, 0, len(list))
	for i := range list {
		result = append(result, *toVenueResponse(&list[i]))
	}
	return result, nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*dto.VenueResponse, error) {
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toVenueResponse(v), nil
}

func (s *venueService) Create(ctx context.Context, req *dto.CreateVenueRequest, callerID string) (*dto.VenueResponse, error) {
	if _, err := s.repo.University.GetByID(ctx, req.UniversityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUniversityNotFound
		}
		return nil, err
	}

	v := &model.Venue{
		UniversityID: req.UniversityID,
		Name:         strings.TrimSpace(req.Name),
		Building:     req.Building,
		Capacity:     req.Capacity,
		IsActive:     true,
	}
	v.CreatedBy = &callerID

	if err := s.repo.Venue.Create(ctx, v); err != nil {
		s.logger.Error("创建上课地点失败", zap.Error(err))
		return nil, err
	}
	return toVenueResponse(v), nil
}

func (s *venueService) Update(ctx context.Context, id string, req *dto.UpdateVenueRequest, callerID string) (*dto.VenueResponse, error) {
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.Building != nil {
		v.Building = *req.Building
	}
	if req.Capacity != nil {
		v.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	v.UpdatedBy = &callerID

	if err := s.repo.Venue.Update(ctx, v); err != nil {
		s.logger.Error("更新上课地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toVenueResponse(v), nil
}

func (s *venueService) Delete(ctx context.Context, id string, callerID string) error {
	if err := s.repo.Venue.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVenueNotFound
		}
		s.logger.Error("删除上课地点失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *venueService) load(ctx context.Context, id string) (*model.Venue, error) {
	v, err := s.repo.Venue.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		s.logger.Error("查询上课地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return v, nil
}

func toVenueResponse(v *model.Venue) *dto.VenueResponse {
	return &dto.VenueResponse{
		ID:           v.VenueID,
		UniversityID: v.UniversityID,
		Name:         v.Name,
		Building:     v.Building,
		Capacity:     v.Capacity,
		IsActive:     v.IsActive,
	}
}
