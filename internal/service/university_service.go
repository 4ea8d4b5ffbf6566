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

// ── 高校模块业务错误 ──

var (
	ErrUniversityNotFound   = errors.New("高校不存在")
	ErrUniversityNameExists = errors.New("高校名称已存在")
	ErrUniversityInUse      = errors.New("该高校下仍有用户，无法删除")
)

// UniversityService 高校业务接口
type UniversityService interface {
	List(ctx context.Context, includeInactive bool) ([]dto.UniversityResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UniversityResponse, error)
	Create(ctx context.Context, req *dto.CreateUniversityRequest, callerID string) (*dto.UniversityResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUniversityRequest, callerID string) (*dto.UniversityResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type universityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUniversityService 创建 UniversityService 实例
func NewUniversityService(repo *repository.Repository, logger *zap.Logger) UniversityService {
	return &universityService{repo: repo, logger: logger}
}

func (s *universityService) List(ctx context.Context, includeInactive bool) ([]dto.UniversityResponse, error) {
	list, err := s.repo.University.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("查询高校列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.UniversityResponse, 0, len(list))
	for i := range list {
		result = append(result, *toUniversityResponse(&list[i]))
	}
	return result, nil
}

func (s *universityService) GetByID(ctx context.Context, id string) (*dto.UniversityResponse, error) {
	uni, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUniversityResponse(uni), nil
}

func (s *universityService) Create(ctx context.Context, req *dto.CreateUniversityRequest, callerID string) (*dto.UniversityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	uni := &model.University{
		Name:        name,
		ShortName:   req.ShortName,
		City:        req.City,
		EmailDomain: strings.ToLower(req.EmailDomain),
		IsActive:    true,
	}
	uni.CreatedBy = &callerID

	if err := s.repo.University.Create(ctx, uni); err != nil {
		s.logger.Error("创建高校失败", zap.Error(err))
		return nil, err
	}
	return toUniversityResponse(uni), nil
}

func (s *universityService) Update(ctx context.Context, id string, req *dto.UpdateUniversityRequest, callerID string) (*dto.UniversityResponse, error) {
	uni, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		uni.Name = name
	}
	if req.ShortName != nil {
		uni.ShortName = *req.ShortName
	}
	if req.City != nil {
		uni.City = *req.City
	}
	if req.EmailDomain != nil {
		uni.EmailDomain = strings.ToLower(*req.EmailDomain)
	}
	if req.IsActive != nil {
		uni.IsActive = *req.IsActive
	}
	uni.UpdatedBy = &callerID

	if err := s.repo.University.Update(ctx, uni); err != nil {
		s.logger.Error("更新高校失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUniversityResponse(uni), nil
}

func (s *universityService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.User.CountByUniversity(ctx, id)
	if err != nil {
		s.logger.Error("统计高校用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrUniversityInUse
	}

	if err := s.repo.University.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除高校失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *universityService) load(ctx context.Context, id string) (*model.University, error) {
	uni, err := s.repo.University.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUniversityNotFound
		}
		s.logger.Error("查询高校失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return uni, nil
}

// ensureNameFree 名称唯一（忽略大小写），selfID 为更新时的自身 ID
func (s *universityService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.University.GetByName(ctx, name)
	if err == nil && existing.UniversityID != selfID {
		return ErrUniversityNameExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func toUniversityResponse(u *model.University) *dto.UniversityResponse {
	return &dto.UniversityResponse{
		ID:          u.UniversityID,
		Name:        u.Name,
		ShortName:   u.ShortName,
		City:        u.City,
		EmailDomain: u.EmailDomain,
		IsActive:    u.IsActive,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}
