package service

import (
	"errors"
	"time"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	pkgerrors "unilife/backend/pkg/errors"
)

// timeLayout 对外统一的时间格式
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func strPtr(s string) *string {
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) *dto.UserResponse {
	var uni *dto.UniversityBrief
	if user.University != nil {
		uni = &dto.UniversityBrief{
			ID:        user.University.UniversityID,
			Name:      user.University.Name,
			ShortName: user.University.ShortName,
		}
	}
	return &dto.UserResponse{
		ID:                 user.UserID,
		FullName:           user.FullName,
		Email:              user.Email,
		Role:               user.Role,
		MatricNo:           user.MatricNo,
		Phone:              user.Phone,
		AvatarURL:          user.AvatarURL,
		University:         uni,
		IsActive:           user.IsActive,
		MustChangePassword: user.MustChangePassword,
		LastLoginAt:        formatTimePtr(user.LastLoginAt),
		CreatedAt:          formatTime(user.CreatedAt),
	}
}

func toUserBrief(user *model.User) *dto.UserBrief {
	if user == nil {
		return nil
	}
	return &dto.UserBrief{
		ID:       user.UserID,
		FullName: user.FullName,
		Email:    user.Email,
		MatricNo: user.MatricNo,
	}
}

// isOptimisticLock 乐观锁冲突属于预期内的并发结果，不记 Error 日志
func isOptimisticLock(err error) bool {
	return errors.Is(err, pkgerrors.ErrOptimisticLock)
}
