package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"unilife/backend/config"
	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	"unilife/backend/pkg/jwt"
	"unilife/backend/pkg/metrics"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailExists         = errors.New("邮箱已被注册")
	ErrAccountDisabled     = errors.New("账号已被停用")
	ErrInviteRequired      = errors.New("该角色注册需要邀请码")
	ErrInviteInvalid       = errors.New("邀请码无效")
	ErrInviteUsed          = errors.New("邀请码已被使用")
	ErrInviteExpired       = errors.New("邀请码已过期")
	ErrInviteRoleMismatch  = errors.New("邀请码与注册角色不匹配")
	ErrRefreshTokenInvalid = errors.New("Refresh Token 无效或已过期")
	ErrOldPasswordWrong    = errors.New("原密码错误")
	ErrPasswordUnchanged   = errors.New("新密码不能与原密码相同")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 拉黑当前 Access Token；refreshToken 非空时一并拉黑
	Logout(ctx context.Context, jti string, expiresAt time.Time, refreshToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GenerateInvite(ctx context.Context, req *dto.GenerateInviteRequest, callerID, callerRole string) (*dto.InviteResponse, error)
	ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if role != model.RoleStudent && strings.TrimSpace(req.InviteCode) == "" {
		return nil, ErrInviteRequired
	}

	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		MatricNo:     req.MatricNo,
		IsActive:     true,
	}
	if req.UniversityID != "" {
		user.UniversityID = strPtr(req.UniversityID)
	}

	// 邀请码校验、用户创建、邀请码核销在同一事务内完成
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var invite *model.InviteCode
		if role != model.RoleStudent {
			invite, err = s.lockInvite(ctx, tx, req.InviteCode, role)
			if err != nil {
				return err
			}
			if invite.UniversityID != nil {
				user.UniversityID = invite.UniversityID
			}
		}

		if user.UniversityID != nil {
			uni, err := tx.University.GetByID(ctx, *user.UniversityID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUniversityNotFound
				}
				return err
			}
			if !uni.IsActive {
				return ErrUniversityNotFound
			}
		}

		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}

		if invite != nil {
			if err := tx.InviteCode.MarkUsed(ctx, invite.InviteCodeID, user.UserID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInviteUsed
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordAuth("register", "failure")
		if !isAuthBusinessError(err) {
			s.logger.Error("注册失败", zap.String("email", req.Email), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordAuth("register", "success")
	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID), zap.String("role", role))

	return &dto.RegisterResponse{
		ID:       user.UserID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

// lockInvite 行锁读取邀请码并校验可用性
func (s *authService) lockInvite(ctx context.Context, tx *repository.Repository, code, role string) (*model.InviteCode, error) {
	invite, err := tx.InviteCode.GetByCodeForUpdate(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}
	if invite.Used() {
		return nil, ErrInviteUsed
	}
	if invite.Expired(time.Now()) {
		return nil, ErrInviteExpired
	}
	if invite.Role != role {
		return nil, ErrInviteRoleMismatch
	}
	return invite, nil
}

func isAuthBusinessError(err error) bool {
	for _, target := range []error{
		ErrInviteRequired, ErrInviteInvalid, ErrInviteUsed, ErrInviteExpired,
		ErrInviteRoleMismatch, ErrUniversityNotFound, ErrEmailExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("login", "failure")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.RecordAuth("login", "failure")
		return nil, ErrInvalidCredentials
	}

	// 3. 停用账号不允许登录
	if !user.IsActive {
		metrics.RecordAuth("login", "failure")
		return nil, ErrAccountDisabled
	}

	resp, err := s.issueTokens(user, req.RememberMe)
	if err != nil {
		return nil, err
	}

	if err := s.repo.User.UpdateLastLogin(ctx, user.UserID, time.Now()); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	metrics.RecordAuth("login", "success")
	return resp, nil
}

// issueTokens 生成 Token 对并构造响应
func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	sub := jwt.Subject{UserID: user.UserID, Role: user.Role, UniversityID: derefStr(user.UniversityID)}

	accessToken, err := s.jwtMgr.GenerateAccessToken(sub)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(sub, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenInvalid
	}

	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		metrics.RecordAuth("refresh", "failure")
		return nil, ErrRefreshTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("查询 Token 黑名单失败，降级放行", zap.Error(err))
		} else if revoked {
			metrics.RecordAuth("refresh", "failure")
			return nil, ErrRefreshTokenInvalid
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 轮换：旧 Refresh Token 立即失效
	s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)

	metrics.RecordAuth("refresh", "success")
	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time, refreshToken string) error {
	s.revoke(ctx, jti, expiresAt)

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseRefreshToken(refreshToken); err == nil {
			s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		}
	}
	return nil
}

// revoke 将 jti 拉黑至其过期时间；Redis 不可用时仅记录日志
func (s *authService) revoke(ctx context.Context, jti string, expiresAt time.Time) {
	if s.blacklist == nil || jti == "" {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}
	if req.OldPassword == req.NewPassword {
		return ErrPasswordUnchanged
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("修改密码失败", zap.String("id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Invite ──────────────────────

func (s *authService) GenerateInvite(ctx context.Context, req *dto.GenerateInviteRequest, callerID, callerRole string) (*dto.InviteResponse, error) {
	// 仅 super_admin 可邀请 admin
	if req.Role == model.RoleAdmin && callerRole != model.RoleSuperAdmin {
		return nil, ErrNoPermission
	}
	if !model.IsValidRole(req.Role) || req.Role == model.RoleStudent || req.Role == model.RoleSuperAdmin {
		return nil, ErrInviteRoleMismatch
	}

	ttl := s.cfg.Auth.InviteTTLDefault
	if req.ExpiresDays > 0 {
		ttl = time.Duration(req.ExpiresDays) * 24 * time.Hour
	}

	invite := &model.InviteCode{
		Code:      newInviteCode(),
		Role:      req.Role,
		ExpiresAt: time.Now().Add(ttl),
	}
	invite.CreatedBy = &callerID
	if req.UniversityID != "" {
		if _, err := s.repo.University.GetByID(ctx, req.UniversityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUniversityNotFound
			}
			return nil, err
		}
		invite.UniversityID = strPtr(req.UniversityID)
	}

	if err := s.repo.InviteCode.Create(ctx, invite); err != nil {
		s.logger.Error("创建邀请码失败", zap.Error(err))
		return nil, err
	}

	return &dto.InviteResponse{
		InviteCode: invite.Code,
		InviteURL:  strings.TrimRight(s.cfg.Server.BaseURL, "/") + "/register?invite=" + invite.Code,
		Role:       invite.Role,
		ExpiresAt:  formatTime(invite.ExpiresAt),
	}, nil
}

func (s *authService) ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error) {
	invite, err := s.repo.InviteCode.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.InviteValidateResponse{Valid: false}, nil
		}
		s.logger.Error("查询邀请码失败", zap.Error(err))
		return nil, err
	}

	valid := !invite.Used() && !invite.Expired(time.Now())
	return &dto.InviteValidateResponse{
		Valid:     valid,
		Role:      invite.Role,
		ExpiresAt: formatTime(invite.ExpiresAt),
	}, nil
}

// newInviteCode 生成 12 位大写邀请码
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
