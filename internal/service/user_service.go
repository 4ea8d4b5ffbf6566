package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDelete     = errors.New("不能删除自己")
	ErrUserSelfSuspend    = errors.New("不能停用自己的账号")
	ErrNoPermission       = errors.New("无权操作")
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID, callerRole string) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID, callerRole string) error
	SetActive(ctx context.Context, id string, active bool, callerID, callerRole string) error
	Delete(ctx context.Context, id string, callerID, callerRole string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row            int
	FullName       string
	Email          string
	MatricNo       string
	UniversityName string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func isAdminRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleSuperAdmin
}

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:         req.Role,
		UniversityID: req.UniversityID,
		Keyword:      strings.TrimSpace(req.Keyword),
		IsActive:     req.IsActive,
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID, callerRole string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 非管理员只能修改自己，且不能变更所属高校
	if !isAdminRole(callerRole) {
		if callerID != id {
			return nil, ErrNoPermission
		}
		if req.UniversityID != nil && user.UniversityID != nil && *req.UniversityID != *user.UniversityID {
			return nil, ErrNoPermission
		}
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.MatricNo != nil {
		user.MatricNo = *req.MatricNo
	}
	if req.UniversityID != nil {
		if _, err := s.repo.University.GetByID(ctx, *req.UniversityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUniversityNotFound
			}
			return nil, err
		}
		user.UniversityID = strPtr(*req.UniversityID)
		user.University = nil
	}

	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 重新加载关联
	return s.GetByID(ctx, id)
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID, callerRole string) error {
	if id == callerID {
		return ErrUserSelfRoleChange
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	// 授予或撤销管理类角色仅限 super_admin
	if (model.IsPrivilegedRole(req.Role) || model.IsPrivilegedRole(user.Role)) && callerRole != model.RoleSuperAdmin {
		return ErrNoPermission
	}
	if user.Role == req.Role {
		return nil
	}

	user.Role = req.Role
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("分配角色失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("角色已变更", zap.String("user_id", id), zap.String("role", req.Role), zap.String("by", callerID))
	return nil
}

// ────────────────────── SetActive ──────────────────────

func (s *userService) SetActive(ctx context.Context, id string, active bool, callerID, callerRole string) error {
	if id == callerID {
		return ErrUserSelfSuspend
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if model.IsPrivilegedRole(user.Role) && callerRole != model.RoleSuperAdmin {
		return ErrNoPermission
	}

	user.IsActive = active
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新账号状态失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID, callerRole string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if model.IsPrivilegedRole(user.Role) && callerRole != model.RoleSuperAdmin {
		return ErrNoPermission
	}

	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 生成 10 位随机密码（保证包含字母和数字）
	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（姓名/邮箱/学号）")
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序；学校列可选）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["matric_no"] < 0 {
		return nil, ErrImportBadHeader
	}

	get := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:            i + 1,
			FullName:       get(row, "name"),
			Email:          get(row, "email"),
			MatricNo:       get(row, "matric_no"),
			UniversityName: get(row, "university"),
		}

		// 跳过全空行
		if item.FullName == "" && item.Email == "" && item.MatricNo == "" && item.UniversityName == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":       -1,
		"email":      -1,
		"matric_no":  -1,
		"university": -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "姓名", "name", "full_name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "学号", "matric_no":
			idx["matric_no"] = i
		case "学校", "university":
			idx["university"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 预加载所有高校，便于按名称查找
	uniMap, err := s.buildUniversityMap(ctx)
	if err != nil {
		s.logger.Error("加载高校列表失败", zap.Error(err))
		return nil, err
	}

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row          ImportUserRow
		universityID *string
		hash         []byte
	}
	var validRows []validatedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.FullName == "" || row.Email == "" || row.MatricNo == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if !strings.Contains(row.Email, "@") {
			fail(row.Row, fmt.Sprintf("邮箱格式错误: %s", row.Email))
			continue
		}

		emailKey := strings.ToLower(row.Email)
		if seen[emailKey] {
			fail(row.Row, fmt.Sprintf("文件内邮箱重复: %s", row.Email))
			continue
		}

		var uniID *string
		if row.UniversityName != "" {
			uni, ok := uniMap[strings.ToLower(row.UniversityName)]
			if !ok {
				fail(row.Row, fmt.Sprintf("学校不存在: %s", row.UniversityName))
				continue
			}
			uniID = strPtr(uni.UniversityID)
		}

		if _, err := s.repo.User.GetByEmail(ctx, row.Email); err == nil {
			fail(row.Row, fmt.Sprintf("邮箱已存在: %s", row.Email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(defaultImportPassword(row.MatricNo)), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seen[emailKey] = true
		validRows = append(validRows, validatedRow{row: row, universityID: uniID, hash: hash})
	}

	if len(validRows) == 0 {
		return resp, nil
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户，任一写入失败则全部回滚
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, vr := range validRows {
			user := &model.User{
				FullName:           vr.row.FullName,
				Email:              vr.row.Email,
				MatricNo:           vr.row.MatricNo,
				PasswordHash:       string(vr.hash),
				Role:               model.RoleStudent,
				UniversityID:       vr.universityID,
				IsActive:           true,
				MustChangePassword: true,
			}
			user.CreatedBy = &callerID

			if err := tx.User.Create(ctx, user); err != nil {
				s.logger.Error("导入用户写入失败，事务回滚", zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Success = len(validRows)
	s.logger.Info("批量导入学生完成", zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

// defaultImportPassword 导入账号初始密码 = "Ul" + 学号后 6 位（不足左补 0）
func defaultImportPassword(matricNo string) string {
	tail := matricNo
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "Ul" + strings.Repeat("0", 6-len(tail)) + tail
}

// buildUniversityMap 构建 小写高校名称/简称 -> 高校 映射
func (s *userService) buildUniversityMap(ctx context.Context) (map[string]*model.University, error) {
	universities, err := s.repo.University.List(ctx, false)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.University, len(universities)*2)
	for i := range universities {
		u := &universities[i]
		m[strings.ToLower(u.Name)] = u
		if u.ShortName != "" {
			m[strings.ToLower(u.ShortName)] = u
		}
	}
	return m, nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	result := make([]byte, length)

	// 保证至少1个字母+1个数字
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
