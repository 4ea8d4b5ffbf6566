package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
)

func setupUserService() (UserService, *mockStore) {
	repo, st := newMockRepository()
	return NewUserService(repo, testLogger()), st
}

func TestUserUpdate_SelfOnlyForNonAdmin(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "u1", model.RoleStudent, "")
	seedUser(st, "u2", model.RoleStudent, "")
	name := "New Name"

	if _, err := svc.Update(context.Background(), "u2", &dto.UpdateUserRequest{FullName: &name}, "u1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("修改他人资料应返回 ErrNoPermission，实际=%v", err)
	}

	resp, err := svc.Update(context.Background(), "u1", &dto.UpdateUserRequest{FullName: &name}, "u1", model.RoleStudent)
	if err != nil {
		t.Fatalf("修改本人资料应成功: %v", err)
	}
	if resp.FullName != "New Name" {
		t.Errorf("期望 FullName=New Name，实际=%s", resp.FullName)
	}
	if st.users["u1"].Version != 2 {
		t.Errorf("更新后版本号应递增，实际=%d", st.users["u1"].Version)
	}
}

func TestUserUpdate_UnknownUniversity(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "u1", model.RoleStudent, "")
	uni := "missing"

	_, err := svc.Update(context.Background(), "u1", &dto.UpdateUserRequest{UniversityID: &uni}, "admin", model.RoleAdmin)
	if !errors.Is(err, ErrUniversityNotFound) {
		t.Errorf("期望 ErrUniversityNotFound，实际=%v", err)
	}
}

func TestAssignRole(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "u1", model.RoleStudent, "")
	seedUser(st, "a1", model.RoleAdmin, "")
	ctx := context.Background()

	tests := []struct {
		name       string
		target     string
		role       string
		callerID   string
		callerRole string
		wantErr    error
	}{
		{"不能修改自己", "a1", model.RoleStudent, "a1", model.RoleAdmin, ErrUserSelfRoleChange},
		{"admin 不能授予 admin", "u1", model.RoleAdmin, "a1", model.RoleAdmin, ErrNoPermission},
		{"admin 不能降级 admin", "a1", model.RoleStudent, "a2", model.RoleAdmin, ErrNoPermission},
		{"admin 可授予 lecturer", "u1", model.RoleLecturer, "a1", model.RoleAdmin, nil},
		{"super_admin 可授予 admin", "u1", model.RoleAdmin, "root", model.RoleSuperAdmin, nil},
		{"用户不存在", "ghost", model.RoleRider, "root", model.RoleSuperAdmin, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AssignRole(ctx, tt.target, &dto.AssignRoleRequest{Role: tt.role}, tt.callerID, tt.callerRole)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际=%v", tt.wantErr, err)
			}
		})
	}
	if st.users["u1"].Role != model.RoleAdmin {
		t.Errorf("最终角色应为 admin，实际=%s", st.users["u1"].Role)
	}
}

func TestSetActiveAndDelete_SelfGuards(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "a1", model.RoleAdmin, "")
	seedUser(st, "u1", model.RoleStudent, "")
	ctx := context.Background()

	if err := svc.SetActive(ctx, "a1", false, "a1", model.RoleAdmin); !errors.Is(err, ErrUserSelfSuspend) {
		t.Errorf("期望 ErrUserSelfSuspend，实际=%v", err)
	}
	if err := svc.Delete(ctx, "a1", "a1", model.RoleAdmin); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际=%v", err)
	}
	if err := svc.SetActive(ctx, "u1", false, "a1", model.RoleAdmin); err != nil {
		t.Fatalf("停用学生应成功: %v", err)
	}
	if st.users["u1"].IsActive {
		t.Error("学生账号应被停用")
	}
	if err := svc.Delete(ctx, "u1", "a1", model.RoleAdmin); err != nil {
		t.Fatalf("删除学生应成功: %v", err)
	}
	if _, ok := st.users["u1"]; ok {
		t.Error("学生应已删除")
	}
}

func TestResetPassword(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "u1", model.RoleStudent, "")

	resp, err := svc.ResetPassword(context.Background(), "u1", "a1")
	if err != nil {
		t.Fatalf("重置密码应成功: %v", err)
	}
	if len(resp.TempPassword) != 10 {
		t.Errorf("临时密码应为 10 位，实际=%d", len(resp.TempPassword))
	}
	if !st.users["u1"].MustChangePassword {
		t.Error("重置后应要求修改密码")
	}
}

func TestListUsers_FilterByRole(t *testing.T) {
	svc, st := setupUserService()
	seedUser(st, "u1", model.RoleStudent, "uni-1")
	seedUser(st, "u2", model.RoleLecturer, "uni-1")
	seedUser(st, "u3", model.RoleStudent, "uni-2")

	users, total, err := svc.List(context.Background(), &dto.UserListRequest{Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("期望 2 名学生，实际 total=%d len=%d", total, len(users))
	}
}

// ── 导入 ──

func buildImportFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("写入测试行失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	return buf
}

func TestParseImportFile(t *testing.T) {
	svc, _ := setupUserService()
	buf := buildImportFile(t, [][]interface{}{
		{"邮箱", "姓名", "学号", "学校"},
		{"a@uni.test", "Ada", "CSC/2020/001", "Unilag"},
		{"", "", "", ""},
		{"b@uni.test", "Bola", "CSC/2020/002", ""},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望 2 行（跳过空行），实际=%d", len(rows))
	}
	if rows[0].FullName != "Ada" || rows[0].UniversityName != "Unilag" || rows[1].Row != 4 {
		t.Errorf("解析结果不符合预期: %+v", rows)
	}
}

func TestParseImportFile_BadHeader(t *testing.T) {
	svc, _ := setupUserService()
	buf := buildImportFile(t, [][]interface{}{
		{"name", "phone"},
		{"Ada", "0801"},
	})
	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际=%v", err)
	}
}

func TestImportUsers_PartialFailure(t *testing.T) {
	svc, st := setupUserService()
	st.universities["uni-1"] = &model.University{UniversityID: "uni-1", Name: "University of Lagos", ShortName: "Unilag", IsActive: true}
	existing := seedUser(st, "u0", model.RoleStudent, "")
	existing.Email = "taken@uni.test"

	rows := []ImportUserRow{
		{Row: 2, FullName: "Ada", Email: "ada@uni.test", MatricNo: "001", UniversityName: "unilag"},
		{Row: 3, FullName: "Bola", Email: "taken@uni.test", MatricNo: "002"},
		{Row: 4, FullName: "Chi", Email: "chi@uni.test", MatricNo: "003", UniversityName: "Nowhere"},
		{Row: 5, FullName: "Dupe", Email: "ADA@uni.test", MatricNo: "004"},
		{Row: 6, FullName: "", Email: "e@uni.test", MatricNo: "005"},
	}

	resp, err := svc.ImportUsers(context.Background(), rows, "a1")
	if err != nil {
		t.Fatalf("导入不应返回错误: %v", err)
	}
	if resp.Success != 1 || resp.Failed != 4 {
		t.Errorf("期望成功 1 失败 4，实际 success=%d failed=%d errors=%+v", resp.Success, resp.Failed, resp.Errors)
	}

	var imported *model.User
	for _, u := range st.users {
		if u.Email == "ada@uni.test" {
			imported = u
		}
	}
	if imported == nil {
		t.Fatal("ada 应被导入")
	}
	if imported.UniversityID == nil || *imported.UniversityID != "uni-1" {
		t.Error("应按学校简称匹配高校")
	}
	if !imported.MustChangePassword || imported.Role != model.RoleStudent {
		t.Error("导入账号应为学生且须修改密码")
	}
}

func TestDefaultImportPassword(t *testing.T) {
	tests := map[string]string{
		"123":          "Ul000123",
		"CSC/2020/001": "Ul20/001",
		"654321":       "Ul654321",
	}
	for in, want := range tests {
		if got := defaultImportPassword(in); got != want {
			t.Errorf("defaultImportPassword(%q)=%q，期望 %q", in, got, want)
		}
	}
}
