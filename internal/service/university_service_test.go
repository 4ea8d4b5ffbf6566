package service

import (
	"context"
	"errors"
	"testing"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
)

func TestUniversityService_Lifecycle(t *testing.T) {
	repo, st := newMockRepository()
	svc := NewUniversityService(repo, testLogger())
	ctx := context.Background()

	uni, err := svc.Create(ctx, &dto.CreateUniversityRequest{Name: " University of Ibadan ", ShortName: "UI", EmailDomain: "UI.edu.ng"}, "sa")
	if err != nil {
		t.Fatalf("创建高校失败: %v", err)
	}
	if uni.Name != "University of Ibadan" || uni.EmailDomain != "ui.edu.ng" || !uni.IsActive {
		t.Errorf("高校字段不正确: %+v", uni)
	}

	if _, err := svc.Create(ctx, &dto.CreateUniversityRequest{Name: "university of ibadan"}, "sa"); !errors.Is(err, ErrUniversityNameExists) {
		t.Errorf("名称忽略大小写唯一，实际=%v", err)
	}

	other, _ := svc.Create(ctx, &dto.CreateUniversityRequest{Name: "Covenant University"}, "sa")
	dup := "University of Ibadan"
	if _, err := svc.Update(ctx, other.ID, &dto.UpdateUniversityRequest{Name: &dup}, "sa"); !errors.Is(err, ErrUniversityNameExists) {
		t.Errorf("改名为已存在名称期望 ErrUniversityNameExists，实际=%v", err)
	}
	// 保留自身名称不算冲突
	same := "Covenant University"
	off := false
	updated, err := svc.Update(ctx, other.ID, &dto.UpdateUniversityRequest{Name: &same, IsActive: &off}, "sa")
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.IsActive {
		t.Error("高校应被停用")
	}

	active, _ := svc.List(ctx, false)
	all, _ := svc.List(ctx, true)
	if len(active) != 1 || len(all) != 2 {
		t.Errorf("列表过滤不正确: active=%d all=%d", len(active), len(all))
	}

	seedUser(st, "s1", model.RoleStudent, uni.ID)
	if err := svc.Delete(ctx, uni.ID, "sa"); !errors.Is(err, ErrUniversityInUse) {
		t.Errorf("仍有用户时期望 ErrUniversityInUse，实际=%v", err)
	}
	if err := svc.Delete(ctx, other.ID, "sa"); err != nil {
		t.Errorf("删除空高校失败: %v", err)
	}
	if _, err := svc.GetByID(ctx, other.ID); !errors.Is(err, ErrUniversityNotFound) {
		t.Errorf("期望 ErrUniversityNotFound，实际=%v", err)
	}
}

func TestVenueService_Lifecycle(t *testing.T) {
	repo, st := newMockRepository()
	svc := NewVenueService(repo, testLogger())
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateVenueRequest{UniversityID: "nope", Name: "LT1"}, "a1"); !errors.Is(err, ErrUniversityNotFound) {
		t.Errorf("期望 ErrUniversityNotFound，实际=%v", err)
	}

	st.universities["uni-1"] = &model.University{UniversityID: "uni-1", Name: "University of Ibadan", IsActive: true}

	v, err := svc.Create(ctx, &dto.CreateVenueRequest{UniversityID: "uni-1", Name: " LT1 ", Capacity: 300}, "a1")
	if err != nil {
		t.Fatalf("创建地点失败: %v", err)
	}
	if v.Name != "LT1" || !v.IsActive {
		t.Errorf("地点字段不正确: %+v", v)
	}

	off := false
	if _, err := svc.Update(ctx, v.ID, &dto.UpdateVenueRequest{IsActive: &off}, "a1"); err != nil {
		t.Fatalf("停用地点失败: %v", err)
	}
	list, _ := svc.List(ctx, &dto.VenueListRequest{UniversityID: "uni-1"})
	if len(list) != 0 {
		t.Errorf("默认不返回停用地点，实际=%d", len(list))
	}
	list, _ = svc.List(ctx, &dto.VenueListRequest{UniversityID: "uni-1", IncludeInactive: true})
	if len(list) != 1 {
		t.Errorf("include_inactive 应返回停用地点，实际=%d", len(list))
	}

	if err := svc.Delete(ctx, v.ID, "a1"); err != nil {
		t.Fatalf("删除地点失败: %v", err)
	}
	if err := svc.Delete(ctx, v.ID, "a1"); !errors.Is(err, ErrVenueNotFound) {
		t.Errorf("重复删除期望 ErrVenueNotFound，实际=%v", err)
	}
}
