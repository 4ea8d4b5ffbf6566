package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// CourseFilter 课程目录筛选条件
type CourseFilter struct {
	UniversityID string
	LecturerID   string
	Keyword      string
}

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	// GetByCode 同校课程代码唯一（大小写不敏感）
	GetByCode(ctx context.Context, universityID, code string) (*model.Course, error)
	ListByLecturer(ctx context.Context, lecturerID string) ([]model.Course, error)
	List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	course.Code = strings.ToUpper(strings.TrimSpace(course.Code))
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, universityID, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("university_id = ? AND UPPER(code) = ?", universityID, strings.ToUpper(strings.TrimSpace(code))).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByLecturer(ctx context.Context, lecturerID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("lecturer_id = ?", lecturerID).
		Order("code ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})
	if filter.UniversityID != "" {
		db = db.Where("university_id = ?", filter.UniversityID)
	}
	if filter.LecturerID != "" {
		db = db.Where("lecturer_id = ?", filter.LecturerID)
	}
	if filter.Keyword != "" {
		kw := likePattern(filter.Keyword)
		db = db.Where("code ILIKE ? OR title ILIKE ?", kw, kw)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Lecturer").
		Offset(offset).Limit(limit).
		Order("code ASC").
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	err := updateVersioned(ctx, r.db, &model.Course{}, "course_id", course.CourseID, course.Version, map[string]interface{}{
		"code":        strings.ToUpper(strings.TrimSpace(course.Code)),
		"title":       course.Title,
		"units":       course.Units,
		"description": course.Description,
		"updated_by":  course.UpdatedBy,
		"updated_at":  time.Now(),
	})
	if err != nil {
		return err
	}
	course.Version++
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Course{}, "course_id", id, deletedBy)
}
