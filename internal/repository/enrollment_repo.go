package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// EnrollmentRepository 选课与成绩数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) error
	GetByID(ctx context.Context, id string) (*model.Enrollment, error)
	Get(ctx context.Context, courseID, studentID string) (*model.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	// UpdateGrade 乐观锁更新成绩
	UpdateGrade(ctx context.Context, e *model.Enrollment) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, e *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Student").
		Where("enrollment_id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) Get(ctx context.Context, courseID, studentID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Lecturer").
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) UpdateGrade(ctx context.Context, e *model.Enrollment) error {
	err := updateVersioned(ctx, r.db, &model.Enrollment{}, "enrollment_id", e.EnrollmentID, e.Version, map[string]interface{}{
		"score":      e.Score,
		"grade":      e.Grade,
		"graded_at":  e.GradedAt,
		"updated_by": e.UpdatedBy,
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}
	e.Version++
	return nil
}

func (r *enrollmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Enrollment{}, "enrollment_id", id, deletedBy)
}
