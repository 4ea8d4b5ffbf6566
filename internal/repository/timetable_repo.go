package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"unilife/backend/internal/model"
)

// OverlapQuery 冲突检测条件：同一天内与 [Start, End) 相交，且讲师相同或地点相同
type OverlapQuery struct {
	DayOfWeek  int
	Start      string
	End        string
	LecturerID string
	VenueID    *string
	ExcludeID  string
}

// TimetableRepository 课表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, entry *model.TimetableEntry) error
	GetByID(ctx context.Context, id string) (*model.TimetableEntry, error)
	ListByLecturer(ctx context.Context, lecturerID string) ([]model.TimetableEntry, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]model.TimetableEntry, error)
	FindOverlapping(ctx context.Context, q OverlapQuery) ([]model.TimetableEntry, error)
	Update(ctx context.Context, entry *model.TimetableEntry) error
	Delete(ctx context.Context, id string, deletedBy string) error
	DeleteByCourse(ctx context.Context, courseID string, deletedBy string) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, entry *model.TimetableEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	var entry model.TimetableEntry
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Venue").
		Where("timetable_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timetableRepo) ListByLecturer(ctx context.Context, lecturerID string) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Venue").
		Where("lecturer_id = ?", lecturerID).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	return entries, err
}

func (r *timetableRepo) ListByCourses(ctx context.Context, courseIDs []string) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	if len(courseIDs) == 0 {
		return entries, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Venue").
		Where("course_id IN ?", courseIDs).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	return entries, err
}

// FindOverlapping 半开区间相交：existing.start < q.End AND existing.end > q.Start
func (r *timetableRepo) FindOverlapping(ctx context.Context, q OverlapQuery) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	db := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Venue").
		Where("day_of_week = ?", q.DayOfWeek).
		Where("start_time < ? AND end_time > ?", q.End, q.Start)

	if q.VenueID != nil && *q.VenueID != "" {
		db = db.Where("lecturer_id = ? OR venue_id = ?", q.LecturerID, *q.VenueID)
	} else {
		db = db.Where("lecturer_id = ?", q.LecturerID)
	}
	if q.ExcludeID != "" {
		db = db.Where("timetable_id <> ?", q.ExcludeID)
	}

	err := db.Order("start_time ASC").Find(&entries).Error
	return entries, err
}

func (r *timetableRepo) Update(ctx context.Context, entry *model.TimetableEntry) error {
	err := updateVersioned(ctx, r.db, &model.TimetableEntry{}, "timetable_id", entry.TimetableID, entry.Version, map[string]interface{}{
		"course_id":    entry.CourseID,
		"day_of_week":  entry.DayOfWeek,
		"start_time":   entry.StartTime,
		"end_time":     entry.EndTime,
		"venue_id":     entry.VenueID,
		"session_type": entry.SessionType,
		"updated_by":   entry.UpdatedBy,
		"updated_at":   time.Now(),
	})
	if err != nil {
		return err
	}
	entry.Version++
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return softDelete(ctx, r.db, &model.TimetableEntry{}, "timetable_id", id, deletedBy)
}

// DeleteByCourse 课程删除时级联软删除其全部课表条目
func (r *timetableRepo) DeleteByCourse(ctx context.Context, courseID string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Where("course_id = ?", courseID).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
