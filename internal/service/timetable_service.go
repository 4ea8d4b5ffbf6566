package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/config"
	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableNotFound     = errors.New("课表条目不存在")
	ErrTimetableNotOwned     = errors.New("只能操作自己课程的课表")
	ErrTimetableInvalidTime  = errors.New("时间格式错误，应为 HH:MM")
	ErrTimetableOutOfHours   = errors.New("上课时间必须在 07:00-22:00 之间")
	ErrTimetableInvalidRange = errors.New("结束时间必须晚于开始时间")
	ErrTimetableConflict     = errors.New("课表时间冲突")
	ErrTimetableVenueInvalid = errors.New("上课地点不可用")
)

// 课表允许的时间窗口（分钟）
const (
	dayStartMinutes = 7 * 60
	dayEndMinutes   = 22 * 60
)

// ConflictError 携带冲突条目明细；errors.Is(err, ErrTimetableConflict) 成立
type ConflictError struct {
	Conflicts []dto.TimetableConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s（%d 条）", ErrTimetableConflict.Error(), len(e.Conflicts))
}

// Is 使 errors.Is 可与哨兵错误匹配
func (e *ConflictError) Is(target error) bool {
	return target == ErrTimetableConflict
}

// TimetableService 课表业务接口
type TimetableService interface {
	ListOwn(ctx context.Context, lecturerID string) ([]dto.TimetableEntryResponse, error)
	Create(ctx context.Context, lecturerID string, req *dto.CreateTimetableRequest) (*dto.TimetableEntryResponse, error)
	Update(ctx context.Context, id, lecturerID string, req *dto.UpdateTimetableRequest) (*dto.TimetableEntryResponse, error)
	Delete(ctx context.Context, id, lecturerID string) error

	LecturerGrid(ctx context.Context, lecturerID string) (*dto.GridResponse, error)
	StudentGrid(ctx context.Context, studentID string) (*dto.GridResponse, error)

	// Export 导出课表，返回文件内容、文件名与 Content-Type
	Export(ctx context.Context, userID, role string, req *dto.TimetableExportRequest) ([]byte, string, string, error)
	// ImportICS 从 .ics 批量创建课表条目，逐条报告失败原因
	ImportICS(ctx context.Context, lecturerID string, r io.Reader) (*dto.TimetableImportResult, error)
}

type timetableService struct {
	cfg    *config.TimetableConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(cfg *config.TimetableConfig, repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── 列表 ──────────────────────

func (s *timetableService) ListOwn(ctx context.Context, lecturerID string) ([]dto.TimetableEntryResponse, error) {
	entries, err := s.repo.Timetable.ListByLecturer(ctx, lecturerID)
	if err != nil {
		s.logger.Error("查询讲师课表失败", zap.String("lecturer_id", lecturerID), zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries), nil
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, lecturerID string, req *dto.CreateTimetableRequest) (*dto.TimetableEntryResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.LecturerID != lecturerID {
		return nil, ErrTimetableNotOwned
	}

	start, end, err := validateSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	venueID := normalizeVenueID(req.VenueID)
	venue, err := s.checkVenue(ctx, venueID, course.UniversityID)
	if err != nil {
		return nil, err
	}

	entry := &model.TimetableEntry{
		CourseID:    course.CourseID,
		LecturerID:  lecturerID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   formatClock(start),
		EndTime:     formatClock(end),
		VenueID:     venueID,
		SessionType: req.SessionType,
	}
	if entry.SessionType == "" {
		entry.SessionType = model.SessionLecture
	}
	entry.CreatedBy = &lecturerID

	if err := s.ensureNoConflict(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.repo.Timetable.Create(ctx, entry); err != nil {
		s.logger.Error("创建课表条目失败", zap.Error(err))
		return nil, err
	}

	entry.Course = course
	entry.Venue = venue
	return toEntryResponse(entry), nil
}

// ────────────────────── Update ──────────────────────

func (s *timetableService) Update(ctx context.Context, id, lecturerID string, req *dto.UpdateTimetableRequest) (*dto.TimetableEntryResponse, error) {
	entry, err := s.loadOwned(ctx, id, lecturerID)
	if err != nil {
		return nil, err
	}

	// 客户端持有的版本号即乐观锁版本
	entry.Version = req.Version

	if req.DayOfWeek != nil {
		entry.DayOfWeek = *req.DayOfWeek
	}
	startRaw, endRaw := entry.StartTime, entry.EndTime
	if req.StartTime != nil {
		startRaw = *req.StartTime
	}
	if req.EndTime != nil {
		endRaw = *req.EndTime
	}
	start, end, err := validateSlot(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	entry.StartTime = formatClock(start)
	entry.EndTime = formatClock(end)

	if req.VenueID != nil {
		entry.VenueID = normalizeVenueID(req.VenueID)
		entry.Venue = nil
	}
	if entry.Venue == nil && entry.VenueID != nil {
		universityID := ""
		if entry.Course != nil {
			universityID = entry.Course.UniversityID
		}
		venue, err := s.checkVenue(ctx, entry.VenueID, universityID)
		if err != nil {
			return nil, err
		}
		entry.Venue = venue
	}
	if req.SessionType != nil {
		entry.SessionType = *req.SessionType
	}
	entry.UpdatedBy = &lecturerID

	if err := s.ensureNoConflict(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.repo.Timetable.Update(ctx, entry); err != nil {
		if !isOptimisticLock(err) {
			s.logger.Error("更新课表条目失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toEntryResponse(entry), nil
}

// ────────────────────── Delete ──────────────────────

func (s *timetableService) Delete(ctx context.Context, id, lecturerID string) error {
	if _, err := s.loadOwned(ctx, id, lecturerID); err != nil {
		return err
	}
	if err := s.repo.Timetable.Delete(ctx, id, lecturerID); err != nil {
		s.logger.Error("删除课表条目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 周视图 ──────────────────────

func (s *timetableService) LecturerGrid(ctx context.Context, lecturerID string) (*dto.GridResponse, error) {
	entries, err := s.ListOwn(ctx, lecturerID)
	if err != nil {
		return nil, err
	}
	return BuildGrid(entries), nil
}

func (s *timetableService) StudentGrid(ctx context.Context, studentID string) (*dto.GridResponse, error) {
	entries, err := s.studentEntries(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return BuildGrid(entries), nil
}

// studentEntries 学生已选课程的全部课表条目
func (s *timetableService) studentEntries(ctx context.Context, studentID string) ([]dto.TimetableEntryResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	courseIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}

	entries, err := s.repo.Timetable.ListByCourses(ctx, courseIDs)
	if err != nil {
		s.logger.Error("查询学生课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries), nil
}

// ── 内部辅助方法 ──

func (s *timetableService) loadOwned(ctx context.Context, id, lecturerID string) (*model.TimetableEntry, error) {
	entry, err := s.repo.Timetable.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		s.logger.Error("查询课表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if entry.LecturerID != lecturerID {
		return nil, ErrTimetableNotOwned
	}
	return entry, nil
}

// checkVenue 地点须存在、启用且与课程同校
func (s *timetableService) checkVenue(ctx context.Context, venueID *string, universityID string) (*model.Venue, error) {
	if venueID == nil {
		return nil, nil
	}
	venue, err := s.repo.Venue.GetByID(ctx, *venueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	if !venue.IsActive || (universityID != "" && venue.UniversityID != universityID) {
		return nil, ErrTimetableVenueInvalid
	}
	return venue, nil
}

// ensureNoConflict 同一讲师或同一地点在同一天内不得有半开区间重叠的条目
func (s *timetableService) ensureNoConflict(ctx context.Context, entry *model.TimetableEntry) error {
	overlaps, err := s.repo.Timetable.FindOverlapping(ctx, repository.OverlapQuery{
		DayOfWeek:  entry.DayOfWeek,
		Start:      entry.StartTime,
		End:        entry.EndTime,
		LecturerID: entry.LecturerID,
		VenueID:    entry.VenueID,
		ExcludeID:  entry.TimetableID,
	})
	if err != nil {
		s.logger.Error("课表冲突检测失败", zap.Error(err))
		return err
	}
	if len(overlaps) == 0 {
		return nil
	}

	conflicts := make([]dto.TimetableConflict, 0, len(overlaps))
	for i := range overlaps {
		o := &overlaps[i]
		reason := "venue"
		if o.LecturerID == entry.LecturerID {
			reason = "lecturer"
		}
		conflicts = append(conflicts, dto.TimetableConflict{Reason: reason, Entry: *toEntryResponse(o)})
	}
	return &ConflictError{Conflicts: conflicts}
}

// validateSlot 校验并解析起止时间
func validateSlot(startRaw, endRaw string) (int, int, error) {
	start, err := parseClock(startRaw)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, ErrTimetableInvalidRange
	}
	if start < dayStartMinutes || end > dayEndMinutes {
		return 0, 0, ErrTimetableOutOfHours
	}
	return start, end, nil
}

// parseClock 解析 "HH:MM" 或数据库返回的 "HH:MM:SS"，返回当日分钟数
func parseClock(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 || len(parts) > 3 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrTimetableInvalidTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrTimetableInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrTimetableInvalidTime
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// normalizeClock 统一输出 HH:MM
func normalizeClock(v string) string {
	m, err := parseClock(v)
	if err != nil {
		return v
	}
	return formatClock(m)
}

func normalizeVenueID(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	id := strings.TrimSpace(*v)
	return &id
}

func toEntryResponse(e *model.TimetableEntry) *dto.TimetableEntryResponse {
	resp := &dto.TimetableEntryResponse{
		ID:          e.TimetableID,
		CourseID:    e.CourseID,
		LecturerID:  e.LecturerID,
		DayOfWeek:   e.DayOfWeek,
		StartTime:   normalizeClock(e.StartTime),
		EndTime:     normalizeClock(e.EndTime),
		VenueID:     derefStr(e.VenueID),
		SessionType: e.SessionType,
		Version:     e.Version,
	}
	if e.Course != nil {
		resp.CourseCode = e.Course.Code
		resp.CourseTitle = e.Course.Title
	}
	if e.Venue != nil {
		resp.VenueName = e.Venue.Name
	}
	return resp
}

func toEntryResponses(entries []model.TimetableEntry) []dto.TimetableEntryResponse {
	result := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toEntryResponse(&entries[i]))
	}
	return result
}
