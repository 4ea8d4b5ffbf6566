package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound     = errors.New("课程不存在")
	ErrCourseCodeExists   = errors.New("本校已存在相同课程代码")
	ErrCourseNotOwned     = errors.New("只能操作自己开设的课程")
	ErrNoUniversity       = errors.New("账号未绑定高校")
	ErrCourseOtherSchool  = errors.New("不能选修其他高校的课程")
	ErrAlreadyEnrolled    = errors.New("已选修该课程")
	ErrNotEnrolled        = errors.New("未选修该课程")
	ErrEnrollmentGraded   = errors.New("已录入成绩，不能退选")
	ErrGradeScoreMismatch = errors.New("等级与分数不一致")
)

// CourseService 课程 / 选课 / 成绩业务接口
type CourseService interface {
	// 讲师
	ListOwn(ctx context.Context, lecturerID string) ([]dto.CourseResponse, error)
	Create(ctx context.Context, lecturerID, universityID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Update(ctx context.Context, id, lecturerID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id, lecturerID string) error
	ListStudents(ctx context.Context, courseID, lecturerID string) ([]dto.EnrollmentResponse, error)
	Grade(ctx context.Context, courseID, studentID, lecturerID string, req *dto.GradeRequest) (*dto.EnrollmentResponse, error)

	// 学生
	Catalog(ctx context.Context, universityID string, req *dto.CourseCatalogRequest) ([]dto.CourseResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	Enroll(ctx context.Context, courseID, studentID, universityID string) (*dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, courseID, studentID string) error
	AcademicRecords(ctx context.Context, studentID string) (*dto.AcademicRecordResponse, error)
}

type courseService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── 讲师：课程维护 ──────────────────────

func (s *courseService) ListOwn(ctx context.Context, lecturerID string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByLecturer(ctx, lecturerID)
	if err != nil {
		s.logger.Error("查询讲师课程失败", zap.String("lecturer_id", lecturerID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

func (s *courseService) Create(ctx context.Context, lecturerID, universityID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if universityID == "" {
		return nil, ErrNoUniversity
	}

	code := normalizeCourseCode(req.Code)
	if err := s.ensureCodeFree(ctx, universityID, code, ""); err != nil {
		return nil, err
	}

	course := &model.Course{
		UniversityID: universityID,
		LecturerID:   lecturerID,
		Code:         code,
		Title:        strings.TrimSpace(req.Title),
		Units:        req.Units,
		Description:  req.Description,
	}
	course.CreatedBy = &lecturerID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id, lecturerID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.loadOwned(ctx, id, lecturerID)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := normalizeCourseCode(*req.Code)
		if code != course.Code {
			if err := s.ensureCodeFree(ctx, course.UniversityID, code, id); err != nil {
				return nil, err
			}
		}
		course.Code = code
	}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Units != nil {
		course.Units = *req.Units
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	course.UpdatedBy = &lecturerID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// Delete 删除课程并级联软删除其课表条目
func (s *courseService) Delete(ctx context.Context, id, lecturerID string) error {
	if _, err := s.loadOwned(ctx, id, lecturerID); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Timetable.DeleteByCourse(ctx, id, lecturerID); err != nil {
			return err
		}
		return tx.Course.Delete(ctx, id, lecturerID)
	})
	if err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) ListStudents(ctx context.Context, courseID, lecturerID string) ([]dto.EnrollmentResponse, error) {
	if _, err := s.loadOwned(ctx, courseID, lecturerID); err != nil {
		return nil, err
	}

	list, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询选课学生失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.EnrollmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toEnrollmentResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── 讲师：成绩录入 ──────────────────────

func (s *courseService) Grade(ctx context.Context, courseID, studentID, lecturerID string, req *dto.GradeRequest) (*dto.EnrollmentResponse, error) {
	course, err := s.loadOwned(ctx, courseID, lecturerID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.repo.Enrollment.Get(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	score := *req.Score
	grade := GradeForScore(score)
	if req.Grade != "" && req.Grade != grade {
		return nil, ErrGradeScoreMismatch
	}

	now := time.Now()
	enrollment.Score = &score
	enrollment.Grade = &grade
	enrollment.GradedAt = &now
	enrollment.UpdatedBy = &lecturerID

	if err := s.repo.Enrollment.UpdateGrade(ctx, enrollment); err != nil {
		s.logger.Error("录入成绩失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(ctx, studentID, NotifyGrade,
		"成绩已发布",
		fmt.Sprintf("%s %s 成绩：%s（%d 分）", course.Code, course.Title, grade, score),
		model.RelatedEnrollment, enrollment.EnrollmentID)

	enrollment.Course = course
	return toEnrollmentResponse(enrollment), nil
}

// ────────────────────── 学生：选课 ──────────────────────

func (s *courseService) Catalog(ctx context.Context, universityID string, req *dto.CourseCatalogRequest) ([]dto.CourseResponse, int64, error) {
	filter := repository.CourseFilter{
		UniversityID: universityID,
		Keyword:      strings.TrimSpace(req.Keyword),
	}
	courses, total, err := s.repo.Course.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询课程目录失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, total, nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) Enroll(ctx context.Context, courseID, studentID, universityID string) (*dto.EnrollmentResponse, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if universityID == "" || course.UniversityID != universityID {
		return nil, ErrCourseOtherSchool
	}

	if _, err := s.repo.Enrollment.Get(ctx, courseID, studentID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{CourseID: courseID, StudentID: studentID}
	enrollment.CreatedBy = &studentID

	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		s.logger.Error("选课失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	enrollment.Course = course
	return toEnrollmentResponse(enrollment), nil
}

func (s *courseService) Unenroll(ctx context.Context, courseID, studentID string) error {
	enrollment, err := s.repo.Enrollment.Get(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	if enrollment.Grade != nil {
		return ErrEnrollmentGraded
	}

	if err := s.repo.Enrollment.Delete(ctx, enrollment.EnrollmentID, studentID); err != nil {
		s.logger.Error("退选失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 学生：学业记录 ──────────────────────

func (s *courseService) AcademicRecords(ctx context.Context, studentID string) (*dto.AcademicRecordResponse, error) {
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学业记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := &dto.AcademicRecordResponse{Records: make([]dto.EnrollmentResponse, 0, len(list))}
	var weighted int
	for i := range list {
		e := &list[i]
		resp.Records = append(resp.Records, *toEnrollmentResponse(e))

		units := 0
		if e.Course != nil {
			units = e.Course.Units
		}
		resp.TotalUnits += units
		if e.Grade != nil {
			resp.GradedUnits += units
			weighted += GradePoint(*e.Grade) * units
		}
	}

	if resp.GradedUnits > 0 {
		resp.GPA = math.Round(float64(weighted)/float64(resp.GradedUnits)*100) / 100
	}
	return resp, nil
}

// ── 成绩换算（5 分制） ──

// GradeForScore 分数换算等级：70+ A，60+ B，50+ C，45+ D，40+ E，其余 F
func GradeForScore(score int) string {
	switch {
	case score >= 70:
		return "A"
	case score >= 60:
		return "B"
	case score >= 50:
		return "C"
	case score >= 45:
		return "D"
	case score >= 40:
		return "E"
	default:
		return "F"
	}
}

// GradePoint 等级对应绩点
func GradePoint(grade string) int {
	switch grade {
	case "A":
		return 5
	case "B":
		return 4
	case "C":
		return 3
	case "D":
		return 2
	case "E":
		return 1
	default:
		return 0
	}
}

// ── 内部辅助方法 ──

func (s *courseService) load(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) loadOwned(ctx context.Context, id, lecturerID string) (*model.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.LecturerID != lecturerID {
		return nil, ErrCourseNotOwned
	}
	return course, nil
}

func (s *courseService) ensureCodeFree(ctx context.Context, universityID, code, selfID string) error {
	existing, err := s.repo.Course.GetByCode(ctx, universityID, code)
	if err == nil && existing.CourseID != selfID {
		return ErrCourseCodeExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	var lecturer *dto.UserBrief
	if c.Lecturer != nil {
		lecturer = toUserBrief(c.Lecturer)
	}
	return &dto.CourseResponse{
		ID:           c.CourseID,
		UniversityID: c.UniversityID,
		Code:         c.Code,
		Title:        c.Title,
		Units:        c.Units,
		Description:  c.Description,
		Lecturer:     lecturer,
		Version:      c.Version,
	}
}

func toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:       e.EnrollmentID,
		Student:  toUserBrief(e.Student),
		Score:    e.Score,
		Grade:    e.Grade,
		GradedAt: formatTimePtr(e.GradedAt),
		Enrolled: formatTime(e.CreatedAt),
	}
	if e.Course != nil {
		resp.Course = toCourseResponse(e.Course)
	}
	return resp
}
