package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
)

// ── 课表导入（.ics）──────────────────────────────────────────
//
// 每个 VEVENT 对应一个周课表条目：
//   - SUMMARY 首个词为课程代码，末尾 "(tutorial)" / "(lab)" 为课型
//   - DTSTART / DTEND 换算到课表时区后取星期几与 HH:MM
//   - LOCATION 按名称匹配本校地点，匹配不到时该事件记为失败
//   - RRULE 只描述重复周次，不影响周课表：同课程同时段的多个事件合并为一个条目
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 5 << 20

var (
	ErrTimetableImportInvalid = errors.New("ICS 文件格式无效")
	ErrTimetableImportEmpty   = errors.New("ICS 文件中没有课程事件")
)

// parsedICSEvent ICS 解析中间结构
type parsedICSEvent struct {
	Index       int
	Summary     string
	CourseCode  string
	SessionType string
	DayOfWeek   int
	StartTime   string
	EndTime     string
	Location    string
}

func (s *timetableService) ImportICS(ctx context.Context, lecturerID string, r io.Reader) (*dto.TimetableImportResult, error) {
	events, skipped, err := parseTimetableICS(io.LimitReader(r, icsMaxFileSize), s.location())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 && len(skipped) == 0 {
		return nil, ErrTimetableImportEmpty
	}

	courses, err := s.repo.Course.ListByLecturer(ctx, lecturerID)
	if err != nil {
		s.logger.Error("查询讲师课程失败", zap.String("lecturer_id", lecturerID), zap.Error(err))
		return nil, err
	}
	byCode := make(map[string]*model.Course, len(courses))
	for i := range courses {
		byCode[strings.ToUpper(courses[i].Code)] = &courses[i]
	}

	result := &dto.TimetableImportResult{
		Created: make([]dto.TimetableEntryResponse, 0, len(events)),
		Errors:  skipped,
	}
	venues := make(map[string]map[string]string) // university_id → 小写名称 → venue_id

	for _, evt := range events {
		course, ok := byCode[evt.CourseCode]
		if !ok {
			result.Errors = append(result.Errors, dto.TimetableImportError{
				Index: evt.Index, Summary: evt.Summary,
				Reason: fmt.Sprintf("未找到自己开设的课程 %s", evt.CourseCode),
			})
			continue
		}

		req := &dto.CreateTimetableRequest{
			CourseID:    course.CourseID,
			DayOfWeek:   evt.DayOfWeek,
			StartTime:   evt.StartTime,
			EndTime:     evt.EndTime,
			SessionType: evt.SessionType,
		}
		if evt.Location != "" {
			venueID, err := s.venueByName(ctx, venues, course.UniversityID, evt.Location)
			if err != nil {
				if !errors.Is(err, ErrVenueNotFound) {
					return nil, err
				}
				result.Errors = append(result.Errors, dto.TimetableImportError{
					Index: evt.Index, Summary: evt.Summary, Reason: err.Error(),
				})
				continue
			}
			req.VenueID = venueID
		}

		entry, err := s.Create(ctx, lecturerID, req)
		if err != nil {
			if !isTimetableRuleError(err) {
				return nil, err
			}
			result.Errors = append(result.Errors, dto.TimetableImportError{
				Index: evt.Index, Summary: evt.Summary, Reason: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, *entry)
	}

	s.logger.Info("导入 ICS 课表",
		zap.String("lecturer_id", lecturerID),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Errors)),
	)
	return result, nil
}

// venueByName 按名称（大小写不敏感）查找本校启用中的地点，每所学校只查询一次；
// 找不到返回 ErrVenueNotFound
func (s *timetableService) venueByName(ctx context.Context, cache map[string]map[string]string, universityID, name string) (*string, error) {
	names, ok := cache[universityID]
	if !ok {
		list, err := s.repo.Venue.List(ctx, universityID, false)
		if err != nil {
			s.logger.Error("查询地点失败", zap.String("university_id", universityID), zap.Error(err))
			return nil, err
		}
		names = make(map[string]string, len(list))
		for _, v := range list {
			names[strings.ToLower(strings.TrimSpace(v.Name))] = v.VenueID
		}
		cache[universityID] = names
	}
	if id, ok := names[strings.ToLower(strings.TrimSpace(name))]; ok {
		return &id, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrVenueNotFound, name)
}

// isTimetableRuleError 单条事件违反课表规则时记入结果而不中断导入
func isTimetableRuleError(err error) bool {
	for _, target := range []error{
		ErrTimetableConflict, ErrTimetableInvalidTime, ErrTimetableOutOfHours,
		ErrTimetableInvalidRange, ErrTimetableVenueInvalid, ErrVenueNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseTimetableICS 解析 VEVENT 并按 课程+课型+星期+时段 去重；无法识别的事件放入 skipped
func parseTimetableICS(r io.Reader, loc *time.Location) ([]parsedICSEvent, []dto.TimetableImportError, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTimetableImportInvalid, err)
	}

	type key struct {
		code, session string
		day           int
		start, end    string
	}
	seen := make(map[key]bool)

	var (
		events  []parsedICSEvent
		skipped []dto.TimetableImportError
	)
	for i, comp := range cal.Events() {
		evt, reason := parseVEvent(comp, loc)
		evt.Index = i + 1
		if reason != "" {
			skipped = append(skipped, dto.TimetableImportError{Index: evt.Index, Summary: evt.Summary, Reason: reason})
			continue
		}
		k := key{evt.CourseCode, evt.SessionType, evt.DayOfWeek, evt.StartTime, evt.EndTime}
		if seen[k] {
			continue
		}
		seen[k] = true
		events = append(events, evt)
	}
	return events, skipped, nil
}

// parseVEvent 解析单个 VEVENT；返回非空 reason 表示跳过
func parseVEvent(evt *ics.VEvent, loc *time.Location) (parsedICSEvent, string) {
	var out parsedICSEvent

	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return out, "缺少 SUMMARY"
	}
	out.Summary = strings.TrimSpace(summary.Value)
	out.CourseCode, out.SessionType = splitSummary(out.Summary)

	start, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return out, "缺少或无法解析 DTSTART"
	}
	end, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		return out, "缺少或无法解析 DTEND"
	}
	if end.YearDay() != start.YearDay() || end.Year() != start.Year() {
		return out, "跨天事件无法放入周课表"
	}

	out.DayOfWeek = isoWeekday(start.Weekday())
	out.StartTime = start.Format("15:04")
	out.EndTime = end.Format("15:04")

	if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
		out.Location = strings.TrimSpace(p.Value)
	}
	return out, ""
}

// splitSummary "CSC101 Intro to Computing (lab)" → ("CSC101", "lab")
func splitSummary(summary string) (string, string) {
	code := strings.ToUpper(strings.Fields(summary)[0])
	session := model.SessionLecture
	lower := strings.ToLower(summary)
	for _, st := range []string{model.SessionTutorial, model.SessionLab} {
		if strings.HasSuffix(lower, "("+st+")") {
			session = st
		}
	}
	return code, session
}

// parseICSDateTime 支持 UTC、浮动时间与 TZID 三种写法，结果换算到 loc
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405"} {
		t, err := time.Parse(layout, prop.Value)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", prop.Value)
}
