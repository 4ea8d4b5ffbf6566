package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
)

// ── 课表导出 ──

var (
	ErrTimetableExportEmpty = errors.New("暂无课表可导出")
	ErrTimetableExportFail  = errors.New("生成课表文件失败")
)

const icsContentType = "text/calendar; charset=utf-8"

// icsNamespace 生成稳定的事件 UID，重复导入时日历客户端可去重
var icsNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("unilife/timetable"))

func (s *timetableService) Export(ctx context.Context, userID, role string, req *dto.TimetableExportRequest) ([]byte, string, string, error) {
	var (
		entries []dto.TimetableEntryResponse
		err     error
	)
	if role == model.RoleLecturer {
		entries, err = s.ListOwn(ctx, userID)
	} else {
		entries, err = s.studentEntries(ctx, userID)
	}
	if err != nil {
		return nil, "", "", err
	}
	if len(entries) == 0 {
		return nil, "", "", ErrTimetableExportEmpty
	}

	loc := s.location()
	monday, err := weekStart(req.StartDate, loc)
	if err != nil {
		return nil, "", "", err
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = s.cfg.DefaultWeeks
	}

	if req.Format == "xlsx" {
		data, err := buildTimetableXLSX(entries, monday, weeks)
		if err != nil {
			s.logger.Error("生成课表 Excel 失败", zap.Error(err))
			return nil, "", "", ErrTimetableExportFail
		}
		return data, fmt.Sprintf("timetable_%s.xlsx", monday.Format("20060102")), xlsxContentType, nil
	}

	data := buildTimetableICS(entries, monday, weeks, time.Now())
	return []byte(data), fmt.Sprintf("timetable_%s.ics", monday.Format("20060102")), icsContentType, nil
}

func (s *timetableService) location() *time.Location {
	if s.cfg != nil && s.cfg.Timezone != "" {
		if loc, err := time.LoadLocation(s.cfg.Timezone); err == nil {
			return loc
		}
		s.logger.Warn("时区配置无效，回退 UTC", zap.String("timezone", s.cfg.Timezone))
	}
	return time.UTC
}

// weekStart 返回 date 所在周的周一 00:00；date 为空时取本周
func weekStart(date string, loc *time.Location) (time.Time, error) {
	day := time.Now().In(loc)
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, ErrTimetableInvalidTime
		}
		day = parsed
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -(isoWeekday(day.Weekday()) - 1)), nil
}

// isoWeekday 将 time.Weekday (0=Sunday) 转为 1=Monday … 7=Sunday
func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// buildTimetableICS 每个条目生成一个首周事件，并以 RRULE 按周重复 weeks 次
func buildTimetableICS(entries []dto.TimetableEntryResponse, monday time.Time, weeks int, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//UniLife//Timetable//EN")

	for _, e := range entries {
		start, err1 := parseClock(e.StartTime)
		end, err2 := parseClock(e.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		day := monday.AddDate(0, 0, e.DayOfWeek-1)
		at := func(minutes int) time.Time {
			return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
		}

		evt := cal.AddEvent(uuid.NewSHA1(icsNamespace, []byte(e.ID)).String() + "@unilife")
		evt.SetDtStampTime(now)
		evt.SetStartAt(at(start))
		evt.SetEndAt(at(end))
		evt.SetSummary(entrySummary(e))
		if e.VenueName != "" {
			evt.SetLocation(e.VenueName)
		}
		evt.SetDescription(fmt.Sprintf("%s %s", e.CourseTitle, e.SessionType))
		evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
	}

	return cal.Serialize()
}

func entrySummary(e dto.TimetableEntryResponse) string {
	summary := strings.TrimSpace(e.CourseCode + " " + e.CourseTitle)
	if summary == "" {
		summary = e.CourseID
	}
	if e.SessionType != "" && e.SessionType != model.SessionLecture {
		summary += " (" + e.SessionType + ")"
	}
	return summary
}

// buildTimetableXLSX 生成两个工作表：周视图网格 + 条目明细
func buildTimetableXLSX(entries []dto.TimetableEntryResponse, monday time.Time, weeks int) ([]byte, error) {
	grid := BuildGrid(entries)

	const gridSheet = "课表"
	f, err := newSheetFile(gridSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// 标题行
	lastCol := colName(len(grid.Days))
	f.SetCellValue(gridSheet, "A1", fmt.Sprintf("课表（自 %s 起共 %d 周）", monday.Format("2006-01-02"), weeks))
	f.MergeCell(gridSheet, "A1", lastCol+"1")

	headers := []string{"时间"}
	for _, d := range grid.Days {
		headers = append(headers, d.Name)
	}
	writeHeader(f, gridSheet, 2, headers)

	f.SetColWidth(gridSheet, "A", "A", 10)
	f.SetColWidth(gridSheet, "B", lastCol, 26)
	wrap, _ := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})

	// 每个整点一行；条目覆盖的每一行都写入
	for r, label := range grid.Rows {
		row := r + 3
		f.SetCellValue(gridSheet, cell("A", row), label)
		for c, d := range grid.Days {
			var lines []string
			for _, ge := range d.Entries {
				if r >= ge.RowStart && r < ge.RowStart+ge.RowSpan {
					line := fmt.Sprintf("%s %s-%s", entrySummary(ge.TimetableEntryResponse), ge.StartTime, ge.EndTime)
					if ge.VenueName != "" {
						line += " @" + ge.VenueName
					}
					lines = append(lines, line)
				}
			}
			if len(lines) > 0 {
				ref := cell(colName(c+1), row)
				f.SetCellValue(gridSheet, ref, strings.Join(lines, "\n"))
				f.SetCellStyle(gridSheet, ref, ref, wrap)
			}
		}
	}

	// 明细表
	const listSheet = "明细"
	if _, err := f.NewSheet(listSheet); err != nil {
		return nil, err
	}
	writeHeader(f, listSheet, 1, []string{"课程代码", "课程名称", "星期", "开始", "结束", "地点", "类型"})
	f.SetColWidth(listSheet, "A", "A", 12)
	f.SetColWidth(listSheet, "B", "B", 30)
	f.SetColWidth(listSheet, "F", "F", 20)
	for i, e := range entries {
		row := i + 2
		values := []interface{}{e.CourseCode, e.CourseTitle, weekdayNames[e.DayOfWeek], e.StartTime, e.EndTime, e.VenueName, e.SessionType}
		for c, v := range values {
			f.SetCellValue(listSheet, cell(colName(c), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
