package service

import (
	"sort"

	"unilife/backend/internal/dto"
)

// 网格为空时的默认展示范围
const (
	defaultGridStartHour = 8
	defaultGridEndHour   = 18
)

var weekdayNames = map[int]string{
	1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五", 6: "周六", 7: "周日",
}

// BuildGrid 将课表条目排布为周视图。
//
// 行按整点划分，范围为最早开始的整点到最晚结束向上取整的整点；
// 同一天内按开始时间排序，依次放入第一个空闲的泳道（泳道末尾 <= 本条开始即为空闲），
// 因此互相重叠的条目一定落在不同泳道。周一至周五总是输出，周末仅在有课时输出。
func BuildGrid(entries []dto.TimetableEntryResponse) *dto.GridResponse {
	type span struct {
		entry      dto.TimetableEntryResponse
		start, end int
	}

	byDay := make(map[int][]span)
	minStart, maxEnd := -1, -1
	for _, e := range entries {
		start, err1 := parseClock(e.StartTime)
		end, err2 := parseClock(e.EndTime)
		if err1 != nil || err2 != nil || end <= start || e.DayOfWeek < 1 || e.DayOfWeek > 7 {
			continue
		}
		byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], span{entry: e, start: start, end: end})
		if minStart < 0 || start < minStart {
			minStart = start
		}
		if end > maxEnd {
			maxEnd = end
		}
	}

	grid := &dto.GridResponse{StartHour: defaultGridStartHour, EndHour: defaultGridEndHour}
	if minStart >= 0 {
		grid.StartHour = minStart / 60
		grid.EndHour = (maxEnd + 59) / 60
	}
	for h := grid.StartHour; h < grid.EndHour; h++ {
		grid.Rows = append(grid.Rows, formatClock(h*60))
	}

	for day := 1; day <= 7; day++ {
		spans := byDay[day]
		if day > 5 && len(spans) == 0 {
			continue
		}

		sort.SliceStable(spans, func(i, j int) bool {
			if spans[i].start != spans[j].start {
				return spans[i].start < spans[j].start
			}
			return spans[i].end < spans[j].end
		})

		gd := dto.GridDay{DayOfWeek: day, Name: weekdayNames[day], Entries: make([]dto.GridEntry, 0, len(spans))}
		var laneEnds []int
		for _, sp := range spans {
			lane := -1
			for i, laneEnd := range laneEnds {
				if laneEnd <= sp.start {
					lane = i
					break
				}
			}
			if lane < 0 {
				lane = len(laneEnds)
				laneEnds = append(laneEnds, 0)
			}
			laneEnds[lane] = sp.end

			startRow := sp.start/60 - grid.StartHour
			gd.Entries = append(gd.Entries, dto.GridEntry{
				TimetableEntryResponse: sp.entry,
				RowStart:               startRow,
				RowSpan:                (sp.end+59)/60 - sp.start/60,
				Lane:                   lane,
			})
		}

		gd.LaneCount = len(laneEnds)
		if gd.LaneCount == 0 {
			gd.LaneCount = 1
		}
		gd.Clashes = len(laneEnds) > 1
		if gd.Clashes {
			grid.Clashes = true
		}
		grid.Days = append(grid.Days, gd)
	}

	return grid
}
