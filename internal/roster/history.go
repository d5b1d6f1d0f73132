package roster

import (
	"sort"
	"time"

	"shiftdesk/backend/internal/model"
)

// HistoryEntry 员工考勤历史中的一项（每个班次一项）
type HistoryEntry struct {
	ShiftID    string
	ShiftTitle string
	ShiftDate  time.Time
	CheckIn    time.Time
	CheckOut   *time.Time
	TotalHours float64
}

// DateRange 按班次开始时间过滤的闭区间，任一端为 nil 表示不限
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains 判断时间是否落在区间内
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// HasAttendance 员工在该班次名单中且至少有一条考勤记录
func HasAttendance(shift *model.Shift, employeeID string) bool {
	if !shift.AcceptedEmployees.Contains(employeeID) {
		return false
	}
	_, ok := shift.Attendance.FirstFor(employeeID)
	return ok
}

// History 汇总员工考勤历史：取每个班次中该员工的第一条记录，按班次开始时间倒序。
func History(shifts []model.Shift, employeeID string, dr DateRange) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(shifts))
	for i := range shifts {
		s := &shifts[i]
		if !dr.Contains(s.StartTime) || !HasAttendance(s, employeeID) {
			continue
		}
		rec, _ := s.Attendance.FirstFor(employeeID)
		entry := HistoryEntry{
			ShiftID:    s.ShiftID,
			ShiftTitle: s.Title,
			ShiftDate:  s.StartTime,
			CheckIn:    rec.CheckIn,
			TotalHours: rec.TotalHours,
		}
		// 旧数据中 check_out == check_in 的记录同样按未签退输出
		if !rec.IsOpen() {
			entry.CheckOut = rec.CheckOut
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ShiftDate.After(entries[j].ShiftDate)
	})
	return entries
}
