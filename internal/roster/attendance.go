package roster

import (
	"math"
	"strings"
	"time"

	"shiftdesk/backend/internal/model"
)

const millisPerHour = 3_600_000

// 手动/补录时间可接受的格式，均按 UTC 解析（RFC 3339 自带时区）
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp 解析调用方提供的时间字符串，统一截断到毫秒精度
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// resolveInstant 未提供时间时使用当前时间
func resolveInstant(requested string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(requested) == "" {
		return now.UTC().Truncate(time.Millisecond), nil
	}
	return ParseTimestamp(requested)
}

// ComputeHours 计算工时：毫秒差 / 3,600,000，再按 ×100 四舍五入（远离零）保留两位小数。
//
// 每次签退都从签到/签退时间重新计算，不做增量累加。
func ComputeHours(checkIn, checkOut time.Time) float64 {
	ms := checkOut.UnixMilli() - checkIn.UnixMilli()
	hours := float64(ms) / millisPerHour
	return math.Round(hours*100) / 100
}

// CheckIn 记录签到。requested 为空时使用 now。
func CheckIn(shift *model.Shift, authz Authorizer, employeeID, requested string, now time.Time) (model.AttendanceRecord, error) {
	if err := Authorize(authz, shift); err != nil {
		return model.AttendanceRecord{}, err
	}
	if !shift.AcceptedEmployees.Contains(employeeID) {
		return model.AttendanceRecord{}, ErrNotAccepted
	}
	if shift.Attendance.OpenIndex(employeeID) >= 0 {
		return model.AttendanceRecord{}, ErrAlreadyCheckedIn
	}
	at, err := resolveInstant(requested, now)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	record := model.AttendanceRecord{
		EmployeeID: employeeID,
		CheckIn:    at,
		TotalHours: 0,
	}
	shift.Attendance = append(shift.Attendance, record)
	return record, nil
}

// CheckOut 记录签退并计算工时。多条未签退记录时以第一条为准。
func CheckOut(shift *model.Shift, authz Authorizer, employeeID, requested string, now time.Time) (model.AttendanceRecord, error) {
	if err := Authorize(authz, shift); err != nil {
		return model.AttendanceRecord{}, err
	}
	idx := shift.Attendance.OpenIndex(employeeID)
	if idx < 0 {
		return model.AttendanceRecord{}, ErrNotCheckedIn
	}
	at, err := resolveInstant(requested, now)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	record := &shift.Attendance[idx]
	if !at.After(record.CheckIn) {
		return model.AttendanceRecord{}, ErrInvalidRange
	}
	record.CheckOut = &at
	record.TotalHours = ComputeHours(record.CheckIn, at)
	return *record, nil
}
