package dto

import (
	"time"

	"shiftdesk/backend/internal/model"
)

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	Title          string    `json:"title"           binding:"required,min=3,max=60"`
	StartTime      time.Time `json:"start_time"      binding:"required"`
	EndTime        time.Time `json:"end_time"        binding:"required"`
	SlotsAvailable int       `json:"slots_available" binding:"required,min=1"`
	Notes          string    `json:"notes"           binding:"omitempty,max=300"`
}

// UpdateShiftRequest 更新班次请求，字段为 nil 表示不修改
type UpdateShiftRequest struct {
	Title          *string    `json:"title"           binding:"omitempty,min=3,max=60"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	SlotsAvailable *int       `json:"slots_available" binding:"omitempty,min=0"`
	Notes          *string    `json:"notes"           binding:"omitempty,max=300"`
}

// ShiftListRequest 管理员班次列表查询参数
type ShiftListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=upcoming past all"`
}

// ShiftResponse 班次概要
type ShiftResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	SlotsAvailable    int       `json:"slots_available"`
	AcceptedEmployees []string  `json:"accepted_employees"`
	Notes             string    `json:"notes,omitempty"`
	OwnerManagerID    string    `json:"owner_manager_id"`
	Version           int       `json:"version"`
}

// ShiftDetailResponse 班次详情（含考勤）
type ShiftDetailResponse struct {
	ShiftResponse
	Attendance []AttendanceRecordResponse `json:"attendance"`
}

// AttendanceRecordResponse 考勤记录
type AttendanceRecordResponse struct {
	EmployeeID string     `json:"employee_id"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
	TotalHours float64    `json:"total_hours"`
}

// ShiftAttendanceResponse 班次考勤视图
type ShiftAttendanceResponse struct {
	ShiftID           string                     `json:"shift_id"`
	Title             string                     `json:"title"`
	AcceptedEmployees []string                   `json:"accepted_employees"`
	Attendance        []AttendanceRecordResponse `json:"attendance"`
}

// NewShiftResponse 模型转换为概要响应
func NewShiftResponse(s *model.Shift) ShiftResponse {
	accepted := []string(s.AcceptedEmployees)
	if accepted == nil {
		accepted = []string{}
	}
	return ShiftResponse{
		ID:                s.ShiftID,
		Title:             s.Title,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		SlotsAvailable:    s.SlotsAvailable,
		AcceptedEmployees: accepted,
		Notes:             s.Notes,
		OwnerManagerID:    s.OwnerManagerID,
		Version:           s.Version,
	}
}

// NewShiftDetailResponse 模型转换为详情响应
func NewShiftDetailResponse(s *model.Shift) ShiftDetailResponse {
	return ShiftDetailResponse{
		ShiftResponse: NewShiftResponse(s),
		Attendance:    NewAttendanceRecords(s.Attendance),
	}
}

// NewAttendanceRecords 考勤台账转换
func NewAttendanceRecords(ledger model.AttendanceLedger) []AttendanceRecordResponse {
	out := make([]AttendanceRecordResponse, 0, len(ledger))
	for _, r := range ledger {
		rec := AttendanceRecordResponse{
			EmployeeID: r.EmployeeID,
			CheckIn:    r.CheckIn,
			TotalHours: r.TotalHours,
		}
		if !r.IsOpen() {
			rec.CheckOut = r.CheckOut
		}
		out = append(out, rec)
	}
	return out
}

// PublicShiftResponse 公开班次列表项，不含名单
type PublicShiftResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	SlotsAvailable int       `json:"slots_available"`
	Notes          string    `json:"notes,omitempty"`
	ManagerName    string    `json:"manager_name"`
}
