package dto

import "time"

// ── 考勤 DTO ──

// CheckInRequest 签到请求；check_in_time 为空时使用服务器当前时间
type CheckInRequest struct {
	ShiftID     string `json:"shift_id"      binding:"required,uuid"`
	EmployeeID  string `json:"employee_id"   binding:"required,uuid"`
	CheckInTime string `json:"check_in_time"`
}

// CheckOutRequest 签退请求；check_out_time 为空时使用服务器当前时间
type CheckOutRequest struct {
	ShiftID      string `json:"shift_id"       binding:"required,uuid"`
	EmployeeID   string `json:"employee_id"    binding:"required,uuid"`
	CheckOutTime string `json:"check_out_time"`
}

// CheckInResponse 签到结果
type CheckInResponse struct {
	CheckInTime time.Time `json:"check_in_time"`
}

// CheckOutResponse 签退结果
type CheckOutResponse struct {
	CheckOutTime time.Time `json:"check_out_time"`
	TotalHours   float64   `json:"total_hours"`
}

// AttendanceHistoryRequest 考勤历史查询参数（按班次开始时间过滤，闭区间）
type AttendanceHistoryRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// AttendanceHistoryItem 考勤历史条目
type AttendanceHistoryItem struct {
	ShiftID    string     `json:"shift_id"`
	ShiftTitle string     `json:"shift_title"`
	ShiftDate  time.Time  `json:"shift_date"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
	TotalHours float64    `json:"total_hours"`
}
