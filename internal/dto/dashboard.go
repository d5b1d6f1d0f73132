package dto

import "time"

// ── 管理员看板 DTO ──

// DashboardResponse 管理员看板
type DashboardResponse struct {
	Stats           DashboardStats      `json:"stats"`
	Capacity        DashboardCapacity   `json:"capacity"`
	AttendanceToday DashboardAttendance `json:"attendance_today"`
	RecentShifts    []ShiftResponse     `json:"recent_shifts"`
}

// DashboardStats 账号与班次计数；班次只统计当前管理员名下的
type DashboardStats struct {
	TotalEmployees int64      `json:"total_employees"`
	TotalManagers  int64      `json:"total_managers"`
	TotalShifts    int        `json:"total_shifts"`
	UpcomingCount  int        `json:"upcoming_count"`
	NextShift      *NextShift `json:"next_shift"`
}

// NextShift 最近一个班次，label 为 today / tomorrow / YYYY-MM-DD
type NextShift struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	Label     string    `json:"label"`
}

// DashboardCapacity 名额填充情况
type DashboardCapacity struct {
	TotalSlots         int `json:"total_slots"`
	FilledSlots        int `json:"filled_slots"`
	FillRate           int `json:"fill_rate"`
	UnderstaffedShifts int `json:"understaffed_shifts"`
}

// DashboardAttendance 当天（UTC）班次的出勤情况
type DashboardAttendance struct {
	Expected int `json:"expected"`
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Rate     int `json:"rate"`
}
