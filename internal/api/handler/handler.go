package handler

import "shiftdesk/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Employee   *EmployeeHandler
	Shift      *ShiftHandler
	Roster     *RosterHandler
	Attendance *AttendanceHandler
	Dashboard  *DashboardHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Employee:   NewEmployeeHandler(svc.Employee),
		Shift:      NewShiftHandler(svc.Shift),
		Roster:     NewRosterHandler(svc.Roster),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Dashboard:  NewDashboardHandler(svc.Dashboard),
	}
}
