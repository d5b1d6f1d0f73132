package dto

// ── 排班名单 DTO ──

// ShiftActionRequest 员工申请 / 取消班次
type ShiftActionRequest struct {
	ShiftID string `json:"shift_id" binding:"required,uuid"`
}

// RosterChangeRequest 管理员指派 / 移除员工
type RosterChangeRequest struct {
	ShiftID    string `json:"shift_id"    binding:"required,uuid"`
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
}
