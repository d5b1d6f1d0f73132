package handler

import (
	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/response"
)

// AttendanceHandler 考勤 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 标记签到
// POST /api/v1/manager/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), &req, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckOut 标记签退
// POST /api/v1/manager/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), &req, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// History 员工考勤历史
// GET /api/v1/manager/employees/:id/attendance?start_date=&end_date=
func (h *AttendanceHandler) History(c *gin.Context) {
	employeeID, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AttendanceHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, err := h.attendanceSvc.History(c.Request.Context(), employeeID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}
