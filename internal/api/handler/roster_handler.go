package handler

import (
	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/response"
)

// RosterHandler 排班名单 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// Apply 员工申请班次
// POST /api/v1/shifts/apply
func (h *RosterHandler) Apply(c *gin.Context) {
	var req dto.ShiftActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	employeeID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.Apply(c.Request.Context(), req.ShiftID, employeeID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Cancel 员工取消申请
// POST /api/v1/shifts/cancel
func (h *RosterHandler) Cancel(c *gin.Context) {
	var req dto.ShiftActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	employeeID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.Cancel(c.Request.Context(), req.ShiftID, employeeID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Assign 管理员指派员工
// POST /api/v1/manager/roster/assign
func (h *RosterHandler) Assign(c *gin.Context) {
	var req dto.RosterChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.Assign(c.Request.Context(), req.ShiftID, req.EmployeeID, managerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Remove 管理员移除员工
// POST /api/v1/manager/roster/remove
func (h *RosterHandler) Remove(c *gin.Context) {
	var req dto.RosterChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.Remove(c.Request.Context(), req.ShiftID, req.EmployeeID, managerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
