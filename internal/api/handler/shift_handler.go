package handler

import (
	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// Create 创建班次
// POST /api/v1/manager/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), &req, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, shift)
}

// List 当前管理员的班次列表
// GET /api/v1/manager/shifts?status=upcoming|past|all
func (h *ShiftHandler) List(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shifts, err := h.shiftSvc.ListOwn(c.Request.Context(), managerID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// ListAvailable 员工可申请的班次
// GET /api/v1/shifts/available
func (h *ShiftHandler) ListAvailable(c *gin.Context) {
	shifts, err := h.shiftSvc.ListAvailable(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// ListPublic 公开班次列表，无需登录
// GET /api/v1/shifts/public
func (h *ShiftHandler) ListPublic(c *gin.Context) {
	shifts, err := h.shiftSvc.ListPublic(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// Get 班次详情
// GET /api/v1/manager/shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), id, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, shift)
}

// Update 更新班次
// PUT /api/v1/manager/shifts/:id
func (h *ShiftHandler) Update(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), id, &req, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, shift)
}

// Delete 删除班次
// DELETE /api/v1/manager/shifts/:id
func (h *ShiftHandler) Delete(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), id, managerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Attendance 班次考勤视图
// GET /api/v1/manager/shifts/:id/attendance
func (h *ShiftHandler) Attendance(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Attendance(c.Request.Context(), id, managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
