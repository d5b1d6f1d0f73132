package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/response"
)

// 导入文件大小上限
const maxImportFileSize = 5 << 20

// EmployeeHandler 员工账号管理 HTTP 处理器
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// List 账号列表
// GET /api/v1/manager/employees?role=
func (h *EmployeeHandler) List(c *gin.Context) {
	var req dto.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, err := h.employeeSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// Create 创建账号
// POST /api/v1/manager/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.employeeSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, user)
}

// Get 账号详情
// GET /api/v1/manager/employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.employeeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, user)
}

// Update 更新账号
// PUT /api/v1/manager/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.employeeSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, user)
}

// Delete 删除账号（同时移出所有班次名单）
// DELETE /api/v1/manager/employees/:id
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.employeeSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Import 从 Excel 批量导入账号
// POST /api/v1/manager/employees/import (multipart/form-data, field="file")
func (h *EmployeeHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12000, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.BadRequest(c, 12000, "仅支持 .xlsx 格式")
		return
	}
	if header.Size > maxImportFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "导入文件过大")
		return
	}

	rows, err := h.employeeSvc.ParseImportFile(file)
	if err != nil {
		handleImportParseError(c, err)
		return
	}

	result, err := h.employeeSvc.ImportEmployees(c.Request.Context(), rows, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleImportParseError 已知的导入错误按映射返回，其余解析失败视为文件格式错误
func handleImportParseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader):
		handleServiceError(c, err)
	default:
		response.ErrorWithDetails(c, http.StatusBadRequest, 12000, "无法解析 Excel 文件", err.Error())
	}
}
