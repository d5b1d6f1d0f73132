package handler

import (
	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/response"
)

// DashboardHandler 管理员看板 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Get 管理员看板
// GET /api/v1/manager/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.dashboardSvc.Get(c.Request.Context(), managerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
