package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shiftdesk/backend/internal/api/middleware"
	"shiftdesk/backend/pkg/jwt"
	"shiftdesk/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 从 Gin 上下文中提取完整的 Token Claims（登出时使用）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ContextClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// MustGetUUIDParam 读取并校验路径中的 UUID 参数
func MustGetUUIDParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, 10001, "ID 格式无效")
		return "", false
	}
	return id, true
}
