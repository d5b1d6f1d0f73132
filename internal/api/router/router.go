package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/backend/config"
	"shiftdesk/backend/internal/api/handler"
	"shiftdesk/backend/internal/api/middleware"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/pkg/jwt"
	"shiftdesk/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不启用 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil 指针装进非 nil 接口
	var (
		tokens  middleware.TokenChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		tokens = rdb
		limiter = rdb
	}
	rateLimit := middleware.RateLimit(limiter, cfg.Roster.RateLimit, cfg.Roster.RateWindow)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", rateLimit, h.Auth.Register)
			auth.POST("/login", rateLimit, h.Auth.Login)
		}

		// 公开班次列表（无需认证，按 IP 限流）
		v1.GET("/shifts/public", rateLimit, h.Shift.ListPublic)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, tokens))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 员工端：浏览与申请班次
			shifts := authorized.Group("/shifts", middleware.RoleAuth(model.RoleEmployee))
			{
				shifts.GET("/available", h.Shift.ListAvailable)
				shifts.POST("/apply", rateLimit, h.Roster.Apply)
				shifts.POST("/cancel", rateLimit, h.Roster.Cancel)
			}

			// 管理端
			manager := authorized.Group("/manager", middleware.RoleAuth(model.RoleManager))
			{
				manager.GET("/dashboard", h.Dashboard.Get)

				managerShifts := manager.Group("/shifts")
				{
					managerShifts.POST("", h.Shift.Create)
					managerShifts.GET("", h.Shift.List)
					managerShifts.GET("/:id", h.Shift.Get)
					managerShifts.PUT("/:id", h.Shift.Update)
					managerShifts.DELETE("/:id", h.Shift.Delete)
					managerShifts.GET("/:id/attendance", h.Shift.Attendance)
				}

				rosterGroup := manager.Group("/roster", rateLimit)
				{
					rosterGroup.POST("/assign", h.Roster.Assign)
					rosterGroup.POST("/remove", h.Roster.Remove)
				}

				attendance := manager.Group("/attendance", rateLimit)
				{
					attendance.POST("/check-in", h.Attendance.CheckIn)
					attendance.POST("/check-out", h.Attendance.CheckOut)
				}

				employees := manager.Group("/employees")
				{
					employees.GET("", h.Employee.List)
					employees.POST("", h.Employee.Create)
					employees.POST("/import", h.Employee.Import)
					employees.GET("/:id", h.Employee.Get)
					employees.PUT("/:id", h.Employee.Update)
					employees.DELETE("/:id", h.Employee.Delete)
					employees.GET("/:id/attendance", h.Attendance.History)
				}
			}
		}
	}

	return r
}
