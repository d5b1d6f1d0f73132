package service

import (
	"go.uber.org/zap"

	"shiftdesk/backend/config"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/pkg/jwt"
	"shiftdesk/backend/pkg/mq"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Employee   EmployeeService
	Shift      ShiftService
	Roster     RosterService
	Attendance AttendanceService
	Dashboard  DashboardService
}

// NewService 创建 Service 聚合
//
// blacklist 与 publisher 均可为 nil：分别表示不启用 Token 黑名单和不发布事件。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	publisher mq.Publisher,
	logger *zap.Logger,
) *Service {
	retries := cfg.Roster.MaxConflictRetries

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Employee:   NewEmployeeService(repo, retries, logger),
		Shift:      NewShiftService(repo, retries, logger),
		Roster:     NewRosterService(repo, publisher, retries, logger),
		Attendance: NewAttendanceService(repo, publisher, retries, logger),
		Dashboard:  NewDashboardService(repo, logger),
	}
}
