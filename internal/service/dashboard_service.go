package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
)

const recentShiftLimit = 6

// DashboardService 管理员看板业务接口
type DashboardService interface {
	Get(ctx context.Context, managerID string) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return newDashboardService(repo, logger, time.Now)
}

func newDashboardService(repo *repository.Repository, logger *zap.Logger, now func() time.Time) *dashboardService {
	return &dashboardService{repo: repo, now: now, logger: logger}
}

func (s *dashboardService) Get(ctx context.Context, managerID string) (*dto.DashboardResponse, error) {
	employees, err := s.repo.User.CountByRole(ctx, model.RoleEmployee)
	if err != nil {
		s.logger.Error("统计员工数失败", zap.Error(err))
		return nil, err
	}
	managers, err := s.repo.User.CountByRole(ctx, model.RoleManager)
	if err != nil {
		s.logger.Error("统计管理员数失败", zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	// 按开始时间升序
	shifts, err := s.repo.Shift.ListByOwner(ctx, managerID, repository.ShiftStatusAll, now)
	if err != nil {
		s.logger.Error("列出班次失败", zap.String("manager_id", managerID), zap.Error(err))
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	resp := &dto.DashboardResponse{
		Stats: dto.DashboardStats{
			TotalEmployees: employees,
			TotalManagers:  managers,
			TotalShifts:    len(shifts),
		},
	}

	for i := range shifts {
		shift := &shifts[i]

		resp.Capacity.TotalSlots += roster.Capacity(shift)
		resp.Capacity.FilledSlots += len(shift.AcceptedEmployees)
		if shift.SlotsAvailable > 0 {
			resp.Capacity.UnderstaffedShifts++
		}

		if shift.StartTime.Before(today) {
			continue
		}
		resp.Stats.UpcomingCount++
		if resp.Stats.NextShift == nil {
			resp.Stats.NextShift = &dto.NextShift{
				ID:        shift.ShiftID,
				Title:     shift.Title,
				StartTime: shift.StartTime,
				Label:     dayLabel(shift.StartTime, today),
			}
		}

		if shift.StartTime.Before(tomorrow) {
			resp.AttendanceToday.Expected += len(shift.AcceptedEmployees)
			for _, id := range shift.AcceptedEmployees {
				if roster.HasAttendance(shift, id) {
					resp.AttendanceToday.Present++
				}
			}
		}
	}

	resp.Capacity.FillRate = percent(resp.Capacity.FilledSlots, resp.Capacity.TotalSlots)
	resp.AttendanceToday.Absent = max(0, resp.AttendanceToday.Expected-resp.AttendanceToday.Present)
	resp.AttendanceToday.Rate = percent(resp.AttendanceToday.Present, resp.AttendanceToday.Expected)
	resp.RecentShifts = recentShifts(shifts)

	return resp, nil
}

// ── 内部辅助方法 ──

func dayLabel(start, today time.Time) string {
	switch {
	case start.Before(today.AddDate(0, 0, 1)):
		return "today"
	case start.Before(today.AddDate(0, 0, 2)):
		return "tomorrow"
	default:
		return start.Format(time.DateOnly)
	}
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

// recentShifts 按创建时间倒序取最近的若干班次
func recentShifts(shifts []model.Shift) []dto.ShiftResponse {
	sorted := make([]model.Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > recentShiftLimit {
		sorted = sorted[:recentShiftLimit]
	}
	return toShiftResponses(sorted)
}
