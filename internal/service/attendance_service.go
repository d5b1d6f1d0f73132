package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
	"shiftdesk/backend/pkg/mq"
)

// ErrInvalidDateRange 历史查询的结束时间早于开始时间
var ErrInvalidDateRange = errors.New("结束日期不能早于开始日期")

// AttendanceService 考勤业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, req *dto.CheckInRequest, managerID string) (*dto.CheckInResponse, error)
	CheckOut(ctx context.Context, req *dto.CheckOutRequest, managerID string) (*dto.CheckOutResponse, error)
	History(ctx context.Context, employeeID string, req *dto.AttendanceHistoryRequest) ([]dto.AttendanceHistoryItem, error)
}

type attendanceService struct {
	repo    *repository.Repository
	mutator shiftMutator
	events  eventPublisher
	now     func() time.Time
	logger  *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, publisher mq.Publisher, maxRetries int, logger *zap.Logger) AttendanceService {
	return newAttendanceService(repo, publisher, maxRetries, logger, time.Now)
}

func newAttendanceService(repo *repository.Repository, publisher mq.Publisher, maxRetries int, logger *zap.Logger, now func() time.Time) *attendanceService {
	return &attendanceService{
		repo:    repo,
		mutator: newShiftMutator(maxRetries, logger),
		events:  newEventPublisher(publisher, logger),
		now:     now,
		logger:  logger,
	}
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, req *dto.CheckInRequest, managerID string) (*dto.CheckInResponse, error) {
	authz := roster.OwnerAuthorizer{ManagerID: managerID}
	now := s.now()

	var record model.AttendanceRecord
	shift, err := s.mutator.mutate(ctx, s.repo, req.ShiftID, func(shift *model.Shift) error {
		rec, err := roster.CheckIn(shift, authz, req.EmployeeID, req.CheckInTime, now)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("员工签到",
		zap.String("shift_id", req.ShiftID),
		zap.String("employee_id", req.EmployeeID),
		zap.Time("check_in", record.CheckIn),
	)
	s.events.publish(ctx, mq.EventAttendanceCheckedIn, shift, req.EmployeeID, managerID, &record)

	return &dto.CheckInResponse{CheckInTime: record.CheckIn}, nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, req *dto.CheckOutRequest, managerID string) (*dto.CheckOutResponse, error) {
	authz := roster.OwnerAuthorizer{ManagerID: managerID}
	now := s.now()

	var record model.AttendanceRecord
	shift, err := s.mutator.mutate(ctx, s.repo, req.ShiftID, func(shift *model.Shift) error {
		rec, err := roster.CheckOut(shift, authz, req.EmployeeID, req.CheckOutTime, now)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("员工签退",
		zap.String("shift_id", req.ShiftID),
		zap.String("employee_id", req.EmployeeID),
		zap.Float64("total_hours", record.TotalHours),
	)
	s.events.publish(ctx, mq.EventAttendanceCheckedOut, shift, req.EmployeeID, managerID, &record)

	return &dto.CheckOutResponse{
		CheckOutTime: *record.CheckOut,
		TotalHours:   record.TotalHours,
	}, nil
}

// ────────────────────── History ──────────────────────

func (s *attendanceService) History(ctx context.Context, employeeID string, req *dto.AttendanceHistoryRequest) ([]dto.AttendanceHistoryItem, error) {
	if _, err := s.repo.User.GetByID(ctx, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roster.ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	dr, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListAttendanceHistory(ctx, employeeID, dr.From, dr.To)
	if err != nil {
		s.logger.Error("查询考勤历史失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	entries := roster.History(shifts, employeeID, dr)
	items := make([]dto.AttendanceHistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AttendanceHistoryItem{
			ShiftID:    e.ShiftID,
			ShiftTitle: e.ShiftTitle,
			ShiftDate:  e.ShiftDate,
			CheckIn:    e.CheckIn,
			CheckOut:   e.CheckOut,
			TotalHours: e.TotalHours,
		})
	}
	return items, nil
}

// parseDateRange 解析历史查询区间。只给日期的结束时间扩展到当天最后一毫秒。
func parseDateRange(start, end string) (roster.DateRange, error) {
	var dr roster.DateRange
	if strings.TrimSpace(start) != "" {
		from, err := roster.ParseTimestamp(start)
		if err != nil {
			return dr, err
		}
		dr.From = &from
	}
	if strings.TrimSpace(end) != "" {
		to, err := roster.ParseTimestamp(end)
		if err != nil {
			return dr, err
		}
		if isDateOnly(end) {
			to = to.Add(24*time.Hour - time.Millisecond)
		}
		dr.To = &to
	}
	if dr.From != nil && dr.To != nil && dr.To.Before(*dr.From) {
		return dr, ErrInvalidDateRange
	}
	return dr, nil
}

func isDateOnly(raw string) bool {
	_, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	return err == nil
}
