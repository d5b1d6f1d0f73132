package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
	"shiftdesk/backend/pkg/mq"
)

// RosterService 排班名单业务接口
type RosterService interface {
	Apply(ctx context.Context, shiftID, employeeID string) error
	Cancel(ctx context.Context, shiftID, employeeID string) error
	Assign(ctx context.Context, shiftID, employeeID, managerID string) error
	Remove(ctx context.Context, shiftID, employeeID, managerID string) error
}

type rosterService struct {
	repo    *repository.Repository
	mutator shiftMutator
	events  eventPublisher
	logger  *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, publisher mq.Publisher, maxRetries int, logger *zap.Logger) RosterService {
	return &rosterService{
		repo:    repo,
		mutator: newShiftMutator(maxRetries, logger),
		events:  newEventPublisher(publisher, logger),
		logger:  logger,
	}
}

// ────────────────────── Apply ──────────────────────

func (s *rosterService) Apply(ctx context.Context, shiftID, employeeID string) error {
	shift, err := s.mutator.mutate(ctx, s.repo, shiftID, func(shift *model.Shift) error {
		return roster.Apply(shift, employeeID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("员工申请班次",
		zap.String("shift_id", shiftID),
		zap.String("employee_id", employeeID),
		zap.Int("slots_available", shift.SlotsAvailable),
	)
	s.events.publish(ctx, mq.EventShiftApplied, shift, employeeID, employeeID, nil)
	return nil
}

// ────────────────────── Cancel ──────────────────────

func (s *rosterService) Cancel(ctx context.Context, shiftID, employeeID string) error {
	shift, err := s.mutator.mutate(ctx, s.repo, shiftID, func(shift *model.Shift) error {
		return roster.Cancel(shift, employeeID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("员工取消班次申请",
		zap.String("shift_id", shiftID),
		zap.String("employee_id", employeeID),
	)
	s.events.publish(ctx, mq.EventShiftCancelled, shift, employeeID, employeeID, nil)
	return nil
}

// ────────────────────── Assign ──────────────────────

func (s *rosterService) Assign(ctx context.Context, shiftID, employeeID, managerID string) error {
	authz := roster.OwnerAuthorizer{ManagerID: managerID}

	var employee *model.User
	shift, err := s.mutator.mutate(ctx, s.repo, shiftID, func(shift *model.Shift) error {
		if err := roster.Authorize(authz, shift); err != nil {
			return err
		}
		if employee == nil {
			u, err := s.loadEmployee(ctx, employeeID)
			if err != nil {
				return err
			}
			employee = u
		}
		return roster.Assign(shift, authz, employee)
	})
	if err != nil {
		return err
	}

	s.logger.Info("管理员指派员工",
		zap.String("shift_id", shiftID),
		zap.String("employee_id", employeeID),
		zap.String("manager_id", managerID),
	)
	s.events.publish(ctx, mq.EventShiftAssigned, shift, employeeID, managerID, nil)
	return nil
}

// ────────────────────── Remove ──────────────────────

func (s *rosterService) Remove(ctx context.Context, shiftID, employeeID, managerID string) error {
	authz := roster.OwnerAuthorizer{ManagerID: managerID}

	changed := false
	shift, err := s.mutator.mutate(ctx, s.repo, shiftID, func(shift *model.Shift) error {
		ok, err := roster.Remove(shift, authz, employeeID)
		if err != nil {
			return err
		}
		changed = ok
		if !ok {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.logger.Info("管理员移除员工",
		zap.String("shift_id", shiftID),
		zap.String("employee_id", employeeID),
		zap.String("manager_id", managerID),
	)
	s.events.publish(ctx, mq.EventShiftRemoved, shift, employeeID, managerID, nil)
	return nil
}

// ── 内部辅助方法 ──

func (s *rosterService) loadEmployee(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roster.ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}
