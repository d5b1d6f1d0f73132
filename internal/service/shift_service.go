package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
)

// ShiftService 班次管理业务接口
type ShiftService interface {
	Create(ctx context.Context, req *dto.CreateShiftRequest, managerID string) (*dto.ShiftDetailResponse, error)
	GetByID(ctx context.Context, id, managerID string) (*dto.ShiftDetailResponse, error)
	ListOwn(ctx context.Context, managerID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error)
	ListAvailable(ctx context.Context) ([]dto.ShiftResponse, error)
	ListPublic(ctx context.Context) ([]dto.PublicShiftResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, managerID string) (*dto.ShiftDetailResponse, error)
	Delete(ctx context.Context, id, managerID string) error
	Attendance(ctx context.Context, id, managerID string) (*dto.ShiftAttendanceResponse, error)
}

type shiftService struct {
	repo    *repository.Repository
	mutator shiftMutator
	now     func() time.Time
	logger  *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, maxRetries int, logger *zap.Logger) ShiftService {
	return newShiftService(repo, maxRetries, logger, time.Now)
}

func newShiftService(repo *repository.Repository, maxRetries int, logger *zap.Logger, now func() time.Time) *shiftService {
	return &shiftService{
		repo:    repo,
		mutator: newShiftMutator(maxRetries, logger),
		now:     now,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, managerID string) (*dto.ShiftDetailResponse, error) {
	if req.SlotsAvailable < 1 {
		return nil, roster.ErrInvalidSlots
	}

	shift := &model.Shift{
		Title:          req.Title,
		StartTime:      req.StartTime.UTC().Truncate(time.Millisecond),
		EndTime:        req.EndTime.UTC().Truncate(time.Millisecond),
		OwnerManagerID: managerID,
		SlotsAvailable: req.SlotsAvailable,
		Notes:          req.Notes,
		VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &managerID}}},
	}
	if err := roster.ValidateShift(shift); err != nil {
		return nil, err
	}

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建班次",
		zap.String("shift_id", shift.ShiftID),
		zap.String("manager_id", managerID),
		zap.Int("slots_available", shift.SlotsAvailable),
	)

	resp := dto.NewShiftDetailResponse(shift)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, id, managerID string) (*dto.ShiftDetailResponse, error) {
	shift, err := s.loadOwned(ctx, id, managerID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewShiftDetailResponse(shift)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) ListOwn(ctx context.Context, managerID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error) {
	status := req.Status
	if status == "" {
		status = repository.ShiftStatusAll
	}

	shifts, err := s.repo.Shift.ListByOwner(ctx, managerID, status, s.now())
	if err != nil {
		s.logger.Error("列出班次失败", zap.String("manager_id", managerID), zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts), nil
}

func (s *shiftService) ListAvailable(ctx context.Context) ([]dto.ShiftResponse, error) {
	shifts, err := s.repo.Shift.ListAvailable(ctx, s.now())
	if err != nil {
		s.logger.Error("列出可申请班次失败", zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts), nil
}

// ListPublic 未登录可见的班次列表：与 ListAvailable 同一过滤条件，隐藏名单，附带管理员名称
func (s *shiftService) ListPublic(ctx context.Context) ([]dto.PublicShiftResponse, error) {
	shifts, err := s.repo.Shift.ListAvailable(ctx, s.now())
	if err != nil {
		s.logger.Error("列出公开班次失败", zap.Error(err))
		return nil, err
	}

	names := make(map[string]string)
	out := make([]dto.PublicShiftResponse, 0, len(shifts))
	for i := range shifts {
		shift := &shifts[i]
		name, ok := names[shift.OwnerManagerID]
		if !ok {
			owner, err := s.repo.User.GetByID(ctx, shift.OwnerManagerID)
			switch {
			case err == nil:
				name = owner.Username
			case errors.Is(err, gorm.ErrRecordNotFound):
				// 管理员账号已删除
			default:
				s.logger.Error("查询班次管理员失败", zap.String("manager_id", shift.OwnerManagerID), zap.Error(err))
				return nil, err
			}
			names[shift.OwnerManagerID] = name
		}
		out = append(out, dto.PublicShiftResponse{
			ID:             shift.ShiftID,
			Title:          shift.Title,
			StartTime:      shift.StartTime,
			EndTime:        shift.EndTime,
			SlotsAvailable: shift.SlotsAvailable,
			Notes:          shift.Notes,
			ManagerName:    name,
		})
	}
	return out, nil
}

// ────────────────────── Update ──────────────────────

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, managerID string) (*dto.ShiftDetailResponse, error) {
	authz := roster.OwnerAuthorizer{ManagerID: managerID}

	shift, err := s.mutator.mutate(ctx, s.repo, id, func(shift *model.Shift) error {
		if err := roster.Authorize(authz, shift); err != nil {
			return err
		}
		if req.Title != nil {
			shift.Title = *req.Title
		}
		if req.StartTime != nil {
			shift.StartTime = req.StartTime.UTC().Truncate(time.Millisecond)
		}
		if req.EndTime != nil {
			shift.EndTime = req.EndTime.UTC().Truncate(time.Millisecond)
		}
		if req.SlotsAvailable != nil {
			shift.SlotsAvailable = *req.SlotsAvailable
		}
		if req.Notes != nil {
			shift.Notes = *req.Notes
		}
		shift.UpdatedBy = &managerID
		return roster.ValidateShift(shift)
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewShiftDetailResponse(shift)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftService) Delete(ctx context.Context, id, managerID string) error {
	if _, err := s.loadOwned(ctx, id, managerID); err != nil {
		return err
	}

	if err := s.repo.Shift.Delete(ctx, id, managerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return roster.ErrShiftNotFound
		}
		s.logger.Error("删除班次失败", zap.String("shift_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除班次", zap.String("shift_id", id), zap.String("manager_id", managerID))
	return nil
}

// ────────────────────── Attendance ──────────────────────

func (s *shiftService) Attendance(ctx context.Context, id, managerID string) (*dto.ShiftAttendanceResponse, error) {
	shift, err := s.loadOwned(ctx, id, managerID)
	if err != nil {
		return nil, err
	}

	accepted := []string(shift.AcceptedEmployees)
	if accepted == nil {
		accepted = []string{}
	}
	return &dto.ShiftAttendanceResponse{
		ShiftID:           shift.ShiftID,
		Title:             shift.Title,
		AcceptedEmployees: accepted,
		Attendance:        dto.NewAttendanceRecords(shift.Attendance),
	}, nil
}

// ── 内部辅助方法 ──

func (s *shiftService) loadOwned(ctx context.Context, id, managerID string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roster.ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", id), zap.Error(err))
		return nil, err
	}
	if err := roster.Authorize(roster.OwnerAuthorizer{ManagerID: managerID}, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	out := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		out = append(out, dto.NewShiftResponse(&shifts[i]))
	}
	return out
}
