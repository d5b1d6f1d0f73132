package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
	pkgerrors "shiftdesk/backend/pkg/errors"
)

// DefaultMaxConflictRetries 未配置时乐观锁冲突后的重试次数
const DefaultMaxConflictRetries = 3

// errNoChange 由变更函数返回，表示快照无变化、无需提交
var errNoChange = errors.New("no change")

// shiftMutator 班次快照的读-改-写循环。
//
// 每次尝试都重新加载班次并在新快照上重新校验；提交以 version 做比较并交换，
// 冲突时最多再尝试 maxRetries 次。
type shiftMutator struct {
	maxRetries int
	logger     *zap.Logger
}

func newShiftMutator(maxRetries int, logger *zap.Logger) shiftMutator {
	if maxRetries < 0 {
		maxRetries = DefaultMaxConflictRetries
	}
	return shiftMutator{maxRetries: maxRetries, logger: logger}
}

// mutate 加载班次、执行 fn、提交。fn 返回的业务错误原样返回且不提交。
func (m shiftMutator) mutate(
	ctx context.Context,
	repo *repository.Repository,
	shiftID string,
	fn func(shift *model.Shift) error,
) (*model.Shift, error) {
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		shift, err := repo.Shift.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, roster.ErrShiftNotFound
			}
			m.logger.Error("加载班次失败", zap.String("shift_id", shiftID), zap.Error(err))
			return nil, err
		}

		if err := fn(shift); err != nil {
			if errors.Is(err, errNoChange) {
				return shift, nil
			}
			return nil, err
		}

		err = repo.Shift.Update(ctx, shift)
		if err == nil {
			return shift, nil
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			m.logger.Error("提交班次失败", zap.String("shift_id", shiftID), zap.Error(err))
			return nil, err
		}
		m.logger.Debug("班次版本冲突，重新加载",
			zap.String("shift_id", shiftID),
			zap.Int("attempt", attempt+1),
		)
	}

	m.logger.Warn("班次冲突重试次数用尽",
		zap.String("shift_id", shiftID),
		zap.Int("max_retries", m.maxRetries),
	)
	return nil, pkgerrors.ErrConflictRetriesExhausted
}
