package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/pkg/mq"
)

const publishTimeout = 5 * time.Second

// eventPublisher 提交成功后发布事件；发布失败只记录日志，不影响业务结果
type eventPublisher struct {
	publisher mq.Publisher
	logger    *zap.Logger
}

func newEventPublisher(p mq.Publisher, logger *zap.Logger) eventPublisher {
	if p == nil {
		p = mq.NopPublisher{}
	}
	return eventPublisher{publisher: p, logger: logger}
}

func (e eventPublisher) publish(ctx context.Context, eventType string, shift *model.Shift, employeeID, actorID string, rec *model.AttendanceRecord) {
	event := mq.Event{
		Type:       eventType,
		ShiftID:    shift.ShiftID,
		ShiftTitle: shift.Title,
		ShiftStart: shift.StartTime,
		EmployeeID: employeeID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	if rec != nil {
		in := rec.CheckIn
		event.CheckIn = &in
		event.CheckOut = rec.CheckOut
		event.TotalHours = rec.TotalHours
	}

	// 请求上下文可能已结束，发布使用独立超时
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := e.publisher.Publish(pubCtx, event); err != nil {
		e.logger.Warn("发布事件失败",
			zap.String("type", eventType),
			zap.String("shift_id", shift.ShiftID),
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
	}
}
