// Package notify 消费排班事件并以邮件通知员工。
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/pkg/mq"
)

// RoutingKeys 需要发送邮件的事件类型
var RoutingKeys = []string{mq.EventShiftAssigned, mq.EventShiftRemoved}

// UserLookup 按 ID 查询账号
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]mailTemplate{
	mq.EventShiftAssigned: {
		subject: "排班通知：你已被安排到班次「%s」",
		body: template.Must(template.New("assigned").Parse(
			"{{.Username}}，你好：\n\n" +
				"管理员已将你安排到班次「{{.ShiftTitle}}」，开始时间 {{.ShiftStart}}。\n" +
				"如有疑问请联系排班管理员。\n")),
	},
	mq.EventShiftRemoved: {
		subject: "排班通知：你已被移出班次「%s」",
		body: template.Must(template.New("removed").Parse(
			"{{.Username}}，你好：\n\n" +
				"管理员已将你移出班次「{{.ShiftTitle}}」（开始时间 {{.ShiftStart}}），该班次的考勤记录已一并删除。\n")),
	},
}

// Notifier 事件到邮件的转换
type Notifier struct {
	users  UserLookup
	sender Sender
	logger *zap.Logger
}

// NewNotifier 创建 Notifier
func NewNotifier(users UserLookup, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{users: users, sender: sender, logger: logger}
}

// Handle 实现 mq.Handler。员工已删除或事件类型无需通知时直接确认；
// 永久性发送失败丢弃消息，其余发送失败重新入队。
func (n *Notifier) Handle(ctx context.Context, event mq.Event) (bool, error) {
	tmpl, ok := templates[event.Type]
	if !ok {
		return false, nil
	}

	user, err := n.users.GetByID(ctx, event.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			n.logger.Info("员工不存在，跳过通知",
				zap.String("type", event.Type),
				zap.String("employee_id", event.EmployeeID),
			)
			return false, nil
		}
		return true, fmt.Errorf("查询员工失败: %w", err)
	}

	var body bytes.Buffer
	err = tmpl.body.Execute(&body, map[string]string{
		"Username":   user.Username,
		"ShiftTitle": event.ShiftTitle,
		"ShiftStart": event.ShiftStart.UTC().Format(time.DateTime) + " UTC",
	})
	if err != nil {
		return false, fmt.Errorf("渲染邮件模板失败: %w", err)
	}

	subject := fmt.Sprintf(tmpl.subject, event.ShiftTitle)
	if err := n.sender.Send(ctx, user.Email, subject, body.String()); err != nil {
		return !errors.Is(err, ErrPermanent), err
	}

	n.logger.Info("已发送排班通知",
		zap.String("type", event.Type),
		zap.String("shift_id", event.ShiftID),
		zap.String("employee_id", event.EmployeeID),
	)
	return false, nil
}
