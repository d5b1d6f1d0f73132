package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"shiftdesk/backend/config"
)

// ErrPermanent 标记重试也不会成功的发送错误（地址无效、服务器 5xx 拒收等）
var ErrPermanent = errors.New("永久性发送失败")

func permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Sender 发送纯文本邮件。无法重试的失败应包装 ErrPermanent。
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender 基于 go-mail 的 SMTP 发送器
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender 创建 SMTP 客户端；连接在每次发送时建立
func NewSMTPSender(cfg *config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建邮件客户端失败: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{client: client, from: from}, nil
}

// Send 实现 Sender
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return permanent(fmt.Errorf("设置发件人失败: %w", err))
	}
	if err := msg.To(to); err != nil {
		return permanent(fmt.Errorf("设置收件人失败: %w", err))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return classifySendError(fmt.Errorf("邮件发送失败: %w", err))
	}
	return nil
}

// classifySendError 只有服务器对信封明确拒收（非 4xx）才视为永久失败，连接类错误一律可重试
func classifySendError(err error) error {
	var sendErr *mail.SendError
	if !errors.As(err, &sendErr) || sendErr.IsTemp() {
		return err
	}
	switch sendErr.Reason {
	case mail.ErrGetSender, mail.ErrGetRcpts, mail.ErrSMTPMailFrom, mail.ErrSMTPRcptTo, mail.ErrNoUnencoded:
		return permanent(err)
	}
	return err
}

// Close 关闭 SMTP 连接
func (s *SMTPSender) Close() error {
	return s.client.Close()
}
