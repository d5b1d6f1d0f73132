package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler 处理一条事件；返回 error 且 requeue 为 true 时消息重新入队
type Handler func(ctx context.Context, event Event) (requeue bool, err error)

// Consumer 绑定到 topic exchange 的持久化队列消费者
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewConsumer 声明队列并按 routingKeys 绑定到 exchange
func NewConsumer(url, exchange, queue string, routingKeys []string, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建 RabbitMQ 通道失败: %w", err)
	}

	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	if err := declareExchange(ch, exchange); err != nil {
		cleanup()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // 持久化
		false, // 不自动删除
		false, // 非独占
		false, // 等待确认
		nil,
	)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("声明队列失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			cleanup()
			return nil, fmt.Errorf("绑定队列失败 (%s): %w", key, err)
		}
	}

	// 逐条处理，避免邮件发送阻塞时积压在本地
	if err := ch.Qos(1, 0, false); err != nil {
		cleanup()
		return nil, fmt.Errorf("设置 QoS 失败: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, queue: q.Name, logger: logger}, nil
}

// Run 持续消费直到 ctx 取消或连接断开
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("消费队列失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("RabbitMQ 投递通道已关闭")
			}
			c.dispatch(ctx, msg, handle)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg amqp.Delivery, handle Handler) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		c.logger.Error("丢弃无法解析的消息", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	requeue, err := handle(ctx, event)
	if err != nil {
		c.logger.Error("处理事件失败",
			zap.String("type", event.Type),
			zap.String("shift_id", event.ShiftID),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		_ = msg.Nack(false, requeue)
		return
	}
	_ = msg.Ack(false)
}

// Close 关闭通道与连接
func (c *Consumer) Close() error {
	if err := c.ch.Close(); err != nil {
		c.logger.Warn("关闭 RabbitMQ 通道失败", zap.Error(err))
	}
	return c.conn.Close()
}
