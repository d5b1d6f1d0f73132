package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher 未配置 RabbitMQ 时使用，丢弃所有事件
type NopPublisher struct{}

// Publish 实现 Publisher
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close 实现 Publisher
func (NopPublisher) Close() error { return nil }

// AMQPPublisher 基于 topic exchange 的发布者
//
// amqp091 的 Channel 不是并发安全的，发布时需要持锁。
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher 连接 RabbitMQ 并声明持久化 topic exchange
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建 RabbitMQ 通道失败: %w", err)
	}

	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ 连接成功", zap.String("exchange", exchange))

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // 持久化
		false, // 不自动删除
		false, // 非内部
		false, // 等待确认
		nil,
	); err != nil {
		return fmt.Errorf("声明 exchange 失败: %w", err)
	}
	return nil
}

// Publish 发布事件，routing key 为事件类型
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         event.Type,
			Body:         body,
		},
	)
}

// Close 关闭通道与连接
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.logger.Warn("关闭 RabbitMQ 通道失败", zap.Error(err))
	}
	return p.conn.Close()
}
