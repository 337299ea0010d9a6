// Package mq RabbitMQ发布/消费封装
//
// 库存变更事件发往topic类型的Exchange，RoutingKey形如storage.created、usage.recorded，
// 事件日志消费者用storage.*、usage.*订阅。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/pkg/metrics"
)

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewPublisher 连接RabbitMQ并声明持久化Exchange
func NewPublisher(url, exchange, exchangeType string, log *zap.Logger) (*Publisher, error) {
	metrics.InitMetrics()
	conn, channel, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.Info("message publisher ready",
		zap.String("exchange", exchange),
		zap.String("type", exchangeType),
	)

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish 序列化为JSON并发布持久化消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, metrics.ResultFailure).Inc()
		return fmt.Errorf("发布消息失败: %w", err)
	}

	metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, metrics.ResultSuccess).Inc()
	p.log.Debug("message published", zap.String("routing_key", routingKey), zap.Int("bytes", len(body)))
	return nil
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// Message 交给Handler的消息
type Message struct {
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler 消息处理函数，返回error时消息重新入队
type Handler func(ctx context.Context, msg Message) error

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *zap.Logger
}

// NewConsumer 声明Exchange和持久化Queue，并按routingKeys绑定
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string, log *zap.Logger) (*Consumer, error) {
	metrics.InitMetrics()
	conn, channel, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(
		queue,
		true,  // Durable
		false, // AutoDelete
		false, // Exclusive
		false, // NoWait
		nil,
	)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败(%s): %w", key, err)
		}
	}

	log.Info("message consumer ready",
		zap.String("queue", q.Name),
		zap.Strings("routing_keys", routingKeys),
	)

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   q.Name,
		log:     log,
	}, nil
}

// Consume 阻塞消费直到ctx取消
// 手动确认：handler成功Ack，失败Nack并重新入队
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	// 一次只取一条，处理完再取下一条
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // Consumer标签自动生成
		false, // AutoAck
		false, // Exclusive
		false, // NoLocal
		false, // NoWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped", zap.String("queue", c.queue))
			return nil

		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			c.dispatch(ctx, d, handler)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, Message{RoutingKey: d.RoutingKey, Body: d.Body, Timestamp: d.Timestamp})
	metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MessagesConsumedTotal.WithLabelValues(c.queue, metrics.ResultFailure).Inc()
		c.log.Warn("message handling failed, requeue",
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err),
		)
		_ = d.Nack(false, true)
		return
	}

	metrics.MessagesConsumedTotal.WithLabelValues(c.queue, metrics.ResultSuccess).Inc()
	_ = d.Ack(false)
}

// Close 关闭Channel和连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

func dial(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,
	)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var firstErr error
	if channel != nil {
		if err := channel.Close(); err != nil && err != amqp.ErrClosed {
			firstErr = err
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && err != amqp.ErrClosed && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
