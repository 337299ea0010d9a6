// Package events 库存事件发布
//
// 发布经过熔断器：RabbitMQ不可用时快速失败，调用方只记日志，不影响已经提交的库存变更。
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/pkg/circuitbreaker"
	"github.com/xiebiao/labinventory/pkg/metrics"
	"github.com/xiebiao/labinventory/pkg/mq"
)

// Sender 底层消息发送（mq.Publisher实现）
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Close() error
}

// Publisher 带熔断的事件发布者
type Publisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	log     *zap.Logger
}

// NewPublisher 包装sender
func NewPublisher(sender Sender, cfg circuitbreaker.Config, log *zap.Logger) *Publisher {
	metrics.InitMetrics()

	breaker := circuitbreaker.NewCircuitBreaker("event-publisher", cfg)
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		log.Warn("circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	metrics.CircuitBreakerState.WithLabelValues(breaker.Name()).Set(float64(circuitbreaker.StateClosed))

	return &Publisher{sender: sender, breaker: breaker, log: log}
}

// Publish 发布事件，熔断打开时返回circuitbreaker.ErrOpenState
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return p.sender.Publish(ctx, routingKey, payload)
	})

	result := metrics.ResultSuccess
	switch {
	case err == circuitbreaker.ErrOpenState:
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultFailure
	}
	metrics.CircuitBreakerRequests.WithLabelValues(p.breaker.Name(), result).Inc()
	return err
}

// Close 关闭底层连接
func (p *Publisher) Close() error {
	return p.sender.Close()
}

// NoopPublisher mq.enabled=false时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close 无操作
func (NoopPublisher) Close() error { return nil }

// EventPublisher Publisher和NoopPublisher的共同接口
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// New 按配置创建发布者
// MQ未启用返回NoopPublisher；连接失败返回错误，由调用方决定是否降级
func New(cfg *config.Config, log *zap.Logger) (EventPublisher, error) {
	if !cfg.MQ.Enabled {
		log.Info("event publishing disabled")
		return NoopPublisher{}, nil
	}

	sender, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, err
	}

	return NewPublisher(sender, BreakerConfig(cfg.MQ), log), nil
}

// BreakerConfig 从MQ配置构造熔断参数
// BreakerMaxFailures为0时使用熔断器默认值
func BreakerConfig(c config.MQConfig) circuitbreaker.Config {
	cfg := circuitbreaker.Config{
		MaxRequests: c.BreakerMaxRequests,
		Interval:    c.BreakerInterval,
		Timeout:     c.BreakerTimeout,
	}
	if c.BreakerMaxFailures > 0 {
		cfg.ReadyToTrip = circuitbreaker.ConsecutiveFailures(c.BreakerMaxFailures)
	}
	return cfg
}

