// Package notify 库存变更后的通知：失效仪表盘缓存、发布库存事件
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// DashboardCacheKey 仪表盘缓存Key
const DashboardCacheKey = "inventory:dashboard"

// publishTimeout 单次事件发布的超时
const publishTimeout = 3 * time.Second

// Cache 读缓存（redis.JSONCache实现）
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher 事件发布（events.Publisher实现）
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// Notifier 变更通知
// 设计说明：
// 1. 在领域服务的事务提交之后调用，通知失败只记warn日志，不影响请求结果
// 2. 发布使用脱离请求取消的ctx，客户端断开后事件仍然发出
type Notifier struct {
	cache  Cache
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewNotifier 创建通知器
func NewNotifier(cache Cache, publisher EventPublisher, log *zap.Logger) *Notifier {
	return &Notifier{cache: cache, events: publisher, log: log, now: time.Now}
}

// Changed 库存发生变更
func (n *Notifier) Changed(ctx context.Context, ev events.Event) {
	if err := n.cache.Delete(ctx, DashboardCacheKey); err != nil {
		n.log.Warn("invalidate dashboard cache failed", zap.Error(err))
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = n.now()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.events.Publish(pubCtx, ev.Type, ev); err != nil {
		n.log.Warn("publish inventory event failed",
			zap.String("type", ev.Type),
			zap.Uint("storage_id", ev.StorageID),
			zap.Error(err),
		)
	}
}
