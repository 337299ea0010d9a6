package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

type fakeCache struct {
	deleted []string
	err     error
}

func (c *fakeCache) GetJSON(context.Context, string, interface{}) (bool, error) { return false, nil }
func (c *fakeCache) SetJSON(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return c.err
}

type fakePublisher struct {
	keys   []string
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, payload interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, payload.(events.Event))
	return p.err
}

func TestNotifier_Changed(t *testing.T) {
	t.Run("失效缓存并发布事件", func(t *testing.T) {
		cache, pub := &fakeCache{}, &fakePublisher{}
		n := NewNotifier(cache, pub, zap.NewNop())

		n.Changed(context.Background(), events.Event{Type: events.UsageRecorded, StorageID: 7})

		assert.Equal(t, []string{DashboardCacheKey}, cache.deleted)
		require.Equal(t, []string{events.UsageRecorded}, pub.keys)
		assert.False(t, pub.events[0].OccurredAt.IsZero())
	})

	t.Run("请求已取消仍然发布", func(t *testing.T) {
		pub := &fakePublisher{}
		n := NewNotifier(&fakeCache{}, pub, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n.Changed(ctx, events.Event{Type: events.StorageDeleted})

		assert.Equal(t, []string{events.StorageDeleted}, pub.keys)
	})

	t.Run("失败只记日志", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		n := NewNotifier(&fakeCache{err: errors.New("redis down")},
			&fakePublisher{err: errors.New("mq down")}, zap.New(core))

		n.Changed(context.Background(), events.Event{Type: events.StorageCreated})
		assert.Equal(t, 2, logs.Len())
	})
}
