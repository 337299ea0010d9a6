package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/pkg/circuitbreaker"
	"github.com/xiebiao/labinventory/pkg/mq"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Publish(_ context.Context, key string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, key)
	return nil
}

func (f *fakeSender) Close() error { return nil }

func TestPublisher(t *testing.T) {
	cfg := circuitbreaker.Config{Timeout: time.Minute, ReadyToTrip: circuitbreaker.ConsecutiveFailures(2)}

	t.Run("正常发布", func(t *testing.T) {
		sender := &fakeSender{}
		p := NewPublisher(sender, cfg, zap.NewNop())

		require.NoError(t, p.Publish(context.Background(), UsageRecorded, Event{Type: UsageRecorded}))
		assert.Equal(t, []string{UsageRecorded}, sender.sent)
	})

	t.Run("连续失败后熔断", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("connection reset")}
		core, logs := observer.New(zap.WarnLevel)
		p := NewPublisher(sender, cfg, zap.New(core))

		ctx := context.Background()
		assert.Error(t, p.Publish(ctx, StorageCreated, nil))
		assert.Error(t, p.Publish(ctx, StorageCreated, nil))

		sender.err = nil
		err := p.Publish(ctx, StorageCreated, nil)
		assert.Equal(t, circuitbreaker.ErrOpenState, err)
		assert.Empty(t, sender.sent)
		assert.Equal(t, 1, logs.FilterMessage("circuit breaker state changed").Len())
	})
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), StorageDeleted, nil))
}

func TestBreakerConfig(t *testing.T) {
	c := BreakerConfig(config.MQConfig{BreakerMaxRequests: 3, BreakerTimeout: time.Second})
	assert.Nil(t, c.ReadyToTrip)
	assert.EqualValues(t, 3, c.MaxRequests)

	c = BreakerConfig(config.MQConfig{BreakerMaxFailures: 4})
	require.NotNil(t, c.ReadyToTrip)
	assert.False(t, c.ReadyToTrip(circuitbreaker.Counts{ConsecutiveFailures: 3}))
	assert.True(t, c.ReadyToTrip(circuitbreaker.Counts{ConsecutiveFailures: 4}))
}

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handle := LogHandler(zap.New(core))

	t.Run("记录事件", func(t *testing.T) {
		body := []byte(`{"type":"usage.recorded","storage_id":7,"record_id":3,"data":{"amount":"0.1"}}`)
		require.NoError(t, handle(context.Background(), mq.Message{RoutingKey: UsageRecorded, Body: body}))

		entries := logs.FilterMessage("inventory event usage.recorded").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.EqualValues(t, 7, fields["storage_id"])
		assert.EqualValues(t, 3, fields["record_id"])
		assert.Equal(t, `{"amount":"0.1"}`, fields["data"])
	})

	t.Run("格式错误的消息不重新入队", func(t *testing.T) {
		err := handle(context.Background(), mq.Message{RoutingKey: "usage.recorded", Body: []byte("{")})
		assert.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("malformed event dropped").Len())
	})
}
