package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unreachable")

func newTestBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("event-publisher", Config{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: ConsecutiveFailures(3),
	})
}

func fail() error    { return errBroker }
func succeed() error { return nil }

func TestCircuitBreaker(t *testing.T) {
	t.Run("成功请求保持关闭", func(t *testing.T) {
		cb := newTestBreaker(time.Minute)
		for i := 0; i < 10; i++ {
			require.NoError(t, cb.Execute(succeed))
		}
		assert.Equal(t, StateClosed, cb.State())
		assert.EqualValues(t, 10, cb.Counts().TotalSuccesses)
	})

	t.Run("连续失败后熔断且不再调用", func(t *testing.T) {
		cb := newTestBreaker(time.Minute)
		for i := 0; i < 3; i++ {
			assert.Equal(t, errBroker, cb.Execute(fail))
		}
		assert.Equal(t, StateOpen, cb.State())

		called := false
		err := cb.Execute(func() error {
			called = true
			return nil
		})
		assert.Equal(t, ErrOpenState, err)
		assert.False(t, called)
	})

	t.Run("成功会打断连续失败", func(t *testing.T) {
		cb := newTestBreaker(time.Minute)
		_ = cb.Execute(fail)
		_ = cb.Execute(fail)
		_ = cb.Execute(succeed)
		_ = cb.Execute(fail)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("超时后半开探测成功则恢复", func(t *testing.T) {
		cb := newTestBreaker(20 * time.Millisecond)
		for i := 0; i < 3; i++ {
			_ = cb.Execute(fail)
		}
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(succeed))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("半开探测失败重新熔断", func(t *testing.T) {
		cb := newTestBreaker(20 * time.Millisecond)
		for i := 0; i < 3; i++ {
			_ = cb.Execute(fail)
		}
		time.Sleep(30 * time.Millisecond)

		assert.Equal(t, errBroker, cb.Execute(fail))
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("状态变化回调", func(t *testing.T) {
		cb := newTestBreaker(time.Minute)
		var transitions []string
		cb.SetStateChangeCallback(func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		})
		for i := 0; i < 3; i++ {
			_ = cb.Execute(fail)
		}
		assert.Equal(t, []string{"event-publisher:CLOSED->OPEN"}, transitions)
	})

	t.Run("默认配置", func(t *testing.T) {
		cb := NewCircuitBreaker("default", Config{Timeout: time.Minute})
		for i := 0; i < 4; i++ {
			_ = cb.Execute(fail)
		}
		assert.Equal(t, StateClosed, cb.State())
		_ = cb.Execute(fail)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("ctx已取消不计数", func(t *testing.T) {
		cb := newTestBreaker(time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := cb.ExecuteContext(ctx, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, cb.Counts().Requests)
	})
}

func TestCounts_FailureRate(t *testing.T) {
	c := Counts{}
	assert.Zero(t, c.FailureRate())

	c = Counts{Requests: 4, TotalFailures: 1}
	assert.InDelta(t, 0.25, c.FailureRate(), 1e-9)
}

func BenchmarkCircuitBreaker(b *testing.B) {
	cb := newTestBreaker(time.Minute)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(succeed)
	}
}
