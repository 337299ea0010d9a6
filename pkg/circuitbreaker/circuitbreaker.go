// Package circuitbreaker 熔断器
//
// 库存事件通过RabbitMQ发布，MQ不可用时发布会一直等待连接超时。
// 熔断器在连续失败后直接拒绝发布，过一段时间再放少量请求探测，
// 事件丢失只记日志，不影响库存事务本身。
//
// 状态转换:
//
//	CLOSED --(ReadyToTrip)--> OPEN --(Timeout)--> HALF_OPEN
//	HALF_OPEN --(成功)--> CLOSED
//	HALF_OPEN --(失败)--> OPEN
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	// StateClosed 正常放行，统计失败次数
	StateClosed State = iota
	// StateOpen 熔断，所有请求直接返回ErrOpenState
	StateOpen
	// StateHalfOpen 探测，最多放行MaxRequests个请求
	StateHalfOpen
)

// String 状态转字符串（便于日志）
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许的最大请求数，0按1处理
	MaxRequests uint32

	// Interval 关闭状态的统计窗口，过期后计数清零；0表示不清零
	Interval time.Duration

	// Timeout 打开状态持续时间，过后进入半开
	Timeout time.Duration

	// ReadyToTrip 关闭状态下每次失败后调用，返回true则熔断
	// 为nil时使用ConsecutiveFailures(5)
	ReadyToTrip func(counts Counts) bool
}

// ConsecutiveFailures 连续失败n次熔断
func ConsecutiveFailures(n uint32) func(Counts) bool {
	return func(c Counts) bool {
		return c.ConsecutiveFailures >= n
	}
}

// Counts 统计数据
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRate 失败率
func (c *Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

// Reset 重置统计
func (c *Counts) Reset() {
	*c = Counts{}
}

// Requests已经在beforeRequest中递增
func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// CircuitBreaker 熔断器，并发安全
type CircuitBreaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(counts Counts) bool
	onStateChange func(name string, from State, to State)

	mu         sync.Mutex
	state      State
	generation uint64 // 每次状态切换递增，旧请求的结果不计入新状态
	counts     Counts
	expiry     time.Time
}

// ErrOpenState 熔断器打开
var ErrOpenState = errors.New("circuit breaker is open")

// NewCircuitBreaker 创建熔断器
//
// 示例：
//
//	cb := NewCircuitBreaker("event-publisher", Config{
//	    MaxRequests: 3,
//	    Interval:    60 * time.Second,
//	    Timeout:     30 * time.Second,
//	    ReadyToTrip: ConsecutiveFailures(5),
//	})
func NewCircuitBreaker(name string, config Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:        name,
		maxRequests: config.MaxRequests,
		interval:    config.Interval,
		timeout:     config.Timeout,
		readyToTrip: config.ReadyToTrip,
		state:       StateClosed,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = ConsecutiveFailures(5)
	}
	if cb.interval > 0 {
		cb.expiry = time.Now().Add(cb.interval)
	}
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// SetStateChangeCallback 设置状态变化回调（记录日志、更新指标）
// 回调在持有锁时执行，不能在回调里调用State()/Counts()
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(name string, from State, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute 在熔断器保护下执行req
// 熔断时不调用req，直接返回ErrOpenState
func (cb *CircuitBreaker) Execute(req func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = req()
	cb.afterRequest(generation, err == nil)
	return err
}

// ExecuteContext 同Execute，ctx已取消时不执行也不计数
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, req func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return cb.Execute(func() error {
		return req(ctx)
	})
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, generation := cb.currentState(time.Now())
	switch {
	case state == StateOpen:
		return generation, ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests:
		return generation, ErrOpenState
	}

	cb.counts.Requests++
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, generation := cb.currentState(now)
	if generation != before {
		return
	}

	if success {
		cb.counts.onSuccess()
		if state == StateHalfOpen {
			cb.setState(StateClosed, now)
		}
		return
	}

	cb.counts.onFailure()
	switch state {
	case StateClosed:
		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	}
}

// currentState 处理过期：关闭状态窗口到期清零计数，打开状态超时进入半开
func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.counts.Reset()
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.generation++
	cb.counts.Reset()

	switch state {
	case StateClosed:
		cb.expiry = time.Time{}
		if cb.interval > 0 {
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	case StateHalfOpen:
		cb.expiry = time.Time{}
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, _ := cb.currentState(time.Now())
	return state
}

// Counts 当前统计数据
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}
