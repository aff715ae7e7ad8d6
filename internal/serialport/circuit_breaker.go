package serialport

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常写入
	StateOpen                  // 熔断，直接拒绝写入
	StateHalfOpen              // 试探写入
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen 串口写连续失败后熔断
var ErrCircuitOpen = errors.New("serial write circuit is open")

// CircuitBreaker 串口写熔断器。
// 连续 threshold 次写失败进入 Open；timeout 后进入 HalfOpen，
// HalfOpen 下一次成功即恢复 Closed，一次失败重新 Open。
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	threshold     int
	timeout       time.Duration
	openedAt      time.Time
	tripCount     int64
	now           func() time.Time
	onStateChange func(from, to State)
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, timeout: timeout, now: time.Now}
}

// Call 在熔断保护下执行 fn
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.timeout {
			return ErrCircuitOpen
		}
		cb.transitionTo(StateHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.transitionTo(StateClosed)
		}
		return
	}
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		cb.openedAt = cb.now()
		cb.tripCount++
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onStateChange != nil {
		go cb.onStateChange(from, to)
	}
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// SetStateChangeCallback 设置状态变化回调（异步调用）
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Reset 手动恢复
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.transitionTo(StateClosed)
}

// Stats 统计信息
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStats{
		State:     cb.state.String(),
		Failures:  cb.failures,
		TripCount: cb.tripCount,
	}
}

// BreakerStats 熔断器统计信息
type BreakerStats struct {
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	TripCount int64  `json:"trip_count"`
}
