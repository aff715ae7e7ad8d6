package health

import (
	"context"
	"time"

	"github.com/taoyao-code/dfplayer/internal/serialport"
)

// SerialChecker 串口健康检查器
type SerialChecker struct {
	conn *serialport.Conn
}

// NewSerialChecker 创建串口健康检查器
func NewSerialChecker(conn *serialport.Conn) *SerialChecker {
	return &SerialChecker{conn: conn}
}

// Name 返回检查器名称
func (c *SerialChecker) Name() string {
	return "serial"
}

// Check 连接关闭或写熔断打开为不健康，半开为降级
func (c *SerialChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	details := map[string]any{
		"bytes_received": c.conn.BytesReceived(),
		"bytes_sent":     c.conn.BytesSent(),
	}

	if c.conn.Closed() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "serial port closed",
			Details: details,
			Latency: time.Since(start),
		}
	}

	status := StatusHealthy
	message := "ok"
	if b := c.conn.Breaker(); b != nil {
		stats := b.Stats()
		details["circuit_breaker_state"] = stats.State
		details["circuit_breaker_failures"] = stats.Failures
		details["circuit_breaker_trips"] = stats.TripCount
		switch b.State() {
		case serialport.StateOpen:
			status = StatusUnhealthy
			message = "serial writes failing, circuit open"
		case serialport.StateHalfOpen:
			status = StatusDegraded
			message = "serial writes recovering"
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
