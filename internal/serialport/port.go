package serialport

import (
	"fmt"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/config"
)

// Open 以 8N1 打开串口并包装为 Conn
func Open(cfg config.SerialConfig, breaker *CircuitBreaker, logger *zap.Logger) (*Conn, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return NewConn(port, Options{
		WriteTimeout: cfg.WriteTimeout,
		WriteQueue:   cfg.WriteQueue,
		Breaker:      breaker,
		Logger:       logger,
	}), nil
}

// ListPorts 列出系统可用串口
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
