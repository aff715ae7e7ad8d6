package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/dfplayer/internal/config"
	"github.com/taoyao-code/dfplayer/internal/serialport"
)

// NewBreaker 创建串口写熔断器，并记录状态变化
func NewBreaker(cfg cfgpkg.BreakerConfig, logger *zap.Logger) *serialport.CircuitBreaker {
	cb := serialport.NewCircuitBreaker(cfg.Threshold, cfg.Timeout)
	cb.SetStateChangeCallback(func(from, to serialport.State) {
		logger.Warn("serial circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})
	return cb
}

// OpenSerial 打开串口
func OpenSerial(cfg *cfgpkg.Config, logger *zap.Logger) (*serialport.Conn, error) {
	conn, err := serialport.Open(cfg.Serial, NewBreaker(cfg.Breaker, logger), logger.Named("serial"))
	if err != nil {
		if ports, e := serialport.ListPorts(); e == nil {
			logger.Error("open serial port failed",
				zap.String("port", cfg.Serial.Port),
				zap.Strings("available", ports),
				zap.Error(err))
		}
		return nil, err
	}
	logger.Info("serial port opened",
		zap.String("port", cfg.Serial.Port),
		zap.Int("baud_rate", cfg.Serial.BaudRate))
	return conn, nil
}

// NewRateLimiter 下行命令限速器
func NewRateLimiter(cfg cfgpkg.PlayerConfig) *serialport.RateLimiter {
	return serialport.NewRateLimiter(cfg.CommandRate, cfg.CommandBurst)
}
