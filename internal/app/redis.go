package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/dfplayer/internal/config"
	"github.com/taoyao-code/dfplayer/internal/events"
	"github.com/taoyao-code/dfplayer/internal/health"
	redisstorage "github.com/taoyao-code/dfplayer/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil, nil
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewRedisPublisher 基于客户端创建事件发布器
func NewRedisPublisher(client *redisstorage.Client, cfg cfgpkg.RedisConfig, logger *zap.Logger) *events.RedisPublisher {
	return events.NewRedisPublisher(client.Client, cfg.Channel, cfg.Queue, cfg.QueueMax, logger.Named("events"))
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
