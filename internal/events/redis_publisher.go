package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultChannel  = "dfplayer:events"
	DefaultQueueKey = "dfplayer:events:queue"
)

// RedisPublisher 将事件写入 Redis：RPUSH 到队列（按 queueMax 裁剪）并 PUBLISH 到频道
type RedisPublisher struct {
	redis    redis.UniversalClient
	logger   *zap.Logger
	channel  string
	queueKey string
	queueMax int64
}

// NewRedisPublisher 创建 Redis 发布器；queueMax<=0 时不裁剪队列
func NewRedisPublisher(client redis.UniversalClient, channel, queueKey string, queueMax int64, logger *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{
		redis:    client,
		logger:   logger,
		channel:  channel,
		queueKey: queueKey,
		queueMax: queueMax,
	}
}

// Publish 序列化并写入 Redis
func (p *RedisPublisher) Publish(ctx context.Context, ev PlayerEvent) error {
	if p == nil || p.redis == nil {
		return fmt.Errorf("redis publisher not initialized")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.redis.TxPipeline()
	pipe.RPush(ctx, p.queueKey, data)
	if p.queueMax > 0 {
		pipe.LTrim(ctx, p.queueKey, -p.queueMax, -1)
	}
	pipe.Publish(ctx, p.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", ev.EventID),
			zap.String("event_type", string(ev.Type)),
			zap.Error(err))
		return fmt.Errorf("redis publish: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("event_id", ev.EventID),
		zap.String("event_type", string(ev.Type)),
		zap.String("channel", p.channel))
	return nil
}

// Queued 读取队列中最近的 limit 条事件（旧到新）
func (p *RedisPublisher) Queued(ctx context.Context, limit int64) ([]PlayerEvent, error) {
	if limit <= 0 {
		limit = p.queueMax
	}
	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := p.redis.LRange(ctx, p.queueKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]PlayerEvent, 0, len(raw))
	for _, s := range raw {
		var ev PlayerEvent
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			p.logger.Warn("skip malformed queued event", zap.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
