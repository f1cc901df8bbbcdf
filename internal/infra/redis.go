package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"signaldesk/configs"
	"signaldesk/pkg/logger"
)

// NewRedis connects to Redis. It returns (nil, nil) when Redis is disabled.
func NewRedis(ctx context.Context, cfg configs.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Info("Redis disabled, realtime fan-out stays in process")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Redis connected", logger.Field("addr", cfg.Addr))
	return client, nil
}
