package pkg

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marking-service/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the report cache and fails fast when it is down.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opt.ReadTimeout = connectTimeout
	opt.WriteTimeout = connectTimeout

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}
