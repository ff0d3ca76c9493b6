package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"social-hub/infrastructure/logger"
)

// NewCache creates a Redis client. Redis is optional infrastructure; callers
// treat a connect failure as "run without cache".
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available")
		return nil, err
	}
	return client, nil
}
