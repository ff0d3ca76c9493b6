package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

const engagementTTL = 15 * time.Minute

// EngagementCache keeps the last-known metrics per (user, post, platform) in
// Redis so dashboards can render without waiting on platform APIs. A nil
// client turns every operation into a no-op.
type EngagementCache struct {
	redisClient *redis.Client
}

func NewEngagementCache(redisClient *redis.Client) *EngagementCache {
	return &EngagementCache{redisClient: redisClient}
}

func engagementKey(userID string, postID int64, platform model.Platform) string {
	return fmt.Sprintf("engagement:%s:%d:%s", userID, postID, platform)
}

func (c *EngagementCache) Set(ctx context.Context, userID string, postID int64, platform model.Platform, m model.EngagementMetrics) {
	if c.redisClient == nil {
		return
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := c.redisClient.Set(ctx, engagementKey(userID, postID, platform), payload, engagementTTL).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error while caching engagement metrics")
	}
}

// Get returns the cached metrics and whether they were present.
func (c *EngagementCache) Get(ctx context.Context, userID string, postID int64, platform model.Platform) (model.EngagementMetrics, bool) {
	var m model.EngagementMetrics
	if c.redisClient == nil {
		return m, false
	}
	payload, err := c.redisClient.Get(ctx, engagementKey(userID, postID, platform)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithField("error", err).Warn("Error while reading engagement cache")
		}
		return m, false
	}
	if err := json.Unmarshal(payload, &m); err != nil {
		return m, false
	}
	return m, true
}
