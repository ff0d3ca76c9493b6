package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-hub/domain/model"
	"social-hub/infrastructure/cache"
)

// A nil Redis client must make the cache a silent no-op; publish and
// engagement flows do not require Redis to be running.
func TestEngagementCache_NilClientIsNoOp(t *testing.T) {
	c := cache.NewEngagementCache(nil)
	assert.NotNil(t, c)

	c.Set(context.Background(), "u1", 7, model.PlatformTwitter, model.EngagementMetrics{Likes: 5})
	m, ok := c.Get(context.Background(), "u1", 7, model.PlatformTwitter)
	assert.False(t, ok)
	assert.Equal(t, model.EngagementMetrics{}, m)
}
