package repository

import (
	"context"

	"social-hub/domain/model"
)

// PublishInput is the fully resolved input handed to a platform publisher:
// content already adapted to the platform limit, a fresh access token, and
// any platform-specific extras.
type PublishInput struct {
	Content     string
	ImageURL    string
	AccessToken string
	Extras      model.PlatformExtras
}

// ISocialPublisher is implemented once per platform. Publish never lets an
// internal error escape: every failure is folded into the returned outcome.
// GetEngagement returns normalized metrics for a platform-native post id.
type ISocialPublisher interface {
	Platform() model.Platform
	Publish(ctx context.Context, in PublishInput) *model.PublishOutcome
	GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error)
}
