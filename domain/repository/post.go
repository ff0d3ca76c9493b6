package repository

import (
	"context"

	"social-hub/domain/model"
)

// IPost persists published posts and their platform-native ids, which the
// engagement sync later reads back.
type IPost interface {
	Create(ctx context.Context, post *model.PublishedPost) error
	GetByID(ctx context.Context, id int64) (*model.PublishedPost, error)
	RecordPlatformPost(ctx context.Context, postID int64, platform model.Platform, nativeID, url string) error
	ListWithPlatformIDs(ctx context.Context, userID string) ([]*model.PublishedPost, error)
	UpdateEngagement(ctx context.Context, postID int64, platform model.Platform, metrics model.EngagementMetrics) error
}
