package persistence

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// EngagementHistoryRepository keeps an append-only log of engagement
// snapshots in MongoDB. A nil client disables history without touching any
// caller; Append then succeeds as a no-op.
type EngagementHistoryRepository struct {
	mongoDb *mongo.Client
}

func NewEngagementHistoryRepository(db *mongo.Client) *EngagementHistoryRepository {
	return &EngagementHistoryRepository{mongoDb: db}
}

func (r *EngagementHistoryRepository) collection() *mongo.Collection {
	return r.mongoDb.Database("social_hub").Collection("engagement_history")
}

func (r *EngagementHistoryRepository) Append(ctx context.Context, snap *model.EngagementSnapshot) error {
	if r.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - skipping engagement history")
		return nil
	}
	_, err := r.collection().InsertOne(ctx, snap)
	return err
}

// Recent returns the newest snapshots for one post on one platform, most
// recent first.
func (r *EngagementHistoryRepository) Recent(ctx context.Context, postID int64, platform model.Platform, limit int64) ([]*model.EngagementSnapshot, error) {
	if r.mongoDb == nil {
		return nil, nil
	}
	filter := bson.D{{Key: "post_id", Value: postID}, {Key: "platform", Value: platform}}
	opts := options.Find().SetSort(bson.D{{Key: "observed_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching engagement history")
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		err := cursor.Close(ctx)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var snaps []*model.EngagementSnapshot
	for cursor.Next(ctx) {
		var snap model.EngagementSnapshot
		if err := cursor.Decode(&snap); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding")
			continue
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}
