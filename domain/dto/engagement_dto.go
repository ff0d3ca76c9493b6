package dto

import "social-hub/domain/model"

// EngagementRes aggregates per-platform metrics for one published post.
type EngagementRes struct {
	PostID     int64                                      `json:"post_id"`
	Engagement map[model.Platform]model.EngagementMetrics `json:"engagement"`
}

// SyncRes reports the result of an on-demand engagement sync.
type SyncRes struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}
