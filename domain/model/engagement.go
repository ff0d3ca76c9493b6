package model

import "time"

// EngagementMetrics is the normalized read-model for post performance.
// A disconnected platform or failed read yields the zero value so callers
// can render metrics unconditionally.
type EngagementMetrics struct {
	Likes       int `json:"likes"`
	Shares      int `json:"shares"`
	Comments    int `json:"comments"`
	Reach       int `json:"reach"`
	Impressions int `json:"impressions"`
	Clicks      int `json:"clicks"`
	Views       int `json:"views,omitempty"`
	Saves       int `json:"saves,omitempty"`
}

// EngagementSnapshot is one timestamped observation of a post's metrics on
// one platform, kept as an append-only history.
type EngagementSnapshot struct {
	UserID     string            `json:"user_id"     bson:"user_id"`
	PostID     int64             `json:"post_id"     bson:"post_id"`
	Platform   Platform          `json:"platform"    bson:"platform"`
	NativeID   string            `json:"native_id"   bson:"native_id"`
	Metrics    EngagementMetrics `json:"metrics"     bson:"metrics"`
	ObservedAt time.Time         `json:"observed_at" bson:"observed_at"`
}
