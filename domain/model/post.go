package model

import "time"

// PlatformExtras carries per-platform posting options. Reddit uses
// Subreddit/Flair; any platform may override the derived title.
type PlatformExtras struct {
	Subreddit string `json:"subreddit,omitempty"`
	Flair     string `json:"flair,omitempty"`
	Title     string `json:"title,omitempty"`
}

// PublishRequest is the orchestrator's unit of work: one piece of content
// fanned out to a set of platforms.
type PublishRequest struct {
	Content   string                      `json:"content"`
	Platforms []Platform                  `json:"platforms"`
	ImageURL  string                      `json:"image,omitempty"`
	Extras    map[Platform]PlatformExtras `json:"extras,omitempty"`
}

// PublishOutcome is the per-platform result. Exactly one of
// {Success with PostID+URL+Message} or {Error} holds.
type PublishOutcome struct {
	Platform          Platform `json:"platform"`
	Success           bool     `json:"success"`
	PostID            string   `json:"postId,omitempty"`
	URL               string   `json:"url,omitempty"`
	Message           string   `json:"message,omitempty"`
	Error             string   `json:"error,omitempty"`
	NeedsReconnection bool     `json:"needsReconnection,omitempty"`
}

// PublishedPost is the persisted record of one publish fan-out, keyed by the
// platform-native post ids needed later for engagement reads.
type PublishedPost struct {
	ID              int64                          `json:"id"              gorm:"primaryKey"`
	UserID          string                         `json:"user_id"         gorm:"index"`
	Content         string                         `json:"content"`
	ImageURL        string                         `json:"image_url,omitempty"`
	PlatformPostIDs map[Platform]string            `json:"platform_post_ids" gorm:"serializer:json"`
	PlatformURLs    map[Platform]string            `json:"platform_urls"     gorm:"serializer:json"`
	Engagement      map[Platform]EngagementMetrics `json:"engagement"        gorm:"serializer:json"`
	CreatedAt       time.Time                      `json:"created_at"      gorm:"autoCreateTime"`
	UpdatedAt       time.Time                      `json:"updated_at"      gorm:"autoUpdateTime"`
}
