package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// PostRepository stores published posts in PostgreSQL. Platform-native ids,
// urls and engagement are JSONB columns keyed by platform.
type PostRepository struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) repository.IPost {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *model.PublishedPost) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.PlatformPostIDs == nil {
		post.PlatformPostIDs = map[model.Platform]string{}
	}
	if post.PlatformURLs == nil {
		post.PlatformURLs = map[model.Platform]string{}
	}
	if post.Engagement == nil {
		post.Engagement = map[model.Platform]model.EngagementMetrics{}
	}
	ids, _ := json.Marshal(post.PlatformPostIDs)
	urls, _ := json.Marshal(post.PlatformURLs)
	eng, _ := json.Marshal(post.Engagement)
	q := `INSERT INTO published_posts (user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`
	err := r.db.QueryRowContext(ctx, q, post.UserID, post.Content, post.ImageURL, ids, urls, eng, post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("insert published post failed")
	}
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.PublishedPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at FROM published_posts WHERE id=$1`, id)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

func (r *PostRepository) RecordPlatformPost(ctx context.Context, postID int64, platform model.Platform, nativeID, url string) error {
	q := `UPDATE published_posts SET
			platform_post_ids = platform_post_ids || jsonb_build_object($2::text, $3::text),
			platform_urls = platform_urls || jsonb_build_object($2::text, $4::text),
			updated_at = $5
		  WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, postID, string(platform), nativeID, url, time.Now().UTC())
	return err
}

func (r *PostRepository) ListWithPlatformIDs(ctx context.Context, userID string) ([]*model.PublishedPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at
		 FROM published_posts WHERE user_id=$1 AND platform_post_ids <> '{}'::jsonb ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PublishedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

func (r *PostRepository) UpdateEngagement(ctx context.Context, postID int64, platform model.Platform, metrics model.EngagementMetrics) error {
	m, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	q := `UPDATE published_posts SET
			engagement = engagement || jsonb_build_object($2::text, $3::jsonb),
			updated_at = $4
		  WHERE id=$1`
	_, err = r.db.ExecContext(ctx, q, postID, string(platform), m, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*model.PublishedPost, error) {
	post := &model.PublishedPost{}
	var image sql.NullString
	var ids, urls, eng []byte
	err := row.Scan(&post.ID, &post.UserID, &post.Content, &image, &ids, &urls, &eng, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.ImageURL = image.String
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &post.PlatformPostIDs); err != nil {
			return nil, err
		}
	}
	if len(urls) > 0 {
		if err := json.Unmarshal(urls, &post.PlatformURLs); err != nil {
			return nil, err
		}
	}
	if len(eng) > 0 {
		if err := json.Unmarshal(eng, &post.Engagement); err != nil {
			return nil, err
		}
	}
	return post, nil
}
