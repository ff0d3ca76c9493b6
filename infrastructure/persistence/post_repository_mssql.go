package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// PostRepositoryMSSQL is a SQL Server implementation of IPost. SQL Server has
// no jsonb merge operator, so the JSON maps are read, modified in Go and
// written back whole.
type PostRepositoryMSSQL struct{ db *sql.DB }

func NewPostRepositoryMSSQL(db *sql.DB) repository.IPost {
	return &PostRepositoryMSSQL{db: db}
}

// EnsurePostSchemaMSSQL creates the published_posts table for SQL Server if it
// does not exist.
func EnsurePostSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.published_posts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[published_posts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        content NVARCHAR(MAX) NOT NULL,
        image_url NVARCHAR(2048) NULL,
        platform_post_ids NVARCHAR(MAX) NOT NULL DEFAULT '{}',
        platform_urls NVARCHAR(MAX) NOT NULL DEFAULT '{}',
        engagement NVARCHAR(MAX) NOT NULL DEFAULT '{}',
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_published_posts_user ON dbo.[published_posts](user_id);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create published_posts (mssql): %w", err)
	}
	return nil
}

func (r *PostRepositoryMSSQL) Create(ctx context.Context, post *model.PublishedPost) error {
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
	q := `INSERT INTO dbo.[published_posts] (user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at)
OUTPUT INSERTED.id
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8)`
	return r.db.QueryRowContext(ctx, q, post.UserID, post.Content, post.ImageURL, string(ids), string(urls), string(eng), post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
}

func (r *PostRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.PublishedPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at FROM dbo.[published_posts] WHERE id=@p1`, id)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return post, err
}

func (r *PostRepositoryMSSQL) RecordPlatformPost(ctx context.Context, postID int64, platform model.Platform, nativeID, url string) error {
	post, err := r.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return sql.ErrNoRows
	}
	if post.PlatformPostIDs == nil {
		post.PlatformPostIDs = map[model.Platform]string{}
	}
	if post.PlatformURLs == nil {
		post.PlatformURLs = map[model.Platform]string{}
	}
	post.PlatformPostIDs[platform] = nativeID
	post.PlatformURLs[platform] = url
	ids, _ := json.Marshal(post.PlatformPostIDs)
	urls, _ := json.Marshal(post.PlatformURLs)
	_, err = r.db.ExecContext(ctx,
		`UPDATE dbo.[published_posts] SET platform_post_ids=@p2, platform_urls=@p3, updated_at=@p4 WHERE id=@p1`,
		postID, string(ids), string(urls), time.Now().UTC())
	return err
}

func (r *PostRepositoryMSSQL) ListWithPlatformIDs(ctx context.Context, userID string) ([]*model.PublishedPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, image_url, platform_post_ids, platform_urls, engagement, created_at, updated_at
		 FROM dbo.[published_posts] WHERE user_id=@p1 AND platform_post_ids <> '{}' ORDER BY created_at DESC`, userID)
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

func (r *PostRepositoryMSSQL) UpdateEngagement(ctx context.Context, postID int64, platform model.Platform, metrics model.EngagementMetrics) error {
	post, err := r.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return sql.ErrNoRows
	}
	if post.Engagement == nil {
		post.Engagement = map[model.Platform]model.EngagementMetrics{}
	}
	post.Engagement[platform] = metrics
	eng, _ := json.Marshal(post.Engagement)
	_, err = r.db.ExecContext(ctx,
		`UPDATE dbo.[published_posts] SET engagement=@p2, updated_at=@p3 WHERE id=@p1`,
		postID, string(eng), time.Now().UTC())
	return err
}
