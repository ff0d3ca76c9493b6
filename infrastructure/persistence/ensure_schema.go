package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchema creates the PostgreSQL tables at startup when they are missing.
// Safe to call repeatedly.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			user_name TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS platform_credentials (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TIMESTAMPTZ,
			scopes TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform)
		)`,
		// Legacy table kept for read fallback on accounts connected before the
		// platform_credentials migration.
		`CREATE TABLE IF NOT EXISTS social_accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TIMESTAMPTZ,
			scopes TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform)
		)`,
		`CREATE TABLE IF NOT EXISTS published_posts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			image_url TEXT,
			platform_post_ids JSONB NOT NULL DEFAULT '{}',
			platform_urls JSONB NOT NULL DEFAULT '{}',
			engagement JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_published_posts_user ON published_posts (user_id)`,
	}
	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensuring schema failed: %w", err)
		}
	}
	return nil
}

// EnsureSchemaMSSQL creates the SQL Server tables at startup when they are
// missing.
func EnsureSchemaMSSQL(db *sql.DB) error {
	if err := EnsureUserSchemaMSSQL(db); err != nil {
		return err
	}
	if err := EnsureCredentialSchemaMSSQL(db); err != nil {
		return err
	}
	return EnsurePostSchemaMSSQL(db)
}

// EnsureUserSchemaMSSQL creates the users table for SQL Server if it does not
// exist.
func EnsureUserSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.users') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[users] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        name NVARCHAR(255) NOT NULL,
        user_name NVARCHAR(128) NOT NULL,
        password NVARCHAR(128) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_users_user_name ON dbo.[users](user_name);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create users (mssql): %w", err)
	}
	return nil
}
