package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// CredentialRepositoryMSSQL is a SQL Server implementation of ICredential
// using database/sql. The legacy social_accounts fallback only ever existed
// on the PostgreSQL deployment, so reads here hit one table.
type CredentialRepositoryMSSQL struct{ db *sql.DB }

func NewCredentialRepositoryMSSQL(db *sql.DB) repository.ICredential {
	return &CredentialRepositoryMSSQL{db: db}
}

// EnsureCredentialSchemaMSSQL creates the platform_credentials table for SQL
// Server if it does not exist.
func EnsureCredentialSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.platform_credentials') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[platform_credentials] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        expires_at DATETIME2 NULL,
        scopes NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_platform_credentials_user_platform ON dbo.[platform_credentials](user_id, platform);
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create platform_credentials (mssql): %w", err)
	}
	return nil
}

func (r *CredentialRepositoryMSSQL) Get(ctx context.Context, userID string, platform model.Platform) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at FROM dbo.[platform_credentials] WHERE user_id=@p1 AND platform=@p2`,
		userID, platform)
	cred := &model.Credential{}
	var exp sql.NullTime
	var refresh, scopes sql.NullString
	err := row.Scan(&cred.ID, &cred.UserID, &cred.Platform, &cred.AccessToken, &refresh, &exp, &scopes, &cred.CreatedAt, &cred.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if exp.Valid {
		cred.ExpiresAt = &exp.Time
	}
	cred.RefreshToken = refresh.String
	cred.Scopes = scopes.String
	return cred, nil
}

func (r *CredentialRepositoryMSSQL) Upsert(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	var exp sql.NullTime
	if cred.ExpiresAt != nil {
		exp.Valid = true
		exp.Time = *cred.ExpiresAt
	}
	q := `MERGE dbo.[platform_credentials] AS target
USING (VALUES (@p1, @p2)) AS src(user_id, platform)
ON target.user_id = src.user_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    access_token=@p3,
    refresh_token=@p4,
    expires_at=@p5,
    scopes=@p6,
    updated_at=@p8
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8);`
	_, err := r.db.ExecContext(ctx, q,
		cred.UserID, cred.Platform,
		cred.AccessToken,
		cred.RefreshToken,
		exp,
		cred.Scopes,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": cred.Platform,
			"user_id":  cred.UserID,
		}).Error("mssql: upsert credential failed")
	}
	return err
}

func (r *CredentialRepositoryMSSQL) Delete(ctx context.Context, userID string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[platform_credentials] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	return err
}

func (r *CredentialRepositoryMSSQL) ListPlatforms(ctx context.Context, userID string) ([]model.Platform, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT platform FROM dbo.[platform_credentials] WHERE user_id=@p1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Platform
	for rows.Next() {
		var p model.Platform
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
