package persistence

import (
	"context"
	"database/sql"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// CredentialRepository stores platform credentials in PostgreSQL. Reads fall
// back to the legacy social_accounts table so accounts connected before the
// migration keep working; writes always target platform_credentials.
type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) repository.ICredential {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Get(ctx context.Context, userID string, platform model.Platform) (*model.Credential, error) {
	cred, err := r.getFrom(ctx, "platform_credentials", userID, platform)
	if err != nil {
		return nil, err
	}
	if cred != nil {
		return cred, nil
	}
	return r.getFrom(ctx, "social_accounts", userID, platform)
}

func (r *CredentialRepository) getFrom(ctx context.Context, table string, userID string, platform model.Platform) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at FROM `+table+` WHERE user_id=$1 AND platform=$2`,
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

func (r *CredentialRepository) Upsert(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	q := `INSERT INTO platform_credentials (user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, cred.UserID, cred.Platform, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.Scopes, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": cred.Platform,
			"user_id":  cred.UserID,
		}).Error("upsert credential failed")
	}
	return err
}

func (r *CredentialRepository) Delete(ctx context.Context, userID string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM platform_credentials WHERE user_id=$1 AND platform=$2`, userID, platform)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE user_id=$1 AND platform=$2`, userID, platform)
	return err
}

func (r *CredentialRepository) ListPlatforms(ctx context.Context, userID string) ([]model.Platform, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT platform FROM platform_credentials WHERE user_id=$1
		 UNION SELECT platform FROM social_accounts WHERE user_id=$1`, userID)
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
