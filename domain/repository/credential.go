package repository

import (
	"context"

	"social-hub/domain/model"
)

// ICredential is the credential store consulted before every publish or
// engagement call. Get returns (nil, nil) when no credential is stored;
// that is a normal outcome, not an error.
type ICredential interface {
	Get(ctx context.Context, userID string, platform model.Platform) (*model.Credential, error)
	Upsert(ctx context.Context, cred *model.Credential) error
	Delete(ctx context.Context, userID string, platform model.Platform) error
	ListPlatforms(ctx context.Context, userID string) ([]model.Platform, error)
}
