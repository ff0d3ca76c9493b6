package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
)

// DefaultRefreshWindow is how close to expiry a token may get before it is
// refreshed ahead of use.
const DefaultRefreshWindow = 5 * time.Minute

// IRefresher hands out an access token guaranteed fresh for the refresh window.
type IRefresher interface {
	EnsureFreshAccessToken(ctx context.Context, cred *model.Credential) (string, error)
}

// Refresher exchanges refresh tokens at each platform's token endpoint and
// persists the rotated credential. Refreshes are serialized per
// (userID, platform): most providers invalidate a refresh token after first
// use, so two racing callers must not both attempt the exchange.
type Refresher struct {
	credRepo  repository.ICredential
	window    time.Duration
	endpoints map[model.Platform]oauth2.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRefresher(credRepo repository.ICredential, window time.Duration) *Refresher {
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	return &Refresher{
		credRepo:  credRepo,
		window:    window,
		endpoints: platformEndpoints(),
		locks:     make(map[string]*sync.Mutex),
	}
}

func platformEndpoints() map[model.Platform]oauth2.Config {
	oc := configuration.C.OAuth
	return map[model.Platform]oauth2.Config{
		model.PlatformTwitter: {
			ClientID:     oc.Twitter.ClientID,
			ClientSecret: oc.Twitter.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: "https://api.twitter.com/2/oauth2/token"},
		},
		model.PlatformLinkedIn: {
			ClientID:     oc.LinkedIn.ClientID,
			ClientSecret: oc.LinkedIn.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: "https://www.linkedin.com/oauth/v2/accessToken"},
		},
		model.PlatformReddit: {
			ClientID:     oc.Reddit.ClientID,
			ClientSecret: oc.Reddit.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: "https://www.reddit.com/api/v1/access_token"},
		},
		// Facebook and Instagram long-lived tokens have no refresh-token
		// grant; they are re-issued by the external authorization flow.
	}
}

// SetTokenURL overrides one platform's token endpoint (tests point this at a
// local server).
func (r *Refresher) SetTokenURL(p model.Platform, tokenURL string) {
	cfg := r.endpoints[p]
	cfg.Endpoint = oauth2.Endpoint{TokenURL: tokenURL}
	r.endpoints[p] = cfg
}

func (r *Refresher) keyLock(userID string, p model.Platform) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + string(p)
	if r.locks[key] == nil {
		r.locks[key] = &sync.Mutex{}
	}
	return r.locks[key]
}

// EnsureFreshAccessToken returns the stored token when it is still valid,
// otherwise refreshes, persists and returns the rotated one. A credential
// without an expiry is assumed non-expiring or externally managed.
func (r *Refresher) EnsureFreshAccessToken(ctx context.Context, cred *model.Credential) (string, error) {
	if cred == nil {
		return "", fmt.Errorf("no credential provided")
	}
	if !cred.Stale(time.Now(), r.window) {
		return cred.AccessToken, nil
	}

	lock := r.keyLock(cred.UserID, cred.Platform)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	current, err := r.credRepo.Get(ctx, cred.UserID, cred.Platform)
	if err != nil {
		return "", fmt.Errorf("credential reload failed: %w", err)
	}
	if current == nil {
		return "", fmt.Errorf("credential disappeared during refresh")
	}
	if !current.Stale(time.Now(), r.window) {
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		return "", fmt.Errorf("%s token expires soon and no refresh token is stored", current.Platform)
	}

	cfg, ok := r.endpoints[current.Platform]
	if !ok {
		// No refresh grant for this platform; hand back what we have.
		return current.AccessToken, nil
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%s token refresh rejected: %w", current.Platform, err)
	}

	current.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		current.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		current.ExpiresAt = &expiry
	}
	if err := r.credRepo.Upsert(ctx, current); err != nil {
		return "", fmt.Errorf("persisting refreshed %s token: %w", current.Platform, err)
	}
	logger.GetLogger().
		WithField("platform", current.Platform).
		WithField("user_id", current.UserID).
		Info("access token refreshed")
	return current.AccessToken, nil
}
