package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
	"social-hub/infrastructure/oauth"
)

// memCredStore is a thread-safe in-memory credential store.

type memCredStore struct {
	mu    sync.Mutex
	creds map[string]*model.Credential
}

func newMemCredStore() *memCredStore {
	return &memCredStore{creds: make(map[string]*model.Credential)}
}

func key(userID string, p model.Platform) string { return userID + "|" + string(p) }

func (s *memCredStore) Get(ctx context.Context, userID string, platform model.Platform) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[key(userID, platform)]
	if !ok {
		return nil, nil
	}
	copied := *cred
	return &copied, nil
}

func (s *memCredStore) Upsert(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.creds[key(cred.UserID, cred.Platform)] = &copied
	return nil
}

func (s *memCredStore) Delete(ctx context.Context, userID string, platform model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, key(userID, platform))
	return nil
}

func (s *memCredStore) ListPlatforms(ctx context.Context, userID string) ([]model.Platform, error) {
	return nil, nil
}

func tokenEndpoint(t *testing.T, calls *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"rotated-token","refresh_token":"rotated-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
}

func storeCred(store *memCredStore, expiresIn time.Duration) *model.Credential {
	cred := &model.Credential{
		UserID:       "u1",
		Platform:     model.PlatformTwitter,
		AccessToken:  "old-token",
		RefreshToken: "old-refresh",
	}
	if expiresIn != 0 {
		expiry := time.Now().Add(expiresIn)
		cred.ExpiresAt = &expiry
	}
	_ = store.Upsert(context.Background(), cred)
	got, _ := store.Get(context.Background(), "u1", model.PlatformTwitter)
	return got
}

func TestEnsureFreshAccessToken_NoExpirySkipsRefresh(t *testing.T) {
	var calls int64
	srv := tokenEndpoint(t, &calls)
	defer srv.Close()

	store := newMemCredStore()
	cred := storeCred(store, 0)

	r := oauth.NewRefresher(store, oauth.DefaultRefreshWindow)
	r.SetTokenURL(model.PlatformTwitter, srv.URL)

	token, err := r.EnsureFreshAccessToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "old-token", token)
	assert.EqualValues(t, 0, calls)
}

func TestEnsureFreshAccessToken_OutsideWindowSkipsRefresh(t *testing.T) {
	var calls int64
	srv := tokenEndpoint(t, &calls)
	defer srv.Close()

	store := newMemCredStore()
	cred := storeCred(store, 10*time.Minute)

	r := oauth.NewRefresher(store, oauth.DefaultRefreshWindow)
	r.SetTokenURL(model.PlatformTwitter, srv.URL)

	token, err := r.EnsureFreshAccessToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "old-token", token)
	assert.EqualValues(t, 0, calls)
}

func TestEnsureFreshAccessToken_RefreshesInsideWindowAndPersists(t *testing.T) {
	var calls int64
	srv := tokenEndpoint(t, &calls)
	defer srv.Close()

	store := newMemCredStore()
	cred := storeCred(store, 2*time.Minute)

	r := oauth.NewRefresher(store, oauth.DefaultRefreshWindow)
	r.SetTokenURL(model.PlatformTwitter, srv.URL)

	token, err := r.EnsureFreshAccessToken(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", token)
	assert.EqualValues(t, 1, calls)

	persisted, err := store.Get(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", persisted.AccessToken)
	assert.Equal(t, "rotated-refresh", persisted.RefreshToken)
	require.NotNil(t, persisted.ExpiresAt)
	assert.True(t, persisted.ExpiresAt.After(time.Now().Add(30*time.Minute)))
}

func TestEnsureFreshAccessToken_ConcurrentCallersRefreshOnce(t *testing.T) {
	var calls int64
	srv := tokenEndpoint(t, &calls)
	defer srv.Close()

	store := newMemCredStore()
	cred := storeCred(store, 2*time.Minute)

	r := oauth.NewRefresher(store, oauth.DefaultRefreshWindow)
	r.SetTokenURL(model.PlatformTwitter, srv.URL)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := r.EnsureFreshAccessToken(context.Background(), cred)
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls, "racing callers must share one refresh")
	for _, token := range tokens {
		assert.Equal(t, "rotated-token", token)
	}
}

func TestEnsureFreshAccessToken_NoRefreshTokenErrors(t *testing.T) {
	store := newMemCredStore()
	expiry := time.Now().Add(time.Minute)
	cred := &model.Credential{
		UserID:      "u1",
		Platform:    model.PlatformTwitter,
		AccessToken: "old-token",
		ExpiresAt:   &expiry,
	}
	_ = store.Upsert(context.Background(), cred)

	r := oauth.NewRefresher(store, oauth.DefaultRefreshWindow)

	_, err := r.EnsureFreshAccessToken(context.Background(), cred)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}
