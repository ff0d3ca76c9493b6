package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/usecase"
)

// Mock implementations

type MockCredentialRepo struct {
	mock.Mock
}

func (m *MockCredentialRepo) Get(ctx context.Context, userID string, platform model.Platform) (*model.Credential, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepo) Upsert(ctx context.Context, cred *model.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepo) Delete(ctx context.Context, userID string, platform model.Platform) error {
	args := m.Called(ctx, userID, platform)
	return args.Error(0)
}

func (m *MockCredentialRepo) ListPlatforms(ctx context.Context, userID string) ([]model.Platform, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Platform), args.Error(1)
}

type MockPostRepo struct {
	mock.Mock
}

func (m *MockPostRepo) Create(ctx context.Context, post *model.PublishedPost) error {
	args := m.Called(ctx, post)
	post.ID = 42
	return args.Error(0)
}

func (m *MockPostRepo) GetByID(ctx context.Context, id int64) (*model.PublishedPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishedPost), args.Error(1)
}

func (m *MockPostRepo) RecordPlatformPost(ctx context.Context, postID int64, platform model.Platform, nativeID, url string) error {
	args := m.Called(ctx, postID, platform, nativeID, url)
	return args.Error(0)
}

func (m *MockPostRepo) ListWithPlatformIDs(ctx context.Context, userID string) ([]*model.PublishedPost, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishedPost), args.Error(1)
}

func (m *MockPostRepo) UpdateEngagement(ctx context.Context, postID int64, platform model.Platform, metrics model.EngagementMetrics) error {
	args := m.Called(ctx, postID, platform, metrics)
	return args.Error(0)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) EnsureFreshAccessToken(ctx context.Context, cred *model.Credential) (string, error) {
	args := m.Called(ctx, cred)
	return args.String(0), args.Error(1)
}

// fakePublisher is a configurable strategy stub. Publish records the inputs
// it was called with.

type fakePublisher struct {
	platform model.Platform
	outcome  *model.PublishOutcome
	panics   bool

	calls  int
	inputs []repository.PublishInput
}

func (f *fakePublisher) Platform() model.Platform { return f.platform }

func (f *fakePublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	f.calls++
	f.inputs = append(f.inputs, in)
	if f.panics {
		panic("exploded")
	}
	return f.outcome
}

func (f *fakePublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	return &model.EngagementMetrics{}, nil
}

func validCredential(p model.Platform) *model.Credential {
	return &model.Credential{UserID: "u1", Platform: p, AccessToken: "tok-" + string(p)}
}

func TestPublish_OneOutcomePerPlatformInRequestOrder(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: true, PostID: "111"}}
	reddit := &fakePublisher{platform: model.PlatformReddit, outcome: &model.PublishOutcome{Platform: model.PlatformReddit, Success: false, Error: "reddit rejected the submission"}}
	linkedin := &fakePublisher{platform: model.PlatformLinkedIn, outcome: &model.PublishOutcome{Platform: model.PlatformLinkedIn, Success: true, PostID: "urn:li:share:9"}}

	for _, p := range []model.Platform{model.PlatformTwitter, model.PlatformReddit, model.PlatformLinkedIn} {
		credRepo.On("Get", mock.Anything, "u1", p).Return(validCredential(p), nil)
	}
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter, reddit, linkedin}, time.Second)

	outcomes, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello world",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformReddit, model.PlatformLinkedIn},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, model.PlatformTwitter, outcomes[0].Platform)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, model.PlatformReddit, outcomes[1].Platform)
	assert.False(t, outcomes[1].Success)
	assert.Equal(t, model.PlatformLinkedIn, outcomes[2].Platform)
	assert.True(t, outcomes[2].Success)
}

func TestPublish_PanickingPublisherDoesNotAbortOthers(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, panics: true}
	facebook := &fakePublisher{platform: model.PlatformFacebook, outcome: &model.PublishOutcome{Platform: model.PlatformFacebook, Success: true, PostID: "page_post"}}

	credRepo.On("Get", mock.Anything, "u1", mock.Anything).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter, facebook}, time.Second)

	outcomes, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformFacebook},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Error, "internal error")
	assert.True(t, outcomes[1].Success)
}

func TestPublish_MissingCredentialSkipsPlatformCall(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: true, PostID: "111"}}
	reddit := &fakePublisher{platform: model.PlatformReddit, outcome: &model.PublishOutcome{Platform: model.PlatformReddit, Success: true, PostID: "abc"}}

	credRepo.On("Get", mock.Anything, "u1", model.PlatformTwitter).Return(validCredential(model.PlatformTwitter), nil)
	credRepo.On("Get", mock.Anything, "u1", model.PlatformReddit).Return(nil, nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter, reddit}, time.Second)

	outcomes, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello world",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformReddit},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.True(t, outcomes[0].Success)
	assert.False(t, outcomes[1].Success)
	assert.True(t, outcomes[1].NeedsReconnection)
	assert.Contains(t, outcomes[1].Error, "no credentials stored for reddit")
	assert.Equal(t, 0, reddit.calls, "publisher must not be called without a credential")
}

func TestPublish_RefreshFailureMarksReconnection(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter}

	credRepo.On("Get", mock.Anything, "u1", model.PlatformTwitter).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("", assert.AnError)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter}, time.Second)

	outcomes, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.False(t, outcomes[0].Success)
	assert.True(t, outcomes[0].NeedsReconnection)
	assert.Equal(t, 0, twitter.calls)
}

func TestPublish_ContentAdaptedPerPlatform(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: true, PostID: "1"}}

	credRepo.On("Get", mock.Anything, "u1", model.PlatformTwitter).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter}, time.Second)

	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	_, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   long,
		Platforms: []model.Platform{model.PlatformTwitter},
	})
	require.NoError(t, err)
	require.Len(t, twitter.inputs, 1)
	assert.LessOrEqual(t, len(twitter.inputs[0].Content), 280)
	assert.Equal(t, "fresh-token", twitter.inputs[0].AccessToken)
}

func TestPublish_ValidationErrors(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)
	twitter := &fakePublisher{platform: model.PlatformTwitter}

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter}, time.Second)

	tests := []struct {
		name string
		req  *model.PublishRequest
	}{
		{"empty content", &model.PublishRequest{Platforms: []model.Platform{model.PlatformTwitter}}},
		{"no platforms", &model.PublishRequest{Content: "hello"}},
		{"unknown platform", &model.PublishRequest{Content: "hello", Platforms: []model.Platform{"myspace"}}},
		{"unconfigured platform", &model.PublishRequest{Content: "hello", Platforms: []model.Platform{model.PlatformReddit}}},
		{"duplicate platform", &model.PublishRequest{Content: "hello", Platforms: []model.Platform{model.PlatformTwitter, model.PlatformTwitter}}},
		{"extras for absent platform", &model.PublishRequest{
			Content:   "hello",
			Platforms: []model.Platform{model.PlatformTwitter},
			Extras:    map[model.Platform]model.PlatformExtras{model.PlatformReddit: {Subreddit: "golang"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Publish(context.Background(), "u1", tt.req)
			assert.Error(t, err)
			assert.Equal(t, 0, twitter.calls)
		})
	}
}

func TestPublish_RecordsSuccessfulPlatformPosts(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	postRepo := new(MockPostRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: true, PostID: "111", URL: "https://twitter.com/i/web/status/111"}}
	reddit := &fakePublisher{platform: model.PlatformReddit, outcome: &model.PublishOutcome{Platform: model.PlatformReddit, Success: false, Error: "boom"}}

	credRepo.On("Get", mock.Anything, "u1", mock.Anything).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)
	postRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	postRepo.On("RecordPlatformPost", mock.Anything, int64(42), model.PlatformTwitter, "111", "https://twitter.com/i/web/status/111").Return(nil)

	uc := usecase.NewPublishUsecase(credRepo, postRepo, refresher, []repository.ISocialPublisher{twitter, reddit}, time.Second)

	_, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformReddit},
	})
	require.NoError(t, err)

	postRepo.AssertNumberOfCalls(t, "Create", 1)
	postRepo.AssertNumberOfCalls(t, "RecordPlatformPost", 1)
}

func TestPublish_NoPostRecordedWhenAllFail(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	postRepo := new(MockPostRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: false, Error: "down"}}

	credRepo.On("Get", mock.Anything, "u1", model.PlatformTwitter).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	uc := usecase.NewPublishUsecase(credRepo, postRepo, refresher, []repository.ISocialPublisher{twitter}, time.Second)

	_, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter},
	})
	require.NoError(t, err)

	postRepo.AssertNotCalled(t, "Create")
	postRepo.AssertNotCalled(t, "RecordPlatformPost")
}

func TestPublish_BroadcasterReceivesEveryOutcome(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &fakePublisher{platform: model.PlatformTwitter, outcome: &model.PublishOutcome{Platform: model.PlatformTwitter, Success: true, PostID: "1"}}
	reddit := &fakePublisher{platform: model.PlatformReddit, outcome: &model.PublishOutcome{Platform: model.PlatformReddit, Success: false, Error: "nope"}}

	credRepo.On("Get", mock.Anything, "u1", mock.Anything).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	var seen []model.PublishOutcome
	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter, reddit}, time.Second).
		WithBroadcaster(func(userID string, outcome model.PublishOutcome) {
			assert.Equal(t, "u1", userID)
			seen = append(seen, outcome)
		})

	_, err := uc.Publish(context.Background(), "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformReddit},
	})
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

// blockingPublisher stalls until the context is cancelled, the shape of a
// platform call interrupted mid-flight.
type blockingPublisher struct {
	platform model.Platform
}

func (b *blockingPublisher) Platform() model.Platform { return b.platform }

func (b *blockingPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	<-ctx.Done()
	return &model.PublishOutcome{Platform: b.platform, Error: "request aborted"}
}

func (b *blockingPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	return &model.EngagementMetrics{}, nil
}

func TestPublish_CancellationYieldsCancelledOutcomeEverywhere(t *testing.T) {
	credRepo := new(MockCredentialRepo)
	refresher := new(MockRefresher)

	twitter := &blockingPublisher{platform: model.PlatformTwitter}
	reddit := &blockingPublisher{platform: model.PlatformReddit}

	credRepo.On("Get", mock.Anything, "u1", mock.Anything).Return(validCredential(model.PlatformTwitter), nil)
	refresher.On("EnsureFreshAccessToken", mock.Anything, mock.Anything).Return("fresh-token", nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	uc := usecase.NewPublishUsecase(credRepo, nil, refresher, []repository.ISocialPublisher{twitter, reddit}, time.Second)
	outcomes, err := uc.Publish(ctx, "u1", &model.PublishRequest{
		Content:   "hello",
		Platforms: []model.Platform{model.PlatformTwitter, model.PlatformReddit},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, model.PlatformTwitter, outcomes[0].Platform)
	assert.Equal(t, model.PlatformReddit, outcomes[1].Platform)
	for _, o := range outcomes {
		assert.False(t, o.Success)
		assert.Equal(t, "cancelled", o.Error)
	}
}
