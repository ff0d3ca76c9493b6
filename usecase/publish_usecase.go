package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/oauth"
)

// OutcomeBroadcaster pushes a per-platform outcome to interested listeners
// (SSE hub, message brokers). Implementations must be non-blocking.
type OutcomeBroadcaster func(userID string, outcome model.PublishOutcome)

type IPublishUsecase interface {
	Publish(ctx context.Context, userID string, req *model.PublishRequest) ([]model.PublishOutcome, error)
	WithBroadcaster(b OutcomeBroadcaster) IPublishUsecase
}

type publishUsecase struct {
	credRepo    repository.ICredential
	postRepo    repository.IPost
	refresher   oauth.IRefresher
	publishers  map[model.Platform]repository.ISocialPublisher
	broadcast   OutcomeBroadcaster
	callTimeout time.Duration
}

// NewPublishUsecase wires the orchestrator. The publisher map is the closed
// strategy set: a platform missing here cannot be requested at runtime.
func NewPublishUsecase(
	credRepo repository.ICredential,
	postRepo repository.IPost,
	refresher oauth.IRefresher,
	publishers []repository.ISocialPublisher,
	callTimeout time.Duration,
) IPublishUsecase {
	m := make(map[model.Platform]repository.ISocialPublisher, len(publishers))
	for _, p := range publishers {
		m[p.Platform()] = p
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &publishUsecase{
		credRepo:    credRepo,
		postRepo:    postRepo,
		refresher:   refresher,
		publishers:  m,
		callTimeout: callTimeout,
	}
}

// WithBroadcaster attaches an outcome listener. Returns the usecase for
// chaining during wiring.
func (u *publishUsecase) WithBroadcaster(b OutcomeBroadcaster) IPublishUsecase {
	u.broadcast = b
	return u
}

func (u *publishUsecase) validate(req *model.PublishRequest) error {
	if req == nil || req.Content == "" {
		return errors.New("content required")
	}
	if len(req.Platforms) == 0 {
		return errors.New("platforms required")
	}
	seen := make(map[model.Platform]struct{}, len(req.Platforms))
	for _, p := range req.Platforms {
		if !model.IsValidPlatform(string(p)) {
			return fmt.Errorf("unsupported platform: %s", p)
		}
		if _, ok := u.publishers[p]; !ok {
			return fmt.Errorf("platform not configured: %s", p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate platform: %s", p)
		}
		seen[p] = struct{}{}
	}
	for p := range req.Extras {
		if _, ok := seen[p]; !ok {
			return fmt.Errorf("extras given for platform not in request: %s", p)
		}
	}
	return nil
}

// Publish fans the request out to every requested platform concurrently and
// returns exactly one outcome per platform, in request order. One platform's
// failure (including a panicking strategy) never aborts the others.
func (u *publishUsecase) Publish(ctx context.Context, userID string, req *model.PublishRequest) ([]model.PublishOutcome, error) {
	if userID == "" {
		return nil, errors.New("userID required")
	}
	if err := u.validate(req); err != nil {
		return nil, err
	}

	outcomes := make([]model.PublishOutcome, len(req.Platforms))
	g := new(errgroup.Group)
	for idx, platform := range req.Platforms {
		idx, platform := idx, platform
		g.Go(func() error {
			outcomes[idx] = u.publishOne(ctx, userID, platform, req)
			return nil
		})
	}
	_ = g.Wait()

	u.recordResults(ctx, userID, req, outcomes)

	for _, o := range outcomes {
		if u.broadcast != nil {
			u.broadcast(userID, o)
		}
	}
	return outcomes, nil
}

func (u *publishUsecase) publishOne(ctx context.Context, userID string, platform model.Platform, req *model.PublishRequest) (out model.PublishOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.GetLogger().
				WithField("platform", platform).
				WithField("panic", rec).
				Error("publisher panicked")
			out = model.PublishOutcome{Platform: platform, Error: fmt.Sprintf("internal error: %v", rec)}
		}
	}()

	if ctx.Err() != nil {
		return model.PublishOutcome{Platform: platform, Error: "cancelled"}
	}

	cred, err := u.credRepo.Get(ctx, userID, platform)
	if err != nil {
		return model.PublishOutcome{Platform: platform, Error: fmt.Sprintf("credential lookup failed: %v", err)}
	}
	if cred == nil {
		return model.PublishOutcome{
			Platform:          platform,
			Error:             fmt.Sprintf("no credentials stored for %s; reconnect the account", platform),
			NeedsReconnection: true,
		}
	}

	token, err := u.refresher.EnsureFreshAccessToken(ctx, cred)
	if err != nil {
		return model.PublishOutcome{
			Platform:          platform,
			Error:             err.Error(),
			NeedsReconnection: true,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	in := repository.PublishInput{
		Content:     AdaptContent(req.Content, platform),
		ImageURL:    req.ImageURL,
		AccessToken: token,
		Extras:      req.Extras[platform],
	}
	result := u.publishers[platform].Publish(callCtx, in)
	if result == nil {
		return model.PublishOutcome{Platform: platform, Error: "publisher returned no outcome"}
	}
	if !result.Success && errors.Is(ctx.Err(), context.Canceled) {
		return model.PublishOutcome{Platform: platform, Error: "cancelled"}
	}
	return *result
}

// recordResults persists one post row for the request and attaches every
// successful platform's native id so engagement sync can find it later.
func (u *publishUsecase) recordResults(ctx context.Context, userID string, req *model.PublishRequest, outcomes []model.PublishOutcome) {
	if u.postRepo == nil {
		return
	}
	anySuccess := false
	for _, o := range outcomes {
		if o.Success {
			anySuccess = true
			break
		}
	}
	if !anySuccess {
		return
	}
	post := &model.PublishedPost{
		UserID:          userID,
		Content:         req.Content,
		ImageURL:        req.ImageURL,
		PlatformPostIDs: map[model.Platform]string{},
		PlatformURLs:    map[model.Platform]string{},
	}
	if err := u.postRepo.Create(ctx, post); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to persist published post")
		return
	}
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		if err := u.postRepo.RecordPlatformPost(ctx, post.ID, o.Platform, o.PostID, o.URL); err != nil {
			logger.GetLogger().
				WithField("platform", o.Platform).
				WithField("error", err).
				Error("failed to record platform post id")
		}
	}
}
