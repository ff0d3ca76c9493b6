package usecase

import (
	"context"
	"errors"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/oauth"
)

// IMetricsCache stores last-known metrics per (user, post, platform).
type IMetricsCache interface {
	Set(ctx context.Context, userID string, postID int64, platform model.Platform, m model.EngagementMetrics)
}

// IEngagementHistory appends metric snapshots to a history store.
type IEngagementHistory interface {
	Append(ctx context.Context, snap *model.EngagementSnapshot) error
}

// SyncConfig tunes the scheduler's throttling. Zero delays are legal so
// tests run without waiting.
type SyncConfig struct {
	BatchSize  int
	CallDelay  time.Duration
	BatchDelay time.Duration
}

type IEngagementUsecase interface {
	GetPostEngagement(ctx context.Context, userID string, postID int64) (map[model.Platform]model.EngagementMetrics, error)
	SyncAllPostsEngagement(ctx context.Context, userID string) (synced, failed int, err error)
	WithCache(c IMetricsCache) IEngagementUsecase
	WithHistory(h IEngagementHistory) IEngagementUsecase
}

type engagementUsecase struct {
	credRepo  repository.ICredential
	postRepo  repository.IPost
	refresher oauth.IRefresher
	readers   map[model.Platform]repository.ISocialPublisher
	cache     IMetricsCache
	history   IEngagementHistory
	cfg       SyncConfig
}

func NewEngagementUsecase(
	credRepo repository.ICredential,
	postRepo repository.IPost,
	refresher oauth.IRefresher,
	readers []repository.ISocialPublisher,
	cfg SyncConfig,
) IEngagementUsecase {
	m := make(map[model.Platform]repository.ISocialPublisher, len(readers))
	for _, r := range readers {
		m[r.Platform()] = r
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	return &engagementUsecase{
		credRepo:  credRepo,
		postRepo:  postRepo,
		refresher: refresher,
		readers:   m,
		cfg:       cfg,
	}
}

// WithCache attaches a metrics cache; WithHistory an append-only snapshot
// store. Both are optional.
func (u *engagementUsecase) WithCache(c IMetricsCache) IEngagementUsecase {
	u.cache = c
	return u
}

func (u *engagementUsecase) WithHistory(h IEngagementHistory) IEngagementUsecase {
	u.history = h
	return u
}

// readOne fetches metrics for one platform post. Missing credentials and
// failed reads both collapse to zero metrics; the distinction lives only in
// logs so callers can always render.
func (u *engagementUsecase) readOne(ctx context.Context, userID string, postID int64, platform model.Platform, nativeID string) (model.EngagementMetrics, bool) {
	zero := model.EngagementMetrics{}
	reader, ok := u.readers[platform]
	if !ok {
		logger.GetLogger().WithField("platform", platform).Warn("no engagement reader configured")
		return zero, false
	}

	cred, err := u.credRepo.Get(ctx, userID, platform)
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("credential lookup failed during engagement read")
		return zero, false
	}
	if cred == nil {
		logger.GetLogger().WithField("platform", platform).WithField("user_id", userID).Debug("platform not connected; returning zero metrics")
		return zero, false
	}

	token, err := u.refresher.EnsureFreshAccessToken(ctx, cred)
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("token refresh failed during engagement read")
		return zero, false
	}

	metrics, err := reader.GetEngagement(ctx, token, nativeID)
	if err != nil || metrics == nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("engagement read failed")
		return zero, false
	}

	if u.cache != nil {
		u.cache.Set(ctx, userID, postID, platform, *metrics)
	}
	if u.history != nil {
		snap := &model.EngagementSnapshot{
			UserID:     userID,
			PostID:     postID,
			Platform:   platform,
			NativeID:   nativeID,
			Metrics:    *metrics,
			ObservedAt: time.Now().UTC(),
		}
		if err := u.history.Append(ctx, snap); err != nil {
			logger.GetLogger().WithField("error", err).Warn("engagement history append failed")
		}
	}
	return *metrics, true
}

func (u *engagementUsecase) GetPostEngagement(ctx context.Context, userID string, postID int64) (map[model.Platform]model.EngagementMetrics, error) {
	post, err := u.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, errors.New("post not found")
	}

	out := make(map[model.Platform]model.EngagementMetrics, len(post.PlatformPostIDs))
	for platform, nativeID := range post.PlatformPostIDs {
		metrics, fresh := u.readOne(ctx, userID, postID, platform, nativeID)
		out[platform] = metrics
		if fresh {
			if err := u.postRepo.UpdateEngagement(ctx, postID, platform, metrics); err != nil {
				logger.GetLogger().WithField("error", err).Warn("failed to persist engagement metrics")
			}
		}
	}
	return out, nil
}

// SyncAllPostsEngagement walks every post that has platform-native ids, in
// small batches with delays between calls and batches to stay under
// third-party rate limits. One post's failure never stops the sync.
func (u *engagementUsecase) SyncAllPostsEngagement(ctx context.Context, userID string) (int, int, error) {
	posts, err := u.postRepo.ListWithPlatformIDs(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	synced, failed := 0, 0
	for start := 0; start < len(posts); start += u.cfg.BatchSize {
		end := start + u.cfg.BatchSize
		if end > len(posts) {
			end = len(posts)
		}
		for _, post := range posts[start:end] {
			if err := ctx.Err(); err != nil {
				return synced, failed, err
			}
			for platform, nativeID := range post.PlatformPostIDs {
				metrics, fresh := u.readOne(ctx, userID, post.ID, platform, nativeID)
				if fresh {
					if err := u.postRepo.UpdateEngagement(ctx, post.ID, platform, metrics); err != nil {
						logger.GetLogger().WithField("error", err).Warn("failed to persist engagement metrics")
						fresh = false
					}
				}
				if fresh {
					synced++
				} else {
					failed++
				}
				// The delay throttles every call, failed reads included; a
				// rate-limited platform must not be hammered faster just
				// because it is erroring.
				if !sleepCtx(ctx, u.cfg.CallDelay) {
					return synced, failed, ctx.Err()
				}
			}
		}
		if end < len(posts) {
			if !sleepCtx(ctx, u.cfg.BatchDelay) {
				return synced, failed, ctx.Err()
			}
		}
	}
	return synced, failed, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
