package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// TwitterPublisher posts tweets through the v2 API with an OAuth2 Bearer
// token. Native media upload needs OAuth 1.0a which the bearer flow cannot
// perform, so image posts degrade to text-only with an explicit note.
type TwitterPublisher struct {
	BaseURL string
	client  *http.Client
}

func NewTwitterPublisher(timeout time.Duration) *TwitterPublisher {
	return &TwitterPublisher{BaseURL: "https://api.twitter.com", client: newHTTPClient(timeout)}
}

func (t *TwitterPublisher) Platform() model.Platform { return model.PlatformTwitter }

func (t *TwitterPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	payload, _ := json.Marshal(map[string]string{"text": in.Content})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return failure(t.Platform(), err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return failure(t.Platform(), fmt.Sprintf("twitter request failed: %v", err))
	}
	body := readBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return failureReconnect(t.Platform(), fmt.Sprintf("twitter token rejected: %s", string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(t.Platform(), fmt.Sprintf("twitter post failed (%d): %s", resp.StatusCode, string(body)))
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Data.ID == "" {
		return failure(t.Platform(), fmt.Sprintf("twitter response missing tweet id: %s", string(body)))
	}

	msg := "Posted to Twitter/X"
	if in.ImageURL != "" {
		msg += " (image skipped: media upload requires OAuth 1.0a, posted text-only)"
	}
	return success(t.Platform(), out.Data.ID, "https://twitter.com/i/web/status/"+out.Data.ID, msg)
}

func (t *TwitterPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	u := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", t.BaseURL, nativePostID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter metrics request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter metrics failed (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Data struct {
			PublicMetrics struct {
				RetweetCount    int `json:"retweet_count"`
				ReplyCount      int `json:"reply_count"`
				LikeCount       int `json:"like_count"`
				QuoteCount      int `json:"quote_count"`
				ImpressionCount int `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("twitter metrics unmarshal: %w", err)
	}
	pm := out.Data.PublicMetrics
	return &model.EngagementMetrics{
		Likes:       pm.LikeCount,
		Shares:      pm.RetweetCount + pm.QuoteCount,
		Comments:    pm.ReplyCount,
		Reach:       pm.ImpressionCount,
		Impressions: pm.ImpressionCount,
	}, nil
}
