package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// FacebookPublisher posts to the first Page the user manages. Personal
// profiles cannot be posted to via the Graph API, so no pages means no post.
// Page-scoped tokens returned by /me/accounts are used for all page calls.
type FacebookPublisher struct {
	BaseURL string
	client  *http.Client
}

func NewFacebookPublisher(timeout time.Duration) *FacebookPublisher {
	return &FacebookPublisher{BaseURL: "https://graph.facebook.com/v19.0", client: newHTTPClient(timeout)}
}

func (f *FacebookPublisher) Platform() model.Platform { return model.PlatformFacebook }

type fbPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

func (f *FacebookPublisher) listPages(ctx context.Context, accessToken string) ([]fbPage, int, []byte, error) {
	u := fmt.Sprintf("%s/me/accounts?access_token=%s", f.BaseURL, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, body, nil
	}
	var out struct {
		Data []fbPage `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, resp.StatusCode, body, fmt.Errorf("pages unmarshal: %w", err)
	}
	return out.Data, resp.StatusCode, body, nil
}

// uploadUnpublishedPhoto stages an image on the page without publishing it,
// returning the media id to attach to the feed post.
func (f *FacebookPublisher) uploadUnpublishedPhoto(ctx context.Context, pageID, pageToken, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("published", "false")
	form.Set("access_token", pageToken)
	u := fmt.Sprintf("%s/%s/photos", f.BaseURL, url.PathEscape(pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo upload request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo upload failed (%d): %s", resp.StatusCode, string(body))
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", fmt.Errorf("photo upload response missing id: %s", string(body))
	}
	return out.ID, nil
}

func (f *FacebookPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	pages, status, body, err := f.listPages(ctx, in.AccessToken)
	if err != nil {
		return failure(f.Platform(), fmt.Sprintf("facebook pages lookup failed: %v", err))
	}
	if status == http.StatusUnauthorized || (status == http.StatusBadRequest && strings.Contains(string(body), `"code":190`)) {
		return failureReconnect(f.Platform(), fmt.Sprintf("facebook token rejected: %s", string(body)))
	}
	if status != http.StatusOK {
		return failure(f.Platform(), fmt.Sprintf("facebook pages lookup failed (%d): %s", status, string(body)))
	}
	if len(pages) == 0 {
		return failure(f.Platform(), "no Facebook pages found for this account; posting requires a managed Page")
	}
	page := pages[0]

	form := url.Values{}
	form.Set("message", in.Content)
	form.Set("access_token", page.AccessToken)
	if in.ImageURL != "" {
		// A failed image upload never blocks the post; fall back to text-only.
		mediaID, upErr := f.uploadUnpublishedPhoto(ctx, page.ID, page.AccessToken, in.ImageURL)
		if upErr != nil {
			logger.GetLogger().WithField("error", upErr.Error()).Warn("facebook image upload failed, posting text-only")
		} else {
			form.Set("attached_media[0]", fmt.Sprintf(`{"media_fbid":"%s"}`, mediaID))
		}
	}

	postURL := fmt.Sprintf("%s/%s/feed", f.BaseURL, url.PathEscape(page.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(f.Platform(), err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := f.client.Do(req)
	if err != nil {
		return failure(f.Platform(), fmt.Sprintf("facebook post request failed: %v", err))
	}
	respBody := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return failure(f.Platform(), fmt.Sprintf("facebook post failed (%d): %s", resp.StatusCode, string(respBody)))
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil || out.ID == "" {
		return failure(f.Platform(), fmt.Sprintf("facebook response missing post id: %s", string(respBody)))
	}
	return success(f.Platform(), out.ID, "https://www.facebook.com/"+out.ID, fmt.Sprintf("Posted to Facebook page %q", page.Name))
}

type fbInsightParams struct {
	Metric      string `url:"metric"`
	AccessToken string `url:"access_token"`
}

func (f *FacebookPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	metrics := &model.EngagementMetrics{}

	u := fmt.Sprintf("%s/%s?fields=likes.summary(true),comments.summary(true),shares&access_token=%s",
		f.BaseURL, url.PathEscape(nativePostID), url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook post fields request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook post fields failed (%d): %s", resp.StatusCode, string(body))
	}
	var fields struct {
		Likes struct {
			Summary struct {
				TotalCount int `json:"total_count"`
			} `json:"summary"`
		} `json:"likes"`
		Comments struct {
			Summary struct {
				TotalCount int `json:"total_count"`
			} `json:"summary"`
		} `json:"comments"`
		Shares struct {
			Count int `json:"count"`
		} `json:"shares"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("facebook post fields unmarshal: %w", err)
	}
	metrics.Likes = fields.Likes.Summary.TotalCount
	metrics.Comments = fields.Comments.Summary.TotalCount
	metrics.Shares = fields.Shares.Count

	params, _ := query.Values(fbInsightParams{
		Metric:      "post_impressions,post_impressions_unique,post_clicks",
		AccessToken: accessToken,
	})
	insightURL := fmt.Sprintf("%s/%s/insights?%s", f.BaseURL, url.PathEscape(nativePostID), params.Encode())
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, insightURL, nil)
	if err != nil {
		return metrics, nil
	}
	resp, err = f.client.Do(req)
	if err != nil {
		// Insights need page-level permissions some tokens lack; the summary
		// counts above are still valid.
		logger.GetLogger().WithField("error", err.Error()).Warn("facebook insights unavailable")
		return metrics, nil
	}
	body = readBody(resp)
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("status", resp.StatusCode).Warn("facebook insights unavailable")
		return metrics, nil
	}
	var insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &insights); err != nil {
		return metrics, nil
	}
	for _, d := range insights.Data {
		if len(d.Values) == 0 {
			continue
		}
		switch d.Name {
		case "post_impressions":
			metrics.Impressions = d.Values[0].Value
		case "post_impressions_unique":
			metrics.Reach = d.Values[0].Value
		case "post_clicks":
			metrics.Clicks = d.Values[0].Value
		}
	}
	return metrics, nil
}
