package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// InstagramPublisher publishes through the Graph API container flow: an
// image is mandatory, the business account is resolved via the linked
// Facebook page, and a media container must be created before it can be
// published.
type InstagramPublisher struct {
	BaseURL string
	client  *http.Client
}

func NewInstagramPublisher(timeout time.Duration) *InstagramPublisher {
	return &InstagramPublisher{BaseURL: "https://graph.facebook.com/v19.0", client: newHTTPClient(timeout)}
}

func (i *InstagramPublisher) Platform() model.Platform { return model.PlatformInstagram }

func (i *InstagramPublisher) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, readBody(resp), nil
}

func (i *InstagramPublisher) postForm(ctx context.Context, u string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := i.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, readBody(resp), nil
}

// resolveBusinessAccount walks user pages looking for a linked Instagram
// business account.
func (i *InstagramPublisher) resolveBusinessAccount(ctx context.Context, accessToken string) (string, error) {
	status, body, err := i.get(ctx, fmt.Sprintf("%s/me/accounts?access_token=%s", i.BaseURL, url.QueryEscape(accessToken)))
	if err != nil {
		return "", fmt.Errorf("facebook pages lookup failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("facebook pages lookup failed (%d): %s", status, string(body))
	}
	var pages struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &pages); err != nil {
		return "", fmt.Errorf("pages unmarshal: %w", err)
	}
	if len(pages.Data) == 0 {
		return "", fmt.Errorf("no Facebook pages found; Instagram publishing requires a business account linked to a Page")
	}

	for _, p := range pages.Data {
		status, body, err := i.get(ctx, fmt.Sprintf("%s/%s?fields=instagram_business_account&access_token=%s",
			i.BaseURL, url.PathEscape(p.ID), url.QueryEscape(accessToken)))
		if err != nil || status != http.StatusOK {
			continue
		}
		var out struct {
			InstagramBusinessAccount struct {
				ID string `json:"id"`
			} `json:"instagram_business_account"`
		}
		if json.Unmarshal(body, &out) == nil && out.InstagramBusinessAccount.ID != "" {
			return out.InstagramBusinessAccount.ID, nil
		}
	}
	return "", fmt.Errorf("no Instagram business account is linked to any of the user's Facebook pages")
}

func (i *InstagramPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	if in.ImageURL == "" {
		// Hard precondition; checked before any network call.
		return failure(i.Platform(), "Instagram publishing requires an image")
	}

	igID, err := i.resolveBusinessAccount(ctx, in.AccessToken)
	if err != nil {
		return failure(i.Platform(), err.Error())
	}

	form := url.Values{}
	form.Set("image_url", in.ImageURL)
	form.Set("caption", in.Content)
	form.Set("access_token", in.AccessToken)
	status, body, err := i.postForm(ctx, fmt.Sprintf("%s/%s/media", i.BaseURL, url.PathEscape(igID)), form)
	if err != nil {
		return failure(i.Platform(), fmt.Sprintf("instagram container creation failed: %v", err))
	}
	if status != http.StatusOK {
		return failure(i.Platform(), fmt.Sprintf("instagram container creation failed (%d): %s", status, string(body)))
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &container); err != nil || container.ID == "" {
		return failure(i.Platform(), fmt.Sprintf("instagram container response missing id: %s", string(body)))
	}

	pubForm := url.Values{}
	pubForm.Set("creation_id", container.ID)
	pubForm.Set("access_token", in.AccessToken)
	status, body, err = i.postForm(ctx, fmt.Sprintf("%s/%s/media_publish", i.BaseURL, url.PathEscape(igID)), pubForm)
	if err != nil {
		return failure(i.Platform(), fmt.Sprintf("instagram publish failed: %v", err))
	}
	if status != http.StatusOK {
		return failure(i.Platform(), fmt.Sprintf("instagram publish failed (%d): %s", status, string(body)))
	}
	var published struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &published); err != nil || published.ID == "" {
		return failure(i.Platform(), fmt.Sprintf("instagram publish response missing id: %s", string(body)))
	}

	permalink := "https://www.instagram.com/"
	if status, body, err := i.get(ctx, fmt.Sprintf("%s/%s?fields=permalink&access_token=%s",
		i.BaseURL, url.PathEscape(published.ID), url.QueryEscape(in.AccessToken))); err == nil && status == http.StatusOK {
		var link struct {
			Permalink string `json:"permalink"`
		}
		if json.Unmarshal(body, &link) == nil && link.Permalink != "" {
			permalink = link.Permalink
		}
	}
	return success(i.Platform(), published.ID, permalink, "Posted to Instagram")
}

func (i *InstagramPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	metrics := &model.EngagementMetrics{}

	status, body, err := i.get(ctx, fmt.Sprintf("%s/%s?fields=like_count,comments_count&access_token=%s",
		i.BaseURL, url.PathEscape(nativePostID), url.QueryEscape(accessToken)))
	if err != nil {
		return nil, fmt.Errorf("instagram media fields request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("instagram media fields failed (%d): %s", status, string(body))
	}
	var fields struct {
		LikeCount     int `json:"like_count"`
		CommentsCount int `json:"comments_count"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("instagram media fields unmarshal: %w", err)
	}
	metrics.Likes = fields.LikeCount
	metrics.Comments = fields.CommentsCount

	status, body, err = i.get(ctx, fmt.Sprintf("%s/%s/insights?metric=impressions,reach,saved&access_token=%s",
		i.BaseURL, url.PathEscape(nativePostID), url.QueryEscape(accessToken)))
	if err != nil || status != http.StatusOK {
		// Media fields alone are a valid (partial) read.
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
		case "impressions":
			metrics.Impressions = d.Values[0].Value
			metrics.Views = d.Values[0].Value
		case "reach":
			metrics.Reach = d.Values[0].Value
		case "saved":
			metrics.Saves = d.Values[0].Value
		}
	}
	return metrics, nil
}
