package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// RedditPublisher submits to a subreddit. Text and image posts are mutually
// exclusive kinds (self vs link); an image switches the submission to a link
// post targeting the image URL. Reddit reports some failures inside a JSON
// errors array with HTTP 200, so the body is always inspected.
type RedditPublisher struct {
	BaseURL          string
	UserAgent        string
	DefaultSubreddit string
	client           *http.Client
}

func NewRedditPublisher(timeout time.Duration, userAgent, defaultSubreddit string) *RedditPublisher {
	return &RedditPublisher{
		BaseURL:          "https://oauth.reddit.com",
		UserAgent:        userAgent,
		DefaultSubreddit: defaultSubreddit,
		client:           newHTTPClient(timeout),
	}
}

func (r *RedditPublisher) Platform() model.Platform { return model.PlatformReddit }

type redditSubmitOpts struct {
	APIType   string `url:"api_type"`
	Subreddit string `url:"sr"`
	Title     string `url:"title"`
	Kind      string `url:"kind"`
	Text      string `url:"text,omitempty"`
	URL       string `url:"url,omitempty"`
	FlairText string `url:"flair_text,omitempty"`
}

func (r *RedditPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	subreddit := in.Extras.Subreddit
	if subreddit == "" {
		subreddit = r.DefaultSubreddit
	}
	title := in.Extras.Title
	if title == "" {
		title = truncateAtWord(in.Content, 300)
	}

	opts := redditSubmitOpts{
		APIType:   "json",
		Subreddit: subreddit,
		Title:     title,
		FlairText: in.Extras.Flair,
	}
	if in.ImageURL != "" {
		opts.Kind = "link"
		opts.URL = in.ImageURL
	} else {
		opts.Kind = "self"
		opts.Text = in.Content
	}

	form, err := query.Values(opts)
	if err != nil {
		return failure(r.Platform(), err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return failure(r.Platform(), err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return failure(r.Platform(), fmt.Sprintf("reddit submit request failed: %v", err))
	}
	body := readBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return failureReconnect(r.Platform(), fmt.Sprintf("reddit token rejected: %s", string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(r.Platform(), fmt.Sprintf("reddit submit failed (%d): %s", resp.StatusCode, string(body)))
	}

	var out struct {
		JSON struct {
			Errors [][]string `json:"errors"`
			Data   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return failure(r.Platform(), fmt.Sprintf("reddit response unmarshal failed: %s", string(body)))
	}
	// Reddit can return 200 with application-level errors in the body.
	if len(out.JSON.Errors) > 0 {
		var parts []string
		for _, e := range out.JSON.Errors {
			parts = append(parts, strings.Join(e, ": "))
		}
		return failure(r.Platform(), fmt.Sprintf("reddit rejected the submission: %s", strings.Join(parts, "; ")))
	}
	if out.JSON.Data.ID == "" {
		return failure(r.Platform(), fmt.Sprintf("reddit response missing post id: %s", string(body)))
	}

	postURL := out.JSON.Data.URL
	if postURL == "" {
		postURL = fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s", subreddit, out.JSON.Data.ID)
	}
	return success(r.Platform(), out.JSON.Data.ID, postURL, fmt.Sprintf("Posted to r/%s", subreddit))
}

func (r *RedditPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	fullname := nativePostID
	if !strings.HasPrefix(fullname, "t3_") {
		fullname = "t3_" + fullname
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/info?id="+fullname, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit info request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit info failed (%d): %s", resp.StatusCode, string(body))
	}
	var out struct {
		Data struct {
			Children []struct {
				Data struct {
					Score         int `json:"score"`
					NumComments   int `json:"num_comments"`
					NumCrossposts int `json:"num_crossposts"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("reddit info unmarshal: %w", err)
	}
	if len(out.Data.Children) == 0 {
		return nil, fmt.Errorf("reddit post not found: %s", fullname)
	}
	d := out.Data.Children[0].Data
	return &model.EngagementMetrics{
		Likes:    d.Score,
		Comments: d.NumComments,
		Shares:   d.NumCrossposts,
	}, nil
}
