package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// LinkedInPublisher posts member shares. Identity resolution and the post
// call itself are both ordered fallback chains: userinfo then lite profile,
// UGC Posts then the newer Posts API on 422. Each failed attempt is recorded
// so the final error names what was tried.
type LinkedInPublisher struct {
	BaseURL string
	client  *http.Client
}

func NewLinkedInPublisher(timeout time.Duration) *LinkedInPublisher {
	return &LinkedInPublisher{BaseURL: "https://api.linkedin.com", client: newHTTPClient(timeout)}
}

func (l *LinkedInPublisher) Platform() model.Platform { return model.PlatformLinkedIn }

// resolveAuthorURN finds the person URN to post as. OpenID Connect userinfo
// is preferred; the legacy lite-profile endpoint covers apps without the
// openid product enabled.
func (l *LinkedInPublisher) resolveAuthorURN(ctx context.Context, accessToken string) (string, error) {
	var attempts []string

	status, body, err := l.getJSON(ctx, l.BaseURL+"/v2/userinfo", accessToken)
	if err == nil && status == http.StatusOK {
		var info struct {
			Sub string `json:"sub"`
		}
		if json.Unmarshal(body, &info) == nil && info.Sub != "" {
			return "urn:li:person:" + info.Sub, nil
		}
		attempts = append(attempts, fmt.Sprintf("userinfo: unparseable response %s", string(body)))
	} else if err != nil {
		attempts = append(attempts, fmt.Sprintf("userinfo: %v", err))
	} else {
		attempts = append(attempts, fmt.Sprintf("userinfo: status %d %s", status, string(body)))
	}

	status, body, err = l.getJSON(ctx, l.BaseURL+"/v2/me", accessToken)
	if err == nil && status == http.StatusOK {
		var me struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &me) == nil && me.ID != "" {
			return "urn:li:person:" + me.ID, nil
		}
		attempts = append(attempts, fmt.Sprintf("lite profile: unparseable response %s", string(body)))
	} else if err != nil {
		attempts = append(attempts, fmt.Sprintf("lite profile: %v", err))
	} else {
		attempts = append(attempts, fmt.Sprintf("lite profile: status %d %s", status, string(body)))
	}

	return "", fmt.Errorf("unable to resolve LinkedIn posting identity; verify the app has the openid or r_liteprofile scope (attempts: %s)", strings.Join(attempts, "; "))
}

func (l *LinkedInPublisher) getJSON(ctx context.Context, url, accessToken string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, readBody(resp), nil
}

// registerAndUploadImage performs LinkedIn's two-step asset flow: register an
// upload to get an asset URN plus upload URL, then PUT the image bytes.
func (l *LinkedInPublisher) registerAndUploadImage(ctx context.Context, accessToken, authorURN, imageURL string) (string, error) {
	payload := map[string]interface{}{
		"registerUploadRequest": map[string]interface{}{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   authorURN,
			"serviceRelationships": []map[string]string{
				{"relationshipType": "OWNER", "identifier": "urn:li:userGeneratedContent"},
			},
		},
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+"/v2/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("registerUpload request failed: %w", err)
	}
	respBody := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("registerUpload failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var reg struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.Unmarshal(respBody, &reg); err != nil {
		return "", fmt.Errorf("registerUpload unmarshal: %w", err)
	}
	var uploadURL string
	for _, m := range reg.Value.UploadMechanism {
		if m.UploadURL != "" {
			uploadURL = m.UploadURL
		}
	}
	if uploadURL == "" || reg.Value.Asset == "" {
		return "", fmt.Errorf("registerUpload response missing upload target: %s", string(respBody))
	}

	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	imgResp, err := l.client.Do(imgReq)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	imgData, err := io.ReadAll(imgResp.Body)
	imgResp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("image read failed: %w", err)
	}
	if imgResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download failed (%d)", imgResp.StatusCode)
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(imgData))
	if err != nil {
		return "", err
	}
	putReq.Header.Set("Authorization", "Bearer "+accessToken)
	putResp, err := l.client.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("asset upload failed: %w", err)
	}
	readBody(putResp)
	if putResp.StatusCode < 200 || putResp.StatusCode > 299 {
		return "", fmt.Errorf("asset upload failed (%d)", putResp.StatusCode)
	}
	return reg.Value.Asset, nil
}

func (l *LinkedInPublisher) Publish(ctx context.Context, in repository.PublishInput) *model.PublishOutcome {
	authorURN, err := l.resolveAuthorURN(ctx, in.AccessToken)
	if err != nil {
		return failure(l.Platform(), err.Error())
	}

	asset := ""
	if in.ImageURL != "" {
		asset, err = l.registerAndUploadImage(ctx, in.AccessToken, authorURN, in.ImageURL)
		if err != nil {
			return failure(l.Platform(), fmt.Sprintf("linkedin image upload failed: %v", err))
		}
	}

	mediaCategory := "NONE"
	media := []map[string]interface{}{}
	if asset != "" {
		mediaCategory = "IMAGE"
		media = append(media, map[string]interface{}{"status": "READY", "media": asset})
	}
	ugcBody := map[string]interface{}{
		"author":         authorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": in.Content},
				"shareMediaCategory": mediaCategory,
				"media":              media,
			},
		},
		"visibility": map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	status, postID, body, err := l.postShare(ctx, l.BaseURL+"/v2/ugcPosts", in.AccessToken, ugcBody)
	if err != nil {
		return failure(l.Platform(), fmt.Sprintf("linkedin post request failed: %v", err))
	}
	usedPostsFallback := false
	if status == http.StatusUnprocessableEntity {
		// Newer apps reject the UGC shape; retry once with the Posts API.
		usedPostsFallback = true
		postsBody := map[string]interface{}{
			"author":         authorURN,
			"commentary":     in.Content,
			"visibility":     "PUBLIC",
			"distribution":   map[string]interface{}{"feedDistribution": "MAIN_FEED"},
			"lifecycleState": "PUBLISHED",
		}
		status, postID, body, err = l.postShare(ctx, l.BaseURL+"/v2/posts", in.AccessToken, postsBody)
		if err != nil {
			return failure(l.Platform(), fmt.Sprintf("linkedin posts api request failed: %v", err))
		}
	}

	switch {
	case status >= 200 && status <= 299:
		if postID == "" {
			return failure(l.Platform(), fmt.Sprintf("linkedin response missing post id: %s", string(body)))
		}
		msg := "Posted to LinkedIn"
		if usedPostsFallback && asset != "" {
			// The commentary-only retry cannot reference the uploaded asset.
			msg += " (image skipped: the Posts API fallback carries text only)"
		}
		return success(l.Platform(), postID, "https://www.linkedin.com/feed/update/"+postID, msg)
	case status == http.StatusUnauthorized:
		return failureReconnect(l.Platform(), fmt.Sprintf("linkedin token expired: %s", string(body)))
	case status == http.StatusForbidden:
		return failure(l.Platform(), fmt.Sprintf("linkedin permission denied; the app needs the w_member_social scope: %s", string(body)))
	case status == http.StatusUnprocessableEntity:
		return failure(l.Platform(), fmt.Sprintf("linkedin rejected the post payload: %s", string(body)))
	default:
		return failure(l.Platform(), fmt.Sprintf("linkedin post failed (%d): %s", status, string(body)))
	}
}

// postShare sends one share payload and extracts the created post id from
// the body or the X-RestLi-Id header.
func (l *LinkedInPublisher) postShare(ctx context.Context, url, accessToken string, payload map[string]interface{}) (int, string, []byte, error) {
	data, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	body := readBody(resp)

	postID := resp.Header.Get("X-RestLi-Id")
	if postID == "" {
		var out struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &out) == nil {
			postID = out.ID
		}
	}
	return resp.StatusCode, postID, body, nil
}

func (l *LinkedInPublisher) GetEngagement(ctx context.Context, accessToken, nativePostID string) (*model.EngagementMetrics, error) {
	status, body, err := l.getJSON(ctx, l.BaseURL+"/v2/socialActions/"+nativePostID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("linkedin social actions request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("linkedin social actions failed (%d): %s", status, string(body))
	}
	var out struct {
		LikesSummary struct {
			TotalLikes int `json:"totalLikes"`
		} `json:"likesSummary"`
		CommentsSummary struct {
			TotalFirstLevelComments int `json:"totalFirstLevelComments"`
		} `json:"commentsSummary"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("linkedin social actions unmarshal: %w", err)
	}
	return &model.EngagementMetrics{
		Likes:    out.LikesSummary.TotalLikes,
		Comments: out.CommentsSummary.TotalFirstLevelComments,
	}, nil
}
