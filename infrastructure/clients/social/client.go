package social

import (
	"io"
	"net/http"
	"time"

	"social-hub/domain/model"
)

// newHTTPClient builds the bounded-timeout client every publisher shares.
// Platform APIs are external and can hang; no call goes out without a limit.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func readBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body
}

func success(p model.Platform, postID, url, message string) *model.PublishOutcome {
	return &model.PublishOutcome{Platform: p, Success: true, PostID: postID, URL: url, Message: message}
}

func failure(p model.Platform, errMsg string) *model.PublishOutcome {
	return &model.PublishOutcome{Platform: p, Success: false, Error: errMsg}
}

// failureReconnect marks failures that only a fresh user authorization can fix.
func failureReconnect(p model.Platform, errMsg string) *model.PublishOutcome {
	return &model.PublishOutcome{Platform: p, Success: false, Error: errMsg, NeedsReconnection: true}
}

// truncateAtWord shortens s to at most limit characters, breaking on the last
// whitespace when one exists.
func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for i := limit - 1; i > 0; i-- {
		if cut[i] == ' ' || cut[i] == '\n' || cut[i] == '\t' {
			return cut[:i]
		}
	}
	return cut
}
