package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"social-hub/domain/model"
)

// PublishEvent represents an SSE payload for per-platform publish outcomes.
type PublishEvent struct {
	Type              string `json:"type"`
	Platform          string `json:"platform"`
	Success           bool   `json:"success"`
	PostID            string `json:"postId,omitempty"`
	URL               string `json:"url,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	NeedsReconnection bool   `json:"needsReconnection,omitempty"`
}

// Hub maintains per-user subscribers listening for publish outcome events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan PublishEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[string]map[chan PublishEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_outcome\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan PublishEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan PublishEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan PublishEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// BroadcastOutcome broadcasts one platform's outcome to all of the user's
// subscribers.
func (h *Hub) BroadcastOutcome(userID string, outcome model.PublishOutcome) {
	evt := PublishEvent{
		Type:              "publish_outcome",
		Platform:          string(outcome.Platform),
		Success:           outcome.Success,
		PostID:            outcome.PostID,
		URL:               outcome.URL,
		Message:           outcome.Message,
		Error:             outcome.Error,
		NeedsReconnection: outcome.NeedsReconnection,
	}
	h.mu.RLock()
	subs := h.users[userID]
	for ch := range subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
