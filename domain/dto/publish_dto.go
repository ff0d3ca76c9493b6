package dto

import "social-hub/domain/model"

// PublishReq is the inbound publish payload. The singular Platform field is
// kept for older clients that predate multi-platform publishing; it is folded
// into Platforms during normalization.
type PublishReq struct {
	Content   string                          `json:"content"`
	Platform  string                          `json:"platform,omitempty"`
	Platforms []string                        `json:"platforms,omitempty"`
	Image     string                          `json:"image,omitempty"`
	Extras    map[string]model.PlatformExtras `json:"extras,omitempty"`
}

// Normalize folds the legacy singular field into the platform list and
// removes duplicates while preserving order.
func (r *PublishReq) Normalize() []string {
	raw := r.Platforms
	if len(raw) == 0 && r.Platform != "" {
		raw = []string{r.Platform}
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// PublishRes is the happy-path envelope: HTTP-level success even when
// individual platform outcomes failed.
type PublishRes struct {
	Success bool                   `json:"success"`
	Results []model.PublishOutcome `json:"results"`
}

// ConnectionStatus describes one platform's credential state without
// exposing token material.
type ConnectionStatus struct {
	Platform  model.Platform `json:"platform"`
	Connected bool           `json:"connected"`
	ExpiresAt string         `json:"expires_at,omitempty"`
	Scopes    string         `json:"scopes,omitempty"`
}

// ConnectReq stores tokens delivered by the external OAuth handshake.
type ConnectReq struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scopes       string `json:"scopes,omitempty"`
}
