package model

import "time"

// Credential stores one user's OAuth grant for one platform.
// At most one active row exists per (user_id, platform).
type Credential struct {
	ID           int64      `json:"id"            gorm:"primaryKey"`
	UserID       string     `json:"user_id"       gorm:"index:idx_user_platform,unique"`
	Platform     Platform   `json:"platform"      gorm:"index:idx_user_platform,unique"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`
	CreatedAt    time.Time  `json:"created_at"    gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at"    gorm:"autoUpdateTime"`
}

// Stale reports whether the access token expires within the given window.
// Credentials without an expiry are treated as non-expiring.
func (c *Credential) Stale(now time.Time, window time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Sub(now) < window
}
