package models

import (
	"time"
)

// Session is the locally persisted login state: token set plus the user
// attributes returned by the identity service. Written at login, loaded at
// startup to decide routing, cleared at logout or on expiry detection.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Nickname     string    `json:"nickname"`
	Role         string    `json:"role,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	IDToken      string    `json:"idToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the session's access token is past its expiry.
// A zero ExpiresAt means no expiry was recorded and the session stays valid.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
