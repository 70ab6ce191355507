package models

import "time"

// Session represents one authenticated browser context. The client holds only
// the opaque ID; all other state lives server-side in the session store.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	StartedAt    time.Time `json:"started_at"`
	LastRotation time.Time `json:"last_rotation"`

	// CSRF token bound to this session. Rotated independently of the
	// session ID on its own (shorter) lifetime.
	CSRFToken    string    `json:"csrf_token,omitempty"`
	CSRFIssuedAt time.Time `json:"csrf_issued_at,omitempty"`
}

// Age returns how long the session has existed.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// SinceRotation returns how long ago the session ID was last regenerated.
func (s *Session) SinceRotation(now time.Time) time.Duration {
	return now.Sub(s.LastRotation)
}
