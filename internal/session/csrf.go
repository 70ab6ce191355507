package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/techcorp/gatehouse/internal/models"
)

const csrfTokenBytes = 32 // 256-bit entropy minimum

// CSRFManager issues and validates the anti-forgery token bound to a
// session. The token guards state-changing requests independently of the
// session identifier and rotates on its own, shorter lifetime.
type CSRFManager struct {
	sessions *Manager
	ttl      time.Duration
	now      func() time.Time
}

// NewCSRFManager creates a CSRF token manager. ttl defaults to one hour.
func NewCSRFManager(sessions *Manager, ttl time.Duration) *CSRFManager {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &CSRFManager{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewCSRFToken returns a 256-bit random hex token.
func NewCSRFToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IssueOrRefresh returns the session's CSRF token, minting and persisting a
// fresh one when none exists or the current one has outlived its lifetime.
// A still-valid token is returned unchanged.
func (m *CSRFManager) IssueOrRefresh(ctx context.Context, sess *models.Session) (string, error) {
	now := m.now()
	if sess.CSRFToken != "" && now.Sub(sess.CSRFIssuedAt) <= m.ttl {
		return sess.CSRFToken, nil
	}

	token, err := NewCSRFToken()
	if err != nil {
		return "", err
	}

	sess.CSRFToken = token
	sess.CSRFIssuedAt = now
	if err := m.sessions.Save(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Verify compares a submitted token against the session's token in constant
// time. An absent or expired token never verifies.
func (m *CSRFManager) Verify(sess *models.Session, submitted string) bool {
	if sess.CSRFToken == "" || submitted == "" {
		return false
	}
	if m.now().Sub(sess.CSRFIssuedAt) > m.ttl {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(submitted)) == 1
}
