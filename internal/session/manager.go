package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/techcorp/gatehouse/internal/models"
)

const sessionIDBytes = 32 // 256-bit identifiers

// Config holds session lifecycle parameters.
type Config struct {
	// Lifetime is the absolute session lifetime from login; validation past
	// this point destroys the session regardless of activity.
	Lifetime time.Duration
	// RotationInterval is how long a session ID may live before the next
	// validation issues a fresh one (session-fixation defense).
	RotationInterval time.Duration
}

// DefaultConfig returns the CMS session policy.
func DefaultConfig() Config {
	return Config{
		Lifetime:         24 * time.Hour,
		RotationInterval: 30 * time.Minute,
	}
}

// Manager owns session lifecycle against a Store.
type Manager struct {
	store  Store
	config Config
	now    func() time.Time
}

// NewManager creates a session manager.
func NewManager(store Store, config Config) *Manager {
	if config.Lifetime <= 0 {
		config.Lifetime = DefaultConfig().Lifetime
	}
	if config.RotationInterval <= 0 {
		config.RotationInterval = DefaultConfig().RotationInterval
	}
	return &Manager{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// NewSessionID returns a 256-bit random hex identifier.
func NewSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create establishes a new session for an authenticated subject. Callers
// invoke this only after credential verification succeeds.
func (m *Manager) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &models.Session{
		ID:           id,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		StartedAt:    now,
		LastRotation: now,
	}

	if err := m.store.Put(ctx, sess, m.config.Lifetime); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate resolves a session identifier. It returns models.ErrNoSession
// when the identifier is unknown, and models.ErrSessionExpired after
// destroying the record when the session has outlived its lifetime, so no
// stale session survives a failed check.
func (m *Manager) Validate(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, models.ErrNoSession
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoSession
		}
		return nil, err
	}

	if sess.Age(m.now()) >= m.config.Lifetime {
		if err := m.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, models.ErrSessionExpired
	}

	return sess, nil
}

// MaybeRotate issues a new identifier for the same subject when the current
// one is older than the rotation interval. The logical session is unchanged;
// only the identifier (and LastRotation) move.
func (m *Manager) MaybeRotate(ctx context.Context, sess *models.Session) (*models.Session, error) {
	now := m.now()
	if sess.SinceRotation(now) <= m.config.RotationInterval {
		return sess, nil
	}

	newID, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	rotated := *sess
	rotated.ID = newID
	rotated.LastRotation = now

	if err := m.store.Rename(ctx, sess.ID, &rotated, m.remaining(&rotated)); err != nil {
		return nil, err
	}
	return &rotated, nil
}

// Destroy removes all session state. Destroying an absent session is a no-op.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// Save persists an updated session record under its current ID.
func (m *Manager) Save(ctx context.Context, sess *models.Session) error {
	return m.store.Put(ctx, sess, m.remaining(sess))
}

// remaining returns the time the record may still live in the store.
func (m *Manager) remaining(sess *models.Session) time.Duration {
	left := m.config.Lifetime - sess.Age(m.now())
	if left < 0 {
		left = 0
	}
	return left
}
