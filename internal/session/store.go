// Package session owns the authenticated-session lifecycle: creation on
// login, validation, periodic identifier rotation, expiry, and destruction.
// It also manages the per-session CSRF token, which shares the session
// record the way the original CMS kept both in one server-side session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/techcorp/gatehouse/internal/models"
)

// Store persists session records keyed by session ID. Operations on a given
// ID are serialized; sessions for different IDs are independent.
type Store interface {
	// Get returns the session or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Put stores the session, replacing any record under the same ID. The
	// record may be dropped by the store once ttl elapses.
	Put(ctx context.Context, s *models.Session, ttl time.Duration) error
	// Delete removes the session. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
	// Rename atomically re-keys the record from oldID to s.ID, so a rotated
	// session is never reachable under both identifiers.
	Rename(ctx context.Context, oldID string, s *models.Session, ttl time.Duration) error
}

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired records are
// reclaimed lazily on access; there is no sweeper.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, models.ErrNotFound
	}

	copied := entry.session
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = &memoryEntry{
		session:   *sess,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Rename(_ context.Context, oldID string, sess *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, oldID)
	s.sessions[sess.ID] = &memoryEntry{
		session:   *sess,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}
