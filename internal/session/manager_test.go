package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcorp/gatehouse/internal/models"
)

type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.current }
func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestManager(clock *fakeClock) *Manager {
	store := NewMemoryStore()
	store.now = clock.Now
	m := NewManager(store, DefaultConfig())
	m.now = clock.Now
	return m
}

func testUser() *models.User {
	return &models.User{
		ID:    "3f0c2a1e-9d57-4f8b-8af0-27c5f1e6b2d4",
		Email: "admin@example.com",
		Role:  "admin",
	}
}

func TestNewSessionID(t *testing.T) {
	id1, err := NewSessionID()
	require.NoError(t, err)
	id2, err := NewSessionID()
	require.NoError(t, err)

	assert.Len(t, id1, 64)
	assert.NotEqual(t, id1, id2)
}

func TestManager_CreateAndValidate(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	user := testUser()
	ctx := context.Background()

	sess, err := m.Create(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
	assert.Equal(t, user.Email, sess.Email)
	assert.Equal(t, user.Role, sess.Role)

	got, err := m.Validate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, user.ID, got.UserID)
}

func TestManager_ValidateEmptyID(t *testing.T) {
	m := newTestManager(newFakeClock())

	_, err := m.Validate(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestManager_ValidateUnknownID(t *testing.T) {
	m := newTestManager(newFakeClock())

	_, err := m.Validate(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestManager_ValidateExpiredDestroysSession(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	store.now = clock.Now
	m := NewManager(store, DefaultConfig())
	m.now = clock.Now
	ctx := context.Background()

	sess, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	// One second short of the lifetime the session still validates.
	clock.Advance(24*time.Hour - time.Second)
	_, err = m.Validate(ctx, sess.ID)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = m.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	// The record is gone, so the next check reports no session at all.
	_, err = m.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestManager_MaybeRotate_WithinInterval(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	ctx := context.Background()

	sess, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	got, err := m.MaybeRotate(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID, "rotation should not trigger at exactly the interval")
}

func TestManager_MaybeRotate_PastInterval(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	user := testUser()
	ctx := context.Background()

	sess, err := m.Create(ctx, user)
	require.NoError(t, err)
	oldID := sess.ID

	clock.Advance(31 * time.Minute)
	rotated, err := m.MaybeRotate(ctx, sess)
	require.NoError(t, err)

	assert.NotEqual(t, oldID, rotated.ID)
	assert.Equal(t, user.ID, rotated.UserID)
	assert.Equal(t, sess.StartedAt, rotated.StartedAt)
	assert.Equal(t, clock.Now(), rotated.LastRotation)

	// The old identifier is dead, the new one resolves.
	_, err = m.Validate(ctx, oldID)
	assert.ErrorIs(t, err, models.ErrNoSession)
	got, err := m.Validate(ctx, rotated.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestManager_RotationPreservesLifetime(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	ctx := context.Background()

	sess, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	// Rotate repeatedly across the day; the absolute lifetime still ends
	// 24 hours after login, not 24 hours after the last rotation.
	for i := 0; i < 46; i++ {
		clock.Advance(31 * time.Minute)
		sess, err = m.MaybeRotate(ctx, sess)
		require.NoError(t, err)
	}

	clock.Advance(24 * time.Hour)
	_, err = m.Validate(ctx, sess.ID)
	assert.Error(t, err)
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(newFakeClock())
	ctx := context.Background()

	sess, err := m.Create(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, sess.ID))
	_, err = m.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrNoSession)

	// Destroy is idempotent, including for the empty identifier.
	assert.NoError(t, m.Destroy(ctx, sess.ID))
	assert.NoError(t, m.Destroy(ctx, ""))
}

func TestMemoryStore_ExpiresRecords(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	store.now = clock.Now
	ctx := context.Background()

	sess := &models.Session{ID: "abc", Email: "a@b.co"}
	require.NoError(t, store.Put(ctx, sess, time.Hour))

	_, err := store.Get(ctx, "abc")
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &models.Session{ID: "abc", Role: "admin"}, time.Hour))

	first, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	first.Role = "mutated"

	second, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "admin", second.Role)
}
