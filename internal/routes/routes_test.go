package routes_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	internalauth "github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/handlers"
	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/ratelimit"
	"github.com/techcorp/gatehouse/internal/routes"
	"github.com/techcorp/gatehouse/internal/services"
	"github.com/techcorp/gatehouse/internal/session"
	pkghttp "github.com/techcorp/gatehouse/pkg/http"
	pkglogger "github.com/techcorp/gatehouse/pkg/logger"
)

type staticUserStore struct {
	user *models.User
}

func (s *staticUserStore) FindActiveByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, models.ErrNotFound
}

func (s *staticUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, models.ErrNotFound
}

func (s *staticUserStore) TouchLastLogin(context.Context, string) error { return nil }

// newTestRouter wires the full stack over in-memory stores, the way main does
// against Postgres and Redis.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &staticUserStore{user: &models.User{
		ID:           "3f0c2a1e-9d57-4f8b-8af0-27c5f1e6b2d4",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}}

	sessions := session.NewManager(session.NewMemoryStore(), session.DefaultConfig())
	csrf := session.NewCSRFManager(sessions, time.Hour)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore(), ratelimit.DefaultConfig(), logger, audit)
	timing := internalauth.NewTimingDelay(internalauth.TimingConfig{})

	service := services.NewAuthService(users, sessions, csrf, limiter, timing, logger, audit)
	handler := handlers.NewAuthHandler(service, &pkghttp.IPConfig{}, internalauth.CookieConfig{SameSite: "lax"}, 24*time.Hour, time.Hour)

	router := chi.NewRouter()
	routes.RegisterRoutes(router, handler, sessions, csrf, logger)
	return router
}

func login(t *testing.T, router *chi.Mux) (sessionCookie *http.Cookie, csrfToken string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth?action=login",
		strings.NewReader(`{"email":"admin@example.com","password":"correct-password"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	for _, c := range rec.Result().Cookies() {
		if c.Name == internalauth.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	return sessionCookie, body.CSRFToken
}

func TestLoginThenVerifyFlow(t *testing.T) {
	router := newTestRouter(t)

	sessionCookie, csrfToken := login(t, router)
	assert.Len(t, csrfToken, 64)

	req := httptest.NewRequest(http.MethodGet, "/api/auth?action=verify", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, csrfToken, body["csrf_token"])
}

func TestLoginThenLogoutInvalidatesSession(t *testing.T) {
	router := newTestRouter(t)
	sessionCookie, _ := login(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/auth?action=logout", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth?action=verify", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, services.ReasonNoSession, body["reason"])
}

func TestAdminSubtreeRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sessionCookie, _ := login(t, router)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "admin@example.com", body["email"])
	assert.Equal(t, "admin", body["role"])
}

func TestInvalidCredentialsRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth?action=login",
		strings.NewReader(`{"email":"admin@example.com","password":"not-the-password"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
}
