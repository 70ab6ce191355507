package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/services"
	pkghttp "github.com/techcorp/gatehouse/pkg/http"
)

// AuthServiceInterface defines the auth business logic consumed by the
// endpoint.
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.LoginResult, error)
	Logout(ctx context.Context, sessionID, ipAddress string)
	Verify(ctx context.Context, sessionID, ipAddress string) (*services.VerifyResult, error)
}

// AuthHandler serves the action-dispatched auth endpoint the admin dashboard
// talks to: POST ?action=login|logout, GET ?action=verify.
type AuthHandler struct {
	service         AuthServiceInterface
	ipConfig        *pkghttp.IPConfig
	cookieConfig    auth.CookieConfig
	sessionLifetime time.Duration
	csrfTTL         time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig, sessionLifetime, csrfTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:         service,
		ipConfig:        ipConfig,
		cookieConfig:    cookieConfig,
		sessionLifetime: sessionLifetime,
		csrfTTL:         csrfTTL,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServeHTTP dispatches on HTTP method and the action query parameter,
// mirroring the API contract the dashboard was built against.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch r.Method {
	case http.MethodPost:
		switch action {
		case "login":
			h.Login(w, r)
		case "logout":
			h.Logout(w, r)
		case "":
			pkghttp.WriteBadRequest(w, "Action required")
		default:
			pkghttp.WriteNotFound(w, "Action not found")
		}
	case http.MethodGet:
		if action == "verify" {
			h.Verify(w, r)
			return
		}
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteMethodNotAllowed(w, "Method not allowed")
	}
}

// Login handles user login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Email and password required")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrRateLimitExceeded):
			pkghttp.WriteTooManyRequests(w, "Too many login attempts. Please try again later.")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	auth.SetSessionCookie(w, result.Session.ID, h.sessionLifetime, h.cookieConfig)
	auth.SetCSRFCookie(w, result.CSRFToken, h.csrfTTL, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user":       result.User,
		"csrf_token": result.CSRFToken,
	})
}

// Logout destroys the caller's session. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	h.service.Logout(r.Context(), auth.GetSessionCookie(r), ipAddress)
	auth.ClearSessionCookies(w, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SessionInfo returns the subject of the current session. Mounted under the
// protected admin subtree, so auth.RequireSession has already validated the
// session and put it in the request context.
func (h *AuthHandler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": sess.UserID,
		"email":   sess.Email,
		"role":    sess.Role,
	})
}

// Verify reports whether the caller holds a valid session, refreshing the
// session cookie when the identifier was rotated.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Verify(r.Context(), auth.GetSessionCookie(r), ipAddress)
	if err != nil {
		pkghttp.WriteInternalError(w, "Verification failed")
		return
	}

	if !result.Authenticated {
		auth.ClearSessionCookies(w, h.cookieConfig)
		pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"reason":        result.Reason,
		})
		return
	}

	auth.SetSessionCookie(w, result.Session.ID, h.sessionLifetime, h.cookieConfig)
	auth.SetCSRFCookie(w, result.CSRFToken, h.csrfTTL, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          result.User,
		"csrf_token":    result.CSRFToken,
	})
}
