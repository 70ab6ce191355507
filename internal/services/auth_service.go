package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/ratelimit"
	"github.com/techcorp/gatehouse/internal/session"
	pkgauth "github.com/techcorp/gatehouse/pkg/auth"
	pkglogger "github.com/techcorp/gatehouse/pkg/logger"
	"github.com/techcorp/gatehouse/pkg/sanitize"
)

// LoginAction is the rate-limit action key for login attempts.
const LoginAction = "login"

// CredentialStore is the external user store consulted by the auth core.
type CredentialStore interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// AuthService composes the sanitizer, rate limiter, credential validator,
// session manager and CSRF manager into the login/logout/verify operations.
type AuthService struct {
	users    CredentialStore
	sessions *session.Manager
	csrf     *session.CSRFManager
	limiter  *ratelimit.Limiter
	timing   *auth.TimingDelay
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users CredentialStore,
	sessions *session.Manager,
	csrf *session.CSRFManager,
	limiter *ratelimit.Limiter,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		csrf:     csrf,
		limiter:  limiter,
		timing:   timing,
		logger:   logger,
		audit:    audit,
	}
}

// UserResponse is the subject's public profile in HTTP responses.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// LoginResult carries everything the handler needs to assemble a successful
// login response.
type LoginResult struct {
	User      *UserResponse
	CSRFToken string
	Session   *models.Session
}

// VerifyResult is the outcome of a session verification.
type VerifyResult struct {
	Authenticated bool
	Reason        string // set when Authenticated is false
	User          *UserResponse
	CSRFToken     string
	Session       *models.Session // possibly rotated; handler refreshes the cookie
}

// Login authenticates a user and establishes a session.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*LoginResult, error) {
	allowed, err := s.limiter.Allow(ctx, LoginAction, ipAddress)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	if !allowed {
		return nil, models.ErrRateLimitExceeded
	}

	email, err = pkgauth.ValidateEmail(sanitize.Clean(email))
	if err != nil {
		return nil, badRequest(err)
	}
	if err := pkgauth.ValidatePasswordPolicy(password); err != nil {
		return nil, badRequest(err)
	}

	// From here on, every failure takes the same randomized time and
	// produces the same response, whether the email is unknown or the
	// password is wrong.
	start := time.Now()

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("credential store lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user == nil || pkgauth.ComparePassword(user.PasswordHash, password) != nil {
		s.timing.WaitFrom(start)
		s.audit.Record(pkglogger.SecurityEvent{
			Event:     pkglogger.EventLoginFailed,
			IPAddress: ipAddress,
			UserAgent: userAgent,
			Success:   false,
			Details: map[string]string{
				"email": pkglogger.SanitizedEmail(email),
			},
		})
		return nil, models.ErrUnauthorized
	}

	sess, err := s.sessions.Create(ctx, user)
	if err != nil {
		s.logger.Error("failed to create session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	csrfToken, err := s.csrf.IssueOrRefresh(ctx, sess)
	if err != nil {
		s.logger.Error("failed to issue csrf token", slog.String("user_id", user.ID), slog.Any("error", err))
		_ = s.sessions.Destroy(ctx, sess.ID)
		return nil, models.ErrInternalServer
	}

	s.audit.Record(pkglogger.SecurityEvent{
		Event:     pkglogger.EventLoginSuccess,
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	// A failed last-login update must not undo a successful login.
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return &LoginResult{
		User:      userModelToResponse(user),
		CSRFToken: csrfToken,
		Session:   sess,
	}, nil
}

// Logout destroys the session and its CSRF token. It always succeeds;
// logging out an absent or expired session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID, ipAddress string) {
	if sessionID == "" {
		return
	}

	if sess, err := s.sessions.Validate(ctx, sessionID); err == nil {
		s.audit.Record(pkglogger.SecurityEvent{
			Event:     pkglogger.EventLogout,
			UserID:    sess.UserID,
			IPAddress: ipAddress,
			Success:   true,
		})
	}

	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		s.logger.Warn("failed to destroy session on logout", slog.Any("error", err))
	}
}

// Verify reasons reported to the client when a session does not hold up.
const (
	ReasonNoSession      = "no_session"
	ReasonSessionExpired = "session_expired"
	ReasonUserNotFound   = "user_not_found"
)

// Verify validates the caller's session, rotating the identifier and
// refreshing the CSRF token opportunistically on success.
func (s *AuthService) Verify(ctx context.Context, sessionID, ipAddress string) (*VerifyResult, error) {
	sess, err := s.sessions.Validate(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoSession):
			return &VerifyResult{Reason: ReasonNoSession}, nil
		case errors.Is(err, models.ErrSessionExpired):
			return &VerifyResult{Reason: ReasonSessionExpired}, nil
		default:
			s.logger.Error("session validation failed", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Subject deleted or deactivated since login: the session must
			// not outlive it.
			if derr := s.sessions.Destroy(ctx, sess.ID); derr != nil {
				s.logger.Warn("failed to destroy orphaned session", slog.Any("error", derr))
			}
			s.audit.Record(pkglogger.SecurityEvent{
				Event:     pkglogger.EventInvalidSession,
				UserID:    sess.UserID,
				IPAddress: ipAddress,
				Success:   false,
			})
			return &VerifyResult{Reason: ReasonUserNotFound}, nil
		}
		s.logger.Error("credential store lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sess, err = s.sessions.MaybeRotate(ctx, sess)
	if err != nil {
		s.logger.Error("session rotation failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	csrfToken, err := s.csrf.IssueOrRefresh(ctx, sess)
	if err != nil {
		s.logger.Error("failed to refresh csrf token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &VerifyResult{
		Authenticated: true,
		User:          userModelToResponse(user),
		CSRFToken:     csrfToken,
		Session:       sess,
	}, nil
}

// badRequest wraps a validation failure so the handler can surface the
// field-level message with a 400 status.
func badRequest(err error) error {
	return &models.ValidationError{Message: err.Error()}
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
