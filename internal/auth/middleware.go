package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/session"
	pkghttp "github.com/techcorp/gatehouse/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession validates the session cookie and injects the resolved
// session into the request context. Used by the CMS content endpoints; the
// auth endpoint itself handles sessions explicitly.
func RequireSession(sessions *session.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Validate(r.Context(), GetSessionCookie(r))
			if err != nil {
				switch {
				case errors.Is(err, models.ErrNoSession):
					pkghttp.WriteUnauthorized(w, "Authentication required")
				case errors.Is(err, models.ErrSessionExpired):
					pkghttp.WriteUnauthorized(w, "Session expired")
				default:
					pkghttp.WriteInternalError(w, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// ContextWithSession returns a context carrying the resolved session.
func ContextWithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session injected by RequireSession, or nil.
func SessionFromContext(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionContextKey).(*models.Session)
	return sess
}
