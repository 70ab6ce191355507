package middleware

import (
	"log/slog"
	"net/http"

	"github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/session"
	pkghttp "github.com/techcorp/gatehouse/pkg/http"
)

// CSRFProtection validates the X-CSRF-Token header on state-changing
// requests. It must run after auth.RequireSession so the session is already
// in the request context; the token is compared against the session's own
// token, in constant time.
func CSRFProtection(csrf *session.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sess := auth.SessionFromContext(r.Context())
			if sess == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				logger.Warn("csrf token missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("user_id", sess.UserID))
				pkghttp.WriteForbidden(w, "CSRF token missing")
				return
			}

			if !csrf.Verify(sess, token) {
				logger.Warn("csrf token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("user_id", sess.UserID))
				pkghttp.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
