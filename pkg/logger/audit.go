package logger

import (
	"context"
	"log/slog"
	"time"
)

// Security event names emitted by the auth core.
const (
	EventLoginSuccess      = "user_login"
	EventLoginFailed       = "failed_login_attempt"
	EventLogout            = "user_logout"
	EventInvalidSession    = "invalid_session"
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// SecurityEvent carries the caller identity and outcome of a
// security-relevant action.
type SecurityEvent struct {
	Event     string
	UserID    string
	IPAddress string
	UserAgent string
	Success   bool
	Details   map[string]string
}

// AuditLogger records security events. Recording is fire-and-forget: it
// never returns an error and never blocks the response path.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// Record logs a security event with caller identity and timestamp.
func (al *AuditLogger) Record(event SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", event.Event),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	for key, val := range event.Details {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
