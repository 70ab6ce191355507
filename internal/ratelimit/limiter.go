// Package ratelimit implements fixed-window attempt throttling keyed by
// (action, caller identity). The read-modify-write on a counter is atomic
// inside the store so two parallel requests cannot both slip through at the
// boundary count.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	pkglogger "github.com/techcorp/gatehouse/pkg/logger"
)

// CounterStore persists one attempt counter per composite key.
type CounterStore interface {
	// Bump atomically advances the counter for key. A counter whose window
	// started more than window ago restarts at 1. When the count has
	// already reached max, Bump reports allowed=false without incrementing,
	// so the rejected request does not extend the caller's window.
	Bump(ctx context.Context, key string, max int, window time.Duration) (count int, allowed bool, err error)
}

// Config holds the throttling policy. Defaults follow the login endpoint's
// 5-attempts-per-15-minutes budget; both knobs are tunable per deployment.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig returns the login throttling policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

// Limiter gates actions per caller identity.
type Limiter struct {
	store  CounterStore
	config Config
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewLimiter creates a Limiter over the given counter store.
func NewLimiter(store CounterStore, config Config, logger *slog.Logger, audit *pkglogger.AuditLogger) *Limiter {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	return &Limiter{
		store:  store,
		config: config,
		logger: logger,
		audit:  audit,
	}
}

// Key builds the deterministic composite key for an (action, caller) pair.
func Key(action, callerID string) string {
	return action + "|" + callerID
}

// Allow consumes one attempt for (action, callerID). It returns false once
// the caller has exhausted the window's budget; the rejection itself is not
// charged against the budget.
func (l *Limiter) Allow(ctx context.Context, action, callerID string) (bool, error) {
	key := Key(action, callerID)

	count, allowed, err := l.store.Bump(ctx, key, l.config.MaxAttempts, l.config.Window)
	if err != nil {
		l.logger.Error("rate limit store failure",
			slog.String("action", action),
			slog.Any("error", err))
		return false, err
	}

	if !allowed {
		l.audit.Record(pkglogger.SecurityEvent{
			Event:     pkglogger.EventRateLimitExceeded,
			IPAddress: callerID,
			Success:   false,
			Details: map[string]string{
				"action": action,
			},
		})
		l.logger.Warn("rate limit exceeded",
			slog.String("action", action),
			slog.String("caller", callerID),
			slog.Int("attempts", count))
		return false, nil
	}

	return true, nil
}
