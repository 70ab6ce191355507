package auth

import (
	"fmt"
	"net/mail"
	"strings"
)

const maxEmailLen = 254 // RFC 5321 path limit

// Patterns that have no business being in an email address; their presence
// indicates an injection probe rather than a typo.
var suspiciousEmailPatterns = []string{
	"..",
	"javascript:",
	"<script",
	"\x00",
}

// ValidateEmail normalizes and validates an email address. It returns the
// lowercased, trimmed address only if every check passes.
func ValidateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	if len(email) > maxEmailLen {
		return "", fmt.Errorf("email must be at most %d characters", maxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email format")
	}

	// ParseAddress accepts local domains; require a dot-separated domain
	// the way the CMS frontend does.
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", fmt.Errorf("invalid email format")
	}

	for _, pattern := range suspiciousEmailPatterns {
		if strings.Contains(email, pattern) {
			return "", fmt.Errorf("invalid email format")
		}
	}

	return email, nil
}
