package models

import (
	"time"
)

// User is the credential subject consulted by the auth core. The core only
// ever reads it and records the last-login timestamp on success; everything
// else about the user belongs to the CMS.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string // e.g., "editor", "admin"
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
