// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Reserved site_settings keys that hold credential material.
const (
	SettingPasswordHash  = "admin_password_hash"
	SettingResetToken    = "password_reset_token"
	SettingResetExpires  = "password_reset_expires"
	RoleAdmin            = "admin"
	SessionCookieName    = "admin_session"
	DefaultSessionMaxAge = 24 * time.Hour
	ResetTokenLifetime   = 15 * time.Minute
	MinPasswordLength    = 6
)

// IsReservedSetting reports whether key stores credential material that must
// never leave the server through the settings API.
func IsReservedSetting(key string) bool {
	switch key {
	case SettingPasswordHash, SettingResetToken, SettingResetExpires:
		return true
	}
	return false
}

// Session is the decoded content of a verified admin session token.
type Session struct {
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SettingsRepository defines the port for the site_settings key/value table.
type SettingsRepository interface {
	// GetSetting returns the value for key and whether it exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)
	// ListSettings returns every stored key/value pair.
	ListSettings(ctx context.Context) (map[string]string, error)
	// SaveSettings upserts put and removes del as a single unit of work.
	SaveSettings(ctx context.Context, put map[string]string, del ...string) error
}

// RateLimiter admits at most a bounded number of attempts per identifier
// within a window. When an attempt is denied the returned duration is a
// hint for how long the caller should wait.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, time.Duration)
}
