// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"brandsite/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used for the admin credential.
const DefaultHashCost = 12

// AuthConfig carries the deployment secrets the credential store needs.
type AuthConfig struct {
	// FallbackPassword is ADMIN_PASSWORD, used only while no hash is stored.
	FallbackPassword string
	// AdminEmail is the only identity allowed through SSO and password reset.
	AdminEmail string
	// HashCost overrides DefaultHashCost; zero keeps the default.
	HashCost int
}

// AuthService owns the single admin credential and turns successful checks
// into session tokens.
type AuthService struct {
	settings domain.SettingsRepository
	sessions *Sessions
	cfg      AuthConfig
}

// NewAuthService creates a new authentication service.
func NewAuthService(settings domain.SettingsRepository, sessions *Sessions, cfg AuthConfig) *AuthService {
	if cfg.HashCost == 0 {
		cfg.HashCost = DefaultHashCost
	}
	return &AuthService{settings: settings, sessions: sessions, cfg: cfg}
}

// Bootstrap persists a hash of the fallback password when no credential is
// stored yet. It is idempotent and meant to run before serving requests.
func (s *AuthService) Bootstrap(ctx context.Context) (bool, error) {
	_, ok, err := s.settings.GetSetting(ctx, domain.SettingPasswordHash)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if ok {
		return false, nil
	}
	if s.cfg.FallbackPassword == "" {
		return false, fmt.Errorf("ADMIN_PASSWORD not set and no stored credential: %w", domain.ErrNotConfigured)
	}
	if err := s.rotate(ctx, s.cfg.FallbackPassword); err != nil {
		return false, err
	}
	return true, nil
}

// Verify reports whether candidate is the current admin password. With no
// stored hash it compares against the fallback secret and, on a match,
// persists its hash before returning.
func (s *AuthService) Verify(ctx context.Context, candidate string) (bool, error) {
	hash, ok, err := s.settings.GetSetting(ctx, domain.SettingPasswordHash)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	if ok && hash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("compare credential: %w", err)
		}
		return true, nil
	}

	if s.cfg.FallbackPassword == "" {
		return false, fmt.Errorf("ADMIN_PASSWORD not set: %w", domain.ErrNotConfigured)
	}
	if !ConstantTimeCompare(candidate, s.cfg.FallbackPassword) {
		return false, nil
	}
	if err := s.rotate(ctx, s.cfg.FallbackPassword); err != nil {
		return false, err
	}
	return true, nil
}

// SetPassword overwrites the stored credential.
func (s *AuthService) SetPassword(ctx context.Context, plain string) error {
	if err := validateNewPassword("password", plain); err != nil {
		return err
	}
	return s.rotate(ctx, plain)
}

// ChangePassword rotates the credential after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return domain.Invalid("password", "current and new password are required")
	}
	if err := validateNewPassword("newPassword", next); err != nil {
		return err
	}
	ok, err := s.Verify(ctx, current)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
	}
	return s.rotate(ctx, next)
}

// Login verifies password and issues an admin session token.
func (s *AuthService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, domain.Invalid("password", "password is required")
	}
	if !s.sessions.Configured() {
		return "", time.Time{}, fmt.Errorf("JWT_SECRET not set: %w", domain.ErrNotConfigured)
	}
	ok, err := s.Verify(ctx, password)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}
	return s.sessions.Issue(domain.RoleAdmin)
}

// LoginWithIdentity issues a session for an externally authenticated
// identity (SSO). Only a verified ADMIN_EMAIL is accepted.
func (s *AuthService) LoginWithIdentity(ctx context.Context, email string, verified bool) (string, time.Time, error) {
	if s.cfg.AdminEmail == "" {
		return "", time.Time{}, fmt.Errorf("ADMIN_EMAIL not set: %w", domain.ErrNotConfigured)
	}
	if !verified || !SameEmail(email, s.cfg.AdminEmail) {
		return "", time.Time{}, domain.ErrForbidden
	}
	return s.sessions.Issue(domain.RoleAdmin)
}

// Authenticate validates a session token from a request cookie.
func (s *AuthService) Authenticate(token string) (*domain.Session, error) {
	return s.sessions.Verify(token)
}

// AdminEmail returns the configured admin address.
func (s *AuthService) AdminEmail() string {
	return s.cfg.AdminEmail
}

func (s *AuthService) hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), s.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// rotate stores a fresh hash of plain and deletes del in the same write.
func (s *AuthService) rotate(ctx context.Context, plain string, del ...string) error {
	h, err := s.hash(plain)
	if err != nil {
		return err
	}
	if err := s.settings.SaveSettings(ctx, map[string]string{domain.SettingPasswordHash: h}, del...); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func validateNewPassword(field, plain string) error {
	if len([]rune(plain)) < domain.MinPasswordLength {
		return domain.Invalid(field, fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SameEmail compares two addresses case-insensitively, ignoring surrounding space.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
