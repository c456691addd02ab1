package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a wrong password or an unusable session.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken indicates a missing or mismatched password-reset token.
	ErrInvalidResetToken = errors.New("invalid or missing reset token")
	// ErrResetTokenExpired indicates a reset token past its expiry.
	ErrResetTokenExpired = errors.New("reset link has expired, please request a new one")
	// ErrNotConfigured indicates that a required server secret or collaborator is missing.
	ErrNotConfigured = errors.New("server configuration error")
	// ErrNotificationFailed indicates that a required email could not be delivered.
	ErrNotificationFailed = errors.New("notification delivery failed")
	// ErrForbidden indicates an authenticated request for something the caller may not touch.
	ErrForbidden = errors.New("forbidden")
	// ErrAssetExists indicates that an AssetStore already holds the generated name.
	ErrAssetExists = errors.New("asset already exists")
)

// ValidationError reports a user-correctable problem with one input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
