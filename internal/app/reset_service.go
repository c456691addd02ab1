package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"brandsite/internal/domain"
)

var resetEmailTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Password Reset Request</h2>
<p>Someone requested a password reset for your admin dashboard.</p>
<p>If this was you, click the button below to set a new password. This link expires in {{.Minutes}} minutes.</p>
<div style="margin: 30px 0;">
<a href="{{.Link}}" style="background-color: #021526; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Reset Password</a>
</div>
<p style="color: #666; font-size: 14px;">If you didn't request this, you can safely ignore this email.</p>
</div>`))

// ResetService implements the single-use password reset flow:
// Idle -> Issued -> Consumed or Expired. At most one token is outstanding.
type ResetService struct {
	settings domain.SettingsRepository
	auth     *AuthService
	notifier domain.Notifier
	baseURL  string
	now      func() time.Time
	newToken func() (string, error)
}

// NewResetService wires the reset flow. baseURL may be empty, in which case
// links are built from the origin passed to RequestReset.
func NewResetService(settings domain.SettingsRepository, auth *AuthService, notifier domain.Notifier, baseURL string) *ResetService {
	return &ResetService{
		settings: settings,
		auth:     auth,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
		newToken: func() (string, error) { return randomHex(32) },
	}
}

// RequestReset issues a new token when email is the admin address and mails
// the link. A non-matching address returns nil without doing anything so
// callers can answer identically in both cases.
func (s *ResetService) RequestReset(ctx context.Context, email, origin, locale string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Invalid("email", "email is required")
	}
	adminEmail := s.auth.AdminEmail()
	if adminEmail == "" || !SameEmail(email, adminEmail) {
		return nil
	}
	if !s.notifier.Enabled() {
		return fmt.Errorf("email service not configured: %w", domain.ErrNotConfigured)
	}

	token, err := s.newToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expires := s.now().Add(domain.ResetTokenLifetime).UTC()

	if err := s.settings.SaveSettings(ctx, map[string]string{
		domain.SettingResetToken:   token,
		domain.SettingResetExpires: expires.Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	body, err := s.renderEmail(token, origin, locale)
	if err != nil {
		return err
	}
	if err := s.notifier.Send(ctx, domain.Email{
		To:      adminEmail,
		Subject: "Admin Password Reset Request",
		HTML:    body,
	}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err)
	}
	return nil
}

// ConsumeReset rotates the credential if token is the outstanding,
// unexpired reset token, then deletes the token in the same write.
func (s *ResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.Invalid("token", "token and new password are required")
	}
	if err := validateNewPassword("newPassword", newPassword); err != nil {
		return err
	}

	stored, ok, err := s.settings.GetSetting(ctx, domain.SettingResetToken)
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if !ok || stored == "" || !ConstantTimeCompare(stored, token) {
		return domain.ErrInvalidResetToken
	}

	raw, ok, err := s.settings.GetSetting(ctx, domain.SettingResetExpires)
	if err != nil {
		return fmt.Errorf("load reset expiry: %w", err)
	}
	if !ok {
		return domain.ErrResetTokenExpired
	}
	expires, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil || s.now().After(expires) {
		return domain.ErrResetTokenExpired
	}

	return s.auth.rotate(ctx, newPassword, domain.SettingResetToken, domain.SettingResetExpires)
}

func (s *ResetService) renderEmail(token, origin, locale string) (string, error) {
	base := s.baseURL
	if base == "" {
		base = strings.TrimRight(origin, "/")
	}
	if locale != "ar" {
		locale = "en"
	}
	link := fmt.Sprintf("%s/%s/admin/reset-password?token=%s", base, locale, url.QueryEscape(token))

	var buf bytes.Buffer
	err := resetEmailTmpl.Execute(&buf, struct {
		Link    string
		Minutes int
	}{Link: link, Minutes: int(domain.ResetTokenLifetime / time.Minute)})
	if err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return buf.String(), nil
}
