// Package mail implements domain.Notifier on top of the Resend API.
package mail

import (
	"context"
	"errors"
	"fmt"

	"brandsite/internal/domain"

	"github.com/resend/resend-go/v2"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "Website <onboarding@resend.dev>"

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends transactional email. A zero API key yields a disabled notifier.
type Resend struct {
	emails emailSender
	from   string
}

var _ domain.Notifier = (*Resend)(nil)

// NewResend creates a notifier for apiKey. from may be empty.
func NewResend(apiKey, from string) *Resend {
	if from == "" {
		from = DefaultFrom
	}
	r := &Resend{from: from}
	if apiKey != "" {
		r.emails = resend.NewClient(apiKey).Emails
	}
	return r
}

// Enabled reports whether an API key was configured.
func (r *Resend) Enabled() bool {
	return r.emails != nil
}

// Send delivers msg.
func (r *Resend) Send(ctx context.Context, msg domain.Email) error {
	if !r.Enabled() {
		return domain.ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("mail: recipient is required")
	}
	_, err := r.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
