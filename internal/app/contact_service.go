package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"brandsite/internal/domain"

	"github.com/google/uuid"
)

// Contact field limits, in characters.
const (
	MaxContactName    = 100
	MaxContactEmail   = 254
	MaxContactPhone   = 20
	MaxContactMessage = 5000
)

const notifyTimeout = 10 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var contactEmailTmpl = template.Must(template.New("contact").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #021526;">New Contact Message</h2>
<hr style="border: 1px solid #eee;" />
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{if .Phone}}<p><strong>Phone:</strong> {{.Phone}}</p>
{{end}}<p><strong>Message:</strong></p>
<div style="background: #f9f9f9; padding: 16px; border-radius: 8px;">{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div>
<hr style="border: 1px solid #eee; margin-top: 24px;" />
<p style="color: #888; font-size: 12px;">Sent from your portfolio website contact form</p>
</div>`))

// ContactInput is the raw public form body.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ContactService validates public submissions, persists them and notifies
// the owner on a best-effort basis.
type ContactService struct {
	repo     domain.ContactRepository
	notifier domain.Notifier
	notifyTo string
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	pending  sync.WaitGroup
}

// NewContactService creates a ContactService. notifyTo may be empty, which
// disables notifications.
func NewContactService(repo domain.ContactRepository, notifier domain.Notifier, notifyTo string, log *slog.Logger) *ContactService {
	if log == nil {
		log = slog.Default()
	}
	return &ContactService{
		repo:     repo,
		notifier: notifier,
		notifyTo: notifyTo,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit validates in, stores it unread and schedules a notification. The
// database write is the source of truth; notification failures are logged.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (string, error) {
	c, err := normalizeContact(in)
	if err != nil {
		return "", err
	}
	c.ID = s.newID()
	c.CreatedAt = s.now().UTC()

	if err := s.repo.CreateContact(ctx, c); err != nil {
		return "", fmt.Errorf("store contact: %w", err)
	}

	if s.notifyTo != "" && s.notifier.Enabled() {
		s.pending.Add(1)
		go s.notify(context.WithoutCancel(ctx), c)
	}
	return c.ID, nil
}

// Wait blocks until scheduled notifications have finished.
func (s *ContactService) Wait() {
	s.pending.Wait()
}

// List returns submissions newest first.
func (s *ContactService) List(ctx context.Context) ([]domain.ContactSubmission, error) {
	return s.repo.ListContacts(ctx)
}

// MarkRead toggles the read flag and returns the updated submission.
func (s *ContactService) MarkRead(ctx context.Context, id string, read bool) (*domain.ContactSubmission, error) {
	if id == "" {
		return nil, domain.Invalid("id", "id is required")
	}
	if err := s.repo.SetContactRead(ctx, id, read); err != nil {
		return nil, err
	}
	return s.repo.GetContact(ctx, id)
}

// Delete removes a submission.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.Invalid("id", "id is required")
	}
	return s.repo.DeleteContact(ctx, id)
}

func (s *ContactService) notify(ctx context.Context, c domain.ContactSubmission) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	body, err := RenderContactEmail(c)
	if err != nil {
		s.log.ErrorContext(ctx, "render contact email", "id", c.ID, "err", err)
		return
	}
	subject := "New Contact: " + strings.Join(strings.Fields(c.Name), " ")
	if err := s.notifier.Send(ctx, domain.Email{To: s.notifyTo, Subject: subject, HTML: body}); err != nil {
		s.log.WarnContext(ctx, "contact notification failed", "id", c.ID, "err", err)
	}
}

// RenderContactEmail renders the owner notification with every user field
// HTML-escaped.
func RenderContactEmail(c domain.ContactSubmission) (string, error) {
	var buf bytes.Buffer
	err := contactEmailTmpl.Execute(&buf, struct {
		Name, Email, Phone string
		Lines              []string
	}{
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Lines: strings.Split(c.Message, "\n"),
	})
	return buf.String(), err
}

func normalizeContact(in ContactInput) (domain.ContactSubmission, error) {
	c := domain.ContactSubmission{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Message: strings.TrimSpace(in.Message),
	}

	if c.Name == "" || c.Email == "" || c.Message == "" {
		return c, domain.Invalid("", "name, email, and message are required")
	}
	for _, f := range []struct {
		field, value string
		max          int
	}{
		{"name", c.Name, MaxContactName},
		{"email", c.Email, MaxContactEmail},
		{"phone", c.Phone, MaxContactPhone},
		{"message", c.Message, MaxContactMessage},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return c, domain.Invalid(f.field, fmt.Sprintf("must be at most %d characters", f.max))
		}
	}
	if !emailPattern.MatchString(c.Email) {
		return c, domain.Invalid("email", "invalid email address")
	}
	return c, nil
}
