package domain

import (
	"context"
	"time"
)

// ContactSubmission is a message left through the public contact form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactRepository defines the port for contact_submissions.
type ContactRepository interface {
	CreateContact(ctx context.Context, c ContactSubmission) error
	GetContact(ctx context.Context, id string) (*ContactSubmission, error)
	ListContacts(ctx context.Context) ([]ContactSubmission, error)
	SetContactRead(ctx context.Context, id string, read bool) error
	DeleteContact(ctx context.Context, id string) error
}
