package domain

import (
	"context"
	"io"
)

// Asset describes a stored upload. It is an orphan until some content
// record references URL.
type Asset struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Folder      string `json:"folder"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AssetStore persists uploaded bytes under a whitelisted folder and returns
// the public URL of the stored object. A store that detects an existing name
// returns ErrAssetExists before reading body.
type AssetStore interface {
	Save(ctx context.Context, folder, filename, contentType string, size int64, body io.Reader) (string, error)
}

// Email is a single transactional message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends transactional email. Enabled is false when the delivery
// service has no configuration; Send then returns ErrNotConfigured.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, msg Email) error
}
