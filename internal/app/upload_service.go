package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"
	"time"

	"brandsite/internal/domain"
)

// Per-category upload ceilings.
const (
	MaxImageSize int64 = 5 << 20
	MaxAudioSize int64 = 10 << 20
	MaxVideoSize int64 = 50 << 20
)

// maxNameAttempts bounds retries when the store reports a taken name.
const maxNameAttempts = 5

// DefaultUploadFolder is used when the client names no folder.
const DefaultUploadFolder = "uploads"

// UploadFolders is the whitelist of destinations. Anything else is rejected
// before any storage I/O.
var UploadFolders = []string{"uploads", "logos", "videos", "audio", "photos"}

// mimeExtensions maps every accepted MIME type to its legitimate
// extensions; the first entry is canonical.
var mimeExtensions = map[string][]string{
	"image/jpeg":    {"jpg", "jpeg"},
	"image/png":     {"png"},
	"image/webp":    {"webp"},
	"image/gif":     {"gif"},
	"image/svg+xml": {"svg"},
	"audio/mpeg":    {"mp3"},
	"audio/mp3":     {"mp3"},
	"audio/wav":     {"wav"},
	"audio/ogg":     {"ogg"},
	"audio/aac":     {"aac", "m4a"},
	"video/mp4":     {"mp4"},
	"video/webm":    {"webm"},
	"video/ogg":     {"ogg"},
}

// UploadRequest is one file received from the admin UI.
type UploadRequest struct {
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadService validates uploads and hands them to an AssetStore. It only
// stores the file; referencing the URL from content is a separate save.
type UploadService struct {
	store domain.AssetStore
	now   func() time.Time

	mu        sync.Mutex
	lastStamp int64
}

// NewUploadService creates an UploadService writing to store.
func NewUploadService(store domain.AssetStore) *UploadService {
	return &UploadService{store: store, now: time.Now}
}

// MaxUploadSize is the largest ceiling across categories.
func MaxUploadSize() int64 {
	return MaxVideoSize
}

// Upload validates req and stores it under a generated name.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*domain.Asset, error) {
	folder := req.Folder
	if folder == "" {
		folder = DefaultUploadFolder
	}
	if !isUploadFolder(folder) {
		return nil, domain.Invalid("folder", "invalid upload folder")
	}

	contentType, err := normalizeMIME(req.ContentType)
	if err != nil {
		return nil, err
	}
	ext := ResolveExtension(contentType, req.Filename)

	limit := SizeLimit(contentType)
	if req.Size <= 0 {
		return nil, domain.Invalid("file", "no file provided")
	}
	if req.Size > limit {
		return nil, domain.Invalid("file", fmt.Sprintf("file too large, maximum size is %dMB", limit>>20))
	}

	body := io.LimitReader(req.Body, limit)
	var (
		filename string
		u        string
	)
	for attempt := 0; ; attempt++ {
		filename = fmt.Sprintf("%s-%d.%s", categoryPrefix(contentType), s.stamp(), ext)
		u, err = s.store.Save(ctx, folder, filename, contentType, req.Size, body)
		if errors.Is(err, domain.ErrAssetExists) && attempt < maxNameAttempts-1 {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store upload: %w", err)
		}
		break
	}

	return &domain.Asset{
		URL:         u,
		Filename:    filename,
		Folder:      folder,
		ContentType: contentType,
		Size:        req.Size,
	}, nil
}

// stamp returns the current time in milliseconds, bumped past the previous
// value so names generated by this process never repeat.
func (s *UploadService) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.lastStamp {
		ms = s.lastStamp + 1
	}
	s.lastStamp = ms
	return ms
}

// ResolveExtension returns the extension from filename when it belongs to
// contentType, otherwise the canonical extension for contentType.
func ResolveExtension(contentType, filename string) string {
	allowed := mimeExtensions[contentType]
	if len(allowed) == 0 {
		return "bin"
	}
	raw := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		raw = filename[i+1:]
	}
	raw = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, strings.ToLower(raw))

	for _, e := range allowed {
		if e == raw {
			return raw
		}
	}
	return allowed[0]
}

// SizeLimit returns the ceiling for contentType's category.
func SizeLimit(contentType string) int64 {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return MaxVideoSize
	case strings.HasPrefix(contentType, "audio/"):
		return MaxAudioSize
	default:
		return MaxImageSize
	}
}

func categoryPrefix(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "img"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	}
	return "file"
}

func normalizeMIME(declared string) (string, error) {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", domain.Invalid("file", "invalid file type")
	}
	if _, ok := mimeExtensions[mt]; !ok {
		return "", domain.Invalid("file", "invalid file type")
	}
	return mt, nil
}

func isUploadFolder(folder string) bool {
	for _, f := range UploadFolders {
		if f == folder {
			return true
		}
	}
	return false
}
