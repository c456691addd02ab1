package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"brandsite/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAssetStore struct {
	calls  int
	folder string
	name   string
	body   string
	err    error
}

func (m *mockAssetStore) Save(ctx context.Context, folder, filename, contentType string, size int64, body io.Reader) (string, error) {
	m.calls++
	m.folder, m.name = folder, filename
	b, _ := io.ReadAll(body)
	m.body = string(b)
	if m.err != nil {
		return "", m.err
	}
	return "/" + folder + "/" + filename, nil
}

func newTestUpload(store domain.AssetStore) *UploadService {
	s := NewUploadService(store)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestUpload_ExtensionFollowsMIME(t *testing.T) {
	store := &mockAssetStore{}
	asset, err := newTestUpload(store).Upload(context.Background(), UploadRequest{
		Folder: "photos", Filename: "photo.exe", ContentType: "image/png", Size: 4, Body: strings.NewReader("data"),
	})
	require.NoError(t, err)
	assert.Equal(t, "img-1700000000000.png", asset.Filename)
	assert.Equal(t, "/photos/img-1700000000000.png", asset.URL)
	assert.Equal(t, "data", store.body)
}

func TestUpload_KeepsAllowedExtension(t *testing.T) {
	store := &mockAssetStore{}
	asset, err := newTestUpload(store).Upload(context.Background(), UploadRequest{
		Filename: "Clip.M4A", ContentType: "audio/aac", Size: 1, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, "audio-1700000000000.m4a", asset.Filename)
	assert.Equal(t, DefaultUploadFolder, asset.Folder)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     UploadRequest
		wantMsg string
	}{
		{"traversal folder", UploadRequest{Folder: "../../etc", ContentType: "image/png", Size: 1}, "invalid upload folder"},
		{"unknown mime", UploadRequest{ContentType: "application/x-msdownload", Size: 1}, "invalid file type"},
		{"empty file", UploadRequest{ContentType: "image/png", Size: 0}, "no file provided"},
		{"image too large", UploadRequest{ContentType: "image/jpeg", Size: 6 << 20}, "maximum size is 5MB"},
		{"audio too large", UploadRequest{ContentType: "audio/mpeg", Size: 11 << 20}, "maximum size is 10MB"},
		{"video too large", UploadRequest{ContentType: "video/mp4", Size: 51 << 20}, "maximum size is 50MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockAssetStore{}
			tt.req.Body = strings.NewReader("x")
			_, err := newTestUpload(store).Upload(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, store.calls, "store must not be touched")
		})
	}
}

func TestUpload_StoreError(t *testing.T) {
	store := &mockAssetStore{err: errors.New("disk full")}
	_, err := newTestUpload(store).Upload(context.Background(), UploadRequest{
		ContentType: "video/webm", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, domain.IsValidation(err))
}

func TestResolveExtension(t *testing.T) {
	cases := []struct{ mime, name, want string }{
		{"image/jpeg", "a.jpeg", "jpeg"},
		{"image/jpeg", "a.JPG", "jpg"},
		{"image/jpeg", "noext", "jpg"},
		{"image/svg+xml", "logo.svg", "svg"},
		{"audio/mp3", "song.wav", "mp3"},
		{"video/ogg", "a.ogv", "ogg"},
		{"text/plain", "a.txt", "bin"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResolveExtension(c.mime, c.name), c.mime+" "+c.name)
	}
}

func TestNormalizeMIMEStripsParameters(t *testing.T) {
	mt, err := normalizeMIME("image/png; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
}

// takenStore reports the first taken names as existing without reading the body.
type takenStore struct {
	taken map[string]bool
	tried []string
	body  string
}

func (m *takenStore) Save(ctx context.Context, folder, filename, contentType string, size int64, body io.Reader) (string, error) {
	m.tried = append(m.tried, filename)
	if m.taken[filename] {
		return "", domain.ErrAssetExists
	}
	b, _ := io.ReadAll(body)
	m.body = string(b)
	return "/" + folder + "/" + filename, nil
}

func TestUpload_SameMillisecondGetsDistinctNames(t *testing.T) {
	store := &mockAssetStore{}
	svc := newTestUpload(store)
	ctx := context.Background()

	names := map[string]bool{}
	for i := 0; i < 3; i++ {
		asset, err := svc.Upload(ctx, UploadRequest{
			Folder: "logos", Filename: "logo.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
		})
		require.NoError(t, err)
		names[asset.Filename] = true
	}
	assert.Equal(t, map[string]bool{
		"img-1700000000000.png": true,
		"img-1700000000001.png": true,
		"img-1700000000002.png": true,
	}, names)
}

func TestUpload_RetriesTakenName(t *testing.T) {
	store := &takenStore{taken: map[string]bool{"img-1700000000000.png": true}}
	asset, err := newTestUpload(store).Upload(context.Background(), UploadRequest{
		Folder: "logos", Filename: "logo.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("data"),
	})
	require.NoError(t, err)
	assert.Equal(t, "img-1700000000001.png", asset.Filename)
	assert.Equal(t, []string{"img-1700000000000.png", "img-1700000000001.png"}, store.tried)
	assert.Equal(t, "data", store.body)
}

func TestUpload_GivesUpAfterRepeatedCollisions(t *testing.T) {
	taken := map[string]bool{}
	for i := 0; i < maxNameAttempts; i++ {
		taken[fmt.Sprintf("img-%d.png", 1700000000000+i)] = true
	}
	store := &takenStore{taken: taken}
	_, err := newTestUpload(store).Upload(context.Background(), UploadRequest{
		Folder: "logos", Filename: "logo.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrAssetExists)
	assert.Len(t, store.tried, maxNameAttempts)
}
