package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	adapthttp "brandsite/internal/adapter/http"
	"brandsite/internal/adapter/memory"
	"brandsite/internal/adapter/storage"
	"brandsite/internal/app"
	"brandsite/internal/domain"
)

const (
	testPassword = "correct-horse"
	testAdmin    = "owner@example.com"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type mockNotifier struct {
	enabled bool
	sent    []domain.Email
}

func (m *mockNotifier) Enabled() bool { return m.enabled }

func (m *mockNotifier) Send(_ context.Context, msg domain.Email) error {
	if !m.enabled {
		return domain.ErrNotConfigured
	}
	m.sent = append(m.sent, msg)
	return nil
}

type denyLimiter struct{ retry time.Duration }

func (d denyLimiter) Allow(context.Context, string) (bool, time.Duration) {
	return false, d.retry
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	ts        *httptest.Server
	db        *memory.DB
	notifier  *mockNotifier
	publicDir string
}

func newTestServer(t *testing.T, limits adapthttp.Limiters) *testEnv {
	t.Helper()

	db := memory.New()
	notifier := &mockNotifier{}
	sessions := app.NewSessions("test-secret", time.Hour)
	auth := app.NewAuthService(db, sessions, app.AuthConfig{
		FallbackPassword: testPassword,
		AdminEmail:       testAdmin,
		HashCost:         bcrypt.MinCost,
	})

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	publicDir := t.TempDir()

	svc := adapthttp.Services{
		Auth:     auth,
		Reset:    app.NewResetService(db, auth, notifier, ""),
		Uploads:  app.NewUploadService(storage.NewLocal(publicDir)),
		Contacts: app.NewContactService(db, notifier, "", nil),
		Content: app.NewContentService(app.ContentRepos{
			Profile:  db,
			Services: db.Services,
			Media:    db.Media,
			Partners: db.Partners,
			Stats:    db.Stats,
			Timeline: db.Timeline,
			Settings: db,
		}),
	}

	srv := adapthttp.New(svc, limits, adapthttp.Options{
		WebDir:    webDir,
		PublicDir: publicDir,
		Logger:    quietLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(svc.Contacts.Wait)

	return &testEnv{ts: ts, db: db, notifier: notifier, publicDir: publicDir}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"password": testPassword}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == domain.SessionCookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	resp := env.do(t, http.MethodGet, "/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.Secure)
	assert.InDelta(t, time.Hour.Seconds(), float64(cookie.MaxAge), 2)

	// The fallback password is persisted as a hash on first success.
	hash, ok, err := env.db.GetSetting(context.Background(), domain.SettingPasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(testPassword)))
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		payload    any
		wantStatus int
	}{
		{name: "wrong password", method: http.MethodPost, payload: map[string]string{"password": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "missing password", method: http.MethodPost, payload: map[string]string{}, wantStatus: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, payload: map[string]string{"password": "x", "user": "y"}, wantStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestServer(t, adapthttp.Limiters{})
			resp := env.do(t, tc.method, "/api/auth/login", tc.payload, nil)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Empty(t, resp.Cookies())
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{Login: denyLimiter{retry: time.Minute}})

	resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"password": testPassword}, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	body := decodeBody(t, resp)
	assert.Equal(t, "Too many login attempts. Please try again in 1 minute.", body["error"])
}

func TestAdminRequiresSession(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	paths := []string{
		"/api/admin/me",
		"/api/admin/contacts",
		"/api/admin/settings",
		"/api/admin/services",
		"/api/admin/experience/timeline",
	}
	for _, p := range paths {
		resp := env.do(t, http.MethodGet, p, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, p)
	}

	bogus := &http.Cookie{Name: domain.SessionCookieName, Value: "not-a-token"}
	resp := env.do(t, http.MethodGet, "/api/admin/me", nil, bogus)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/me", nil, env.login(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RoleAdmin, decodeBody(t, resp)["role"])
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	resp := env.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	c := resp.Cookies()[0]
	assert.Equal(t, domain.SessionCookieName, c.Name)
	assert.Equal(t, "", c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestChangePassword(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})
	cookie := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/admin/password", map[string]string{
		"currentPassword": "wrong", "newPassword": "brand-new-pass",
	}, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/admin/password", map[string]string{
		"currentPassword": testPassword, "newPassword": "brand-new-pass",
	}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password updated successfully", decodeBody(t, resp)["message"])

	resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"password": testPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"password": "brand-new-pass"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPassword(t *testing.T) {
	t.Run("unknown email gets the generic answer", func(t *testing.T) {
		env := newTestServer(t, adapthttp.Limiters{})
		resp := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "someone@else.com"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "If the email matches the admin account, a reset link was sent.", decodeBody(t, resp)["message"])
	})

	t.Run("mail not configured", func(t *testing.T) {
		env := newTestServer(t, adapthttp.Limiters{})
		resp := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": testAdmin}, nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Email service not configured. Please contact server administrator.", decodeBody(t, resp)["error"])
	})

	t.Run("reset round trip", func(t *testing.T) {
		env := newTestServer(t, adapthttp.Limiters{})
		env.notifier.enabled = true

		resp := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": " Owner@Example.com ", "locale": "ar"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, env.notifier.sent, 1)
		assert.Contains(t, env.notifier.sent[0].HTML, env.ts.URL+"/ar/admin/reset-password?token=")

		token, ok, err := env.db.GetSetting(context.Background(), domain.SettingResetToken)
		require.NoError(t, err)
		require.True(t, ok)

		resp = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": token, "newPassword": "fresh-secret"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// Single use.
		resp = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": token, "newPassword": "other-secret"}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"password": "fresh-secret"}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestServer(t, adapthttp.Limiters{ForgotPassword: denyLimiter{retry: 15 * time.Minute}})
		resp := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": testAdmin}, nil)
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "900", resp.Header.Get("Retry-After"))
	})
}

func TestContactSubmitAndManage(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	resp := env.do(t, http.MethodPost, "/api/contact", map[string]string{"name": "Ann"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Ann", "email": "ann@example.com", "message": "Hello there",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	cookie := env.login(t)
	resp = env.do(t, http.MethodGet, "/api/admin/contacts", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := decodeBody(t, resp)["items"].([]any)
	require.Len(t, items, 1)

	resp = env.do(t, http.MethodPatch, "/api/admin/contacts", map[string]any{"id": id, "is_read": true}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["is_read"])

	resp = env.do(t, http.MethodDelete, "/api/admin/contacts?id="+id, nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/admin/contacts?id="+id, nil, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContactRateLimited(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{Contact: denyLimiter{retry: 5 * time.Minute}})

	resp := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Ann", "email": "ann@example.com", "message": "Hello there",
	}, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many submissions. Please try again in 5 minutes.", decodeBody(t, resp)["error"])

	items, err := env.db.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func multipartUpload(t *testing.T, folder, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})
	cookie := env.login(t)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	post := func(folder, contentType string) *http.Response {
		body, ct := multipartUpload(t, folder, "logo.png", contentType, png)
		req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/admin/upload", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", ct)
		req.AddCookie(cookie)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post("logos", "image/png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	url, _ := body["url"].(string)
	require.True(t, strings.HasPrefix(url, "/logos/img-"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	got := env.do(t, http.MethodGet, url, nil, nil)
	require.Equal(t, http.StatusOK, got.StatusCode)
	data, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	resp = post("../etc", "image/png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post("uploads", "application/x-msdownload")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRequiresSession(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	body, ct := multipartUpload(t, "logos", "logo.png", "image/png", []byte("x"))
	resp, err := http.Post(env.ts.URL+"/api/admin/upload", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	entries, err := os.ReadDir(env.publicDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServicesCRUD(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})
	cookie := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/admin/services", map[string]any{"title_en": "Voice over"}, cookie)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "title", decodeBody(t, resp)["field"])

	resp = env.do(t, http.MethodPost, "/api/admin/services", map[string]any{
		"title_en": "Voice over", "title_ar": "تعليق صوتي", "sort_order": 2,
	}, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp = env.do(t, http.MethodPut, "/api/admin/services", map[string]any{
		"id": id, "title_en": "Voiceover", "title_ar": "تعليق صوتي", "sort_order": 1,
	}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/site", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var site domain.Site
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&site))
	require.Len(t, site.Services, 1)
	assert.Equal(t, "Voiceover", site.Services[0].TitleEn)

	resp = env.do(t, http.MethodDelete, "/api/admin/services?id="+id, nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPut, "/api/admin/services", map[string]any{
		"id": id, "title_en": "a", "title_ar": "b",
	}, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRefuseCredentialKeys(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})
	cookie := env.login(t)

	for _, key := range []string{domain.SettingPasswordHash, domain.SettingResetToken, domain.SettingResetExpires} {
		resp := env.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"key": key, "value": "x"}, cookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, key)
	}

	resp := env.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"key": domain.SettingMaintenanceMode, "value": "true"}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/settings", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings, _ := decodeBody(t, resp)["settings"].(map[string]any)
	assert.Equal(t, "true", settings[domain.SettingMaintenanceMode])
	assert.NotContains(t, settings, domain.SettingPasswordHash)
}

func TestAuthConfig(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	resp := env.do(t, http.MethodGet, "/api/auth/config", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["sso_enabled"])

	resp = env.do(t, http.MethodGet, "/api/auth/sso/login", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSPAFallback(t *testing.T) {
	env := newTestServer(t, adapthttp.Limiters{})

	resp := env.do(t, http.MethodGet, "/en/admin", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}
