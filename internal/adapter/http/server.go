package adapthttp

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"brandsite/internal/app"
	"brandsite/internal/domain"
)

// Services groups the application services the HTTP adapter drives.
type Services struct {
	Auth     *app.AuthService
	Reset    *app.ResetService
	Uploads  *app.UploadService
	Contacts *app.ContactService
	Content  *app.ContentService
}

// Limiters holds one rate limiter per protected operation. A nil limiter
// admits everything.
type Limiters struct {
	Login          domain.RateLimiter
	ForgotPassword domain.RateLimiter
	Contact        domain.RateLimiter
	Upload         domain.RateLimiter
}

// Options configures static file serving, cookies and logging.
type Options struct {
	WebDir string
	// PublicDir is served under the upload folders when non-empty.
	PublicDir     string
	SecureCookies bool
	OIDC          *OIDCConfig
	Logger        *slog.Logger
	// TrustedProxies are the peers whose forwarding headers are believed.
	// Empty trusts forwarding headers from any peer.
	TrustedProxies []netip.Prefix
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	reset    *app.ResetService
	uploads  *app.UploadService
	contacts *app.ContactService
	content  *app.ContentService

	limits         Limiters
	oidcConfig     *OIDCConfig
	webDir         string
	publicDir      string
	secureCookies  bool
	trustedProxies []netip.Prefix
	log            *slog.Logger
	now            func() time.Time
}

// New creates a Server wired to the given application services.
func New(svc Services, limits Limiters, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	oidcConfig := opts.OIDC
	if oidcConfig == nil {
		oidcConfig = &OIDCConfig{}
	}
	return &Server{
		auth:           svc.Auth,
		reset:          svc.Reset,
		uploads:        svc.Uploads,
		contacts:       svc.Contacts,
		content:        svc.Content,
		limits:         limits,
		oidcConfig:     oidcConfig,
		webDir:         opts.WebDir,
		publicDir:      opts.PublicDir,
		secureCookies:  opts.SecureCookies,
		trustedProxies: opts.TrustedProxies,
		log:            log,
		now:            time.Now,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	// Public
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/forgot-password", s.handleForgotPassword)
	api.HandleFunc("/auth/reset-password", s.handleResetPassword)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	api.HandleFunc("/contact", s.handleContact)
	api.HandleFunc("/site", s.handleSite)

	// Admin
	api.Handle("/admin/me", s.requireAdmin(s.handleMe))
	api.Handle("/admin/password", s.requireAdmin(s.handleChangePassword))
	api.Handle("/admin/upload", s.requireAdmin(s.handleUpload))
	api.Handle("/admin/contacts", s.requireAdmin(s.handleContacts))
	api.Handle("/admin/profile", s.requireAdmin(s.handleProfile))
	api.Handle("/admin/settings", s.requireAdmin(s.handleSettings))
	api.Handle("/admin/services", s.requireAdmin(collectionHandler(s, s.content.Services)))
	api.Handle("/admin/media", s.requireAdmin(collectionHandler(s, s.content.Media)))
	api.Handle("/admin/partners", s.requireAdmin(collectionHandler(s, s.content.Partners)))
	api.Handle("/admin/experience/stats", s.requireAdmin(collectionHandler(s, s.content.Stats)))
	api.Handle("/admin/experience/timeline", s.requireAdmin(collectionHandler(s, s.content.Timeline)))

	root := http.NewServeMux()
	root.Handle("/api/", withNoCache(http.StripPrefix("/api", api)))
	if s.publicDir != "" {
		assets := assetServer(s.publicDir)
		for _, folder := range app.UploadFolders {
			root.Handle("/"+folder+"/", assets)
		}
	}
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withSecurityHeaders(root))
}
