package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "brandsite/internal/adapter/http"
	"brandsite/internal/adapter/mail"
	"brandsite/internal/adapter/memory"
	"brandsite/internal/adapter/postgres"
	"brandsite/internal/adapter/storage"
	"brandsite/internal/app"
	"brandsite/internal/config"
	"brandsite/internal/domain"
	"brandsite/internal/logging"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	rateLimitSweep    = 5 * time.Minute
	rateLimitMaxAge   = time.Hour
)

// limitScope is one rate-limited operation.
type limitScope struct {
	name   string
	limit  int
	window time.Duration
}

var (
	loginScope   = limitScope{"login", 5, time.Minute}
	forgotScope  = limitScope{"forgot_password", 3, 15 * time.Minute}
	contactScope = limitScope{"contact", 3, 5 * time.Minute}
	uploadScope  = limitScope{"upload", 20, time.Minute}
)

func serve(ctx context.Context, args []string, env Env) error {
	cfg, err := config.Load(args, env.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, Writer: env.Stderr})
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = db.Close() }()

	limits, stopLimits := buildLimiters(ctx, cfg, db, log)
	defer stopLimits()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	notifier := mail.NewResend(cfg.ResendAPIKey, cfg.MailFrom)
	sessions := app.NewSessions(cfg.JWTSecret, domain.DefaultSessionMaxAge)
	auth := app.NewAuthService(db, sessions, app.AuthConfig{
		FallbackPassword: cfg.AdminPassword,
		AdminEmail:       cfg.AdminEmail,
	})
	svc := adapthttp.Services{
		Auth:     auth,
		Reset:    app.NewResetService(db, auth, notifier, cfg.PublicBaseURL),
		Uploads:  app.NewUploadService(store),
		Contacts: app.NewContactService(db, notifier, cfg.AdminEmail, log),
		Content: app.NewContentService(app.ContentRepos{
			Profile:  db,
			Services: db.Services(),
			Media:    db.Media(),
			Partners: db.Partners(),
			Stats:    db.Stats(),
			Timeline: db.Timeline(),
			Settings: db,
		}),
	}

	created, err := auth.Bootstrap(ctx)
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		log.Warn("no admin credential stored and ADMIN_PASSWORD is empty")
	case err != nil:
		return fmt.Errorf("bootstrap credential: %w", err)
	case created:
		log.Info("stored admin password hash from ADMIN_PASSWORD")
	}

	var oidcConfig *adapthttp.OIDCConfig
	if cfg.SSOEnabled() {
		oidcConfig, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
		log.Info("sso enabled", "issuer", cfg.OIDCIssuer)
	}

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	h := adapthttp.New(svc, limits, adapthttp.Options{
		WebDir:         cfg.WebDir,
		PublicDir:      localDir(cfg),
		SecureCookies:  cfg.Production(),
		OIDC:           oidcConfig,
		Logger:         log,
		TrustedProxies: proxies,
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	svc.Contacts.Wait()
	return nil
}

// buildLimiters returns the configured limiters and a func releasing their
// background work.
func buildLimiters(ctx context.Context, cfg *config.Config, db *postgres.DB, log *slog.Logger) (adapthttp.Limiters, func()) {
	if cfg.RateLimitStore == config.RateLimitPostgres {
		ctx, cancel := context.WithCancel(ctx)
		go purgeRateLimits(ctx, db, log)
		return adapthttp.Limiters{
			Login:          db.NewRateLimiter(loginScope.name, loginScope.limit, loginScope.window, log),
			ForgotPassword: db.NewRateLimiter(forgotScope.name, forgotScope.limit, forgotScope.window, log),
			Contact:        db.NewRateLimiter(contactScope.name, contactScope.limit, contactScope.window, log),
			Upload:         db.NewRateLimiter(uploadScope.name, uploadScope.limit, uploadScope.window, log),
		}, cancel
	}

	var all []*memory.RateLimiter
	mk := func(sc limitScope) *memory.RateLimiter {
		l := memory.NewRateLimiter(sc.limit, sc.window)
		l.StartSweeper(rateLimitSweep)
		all = append(all, l)
		return l
	}
	limits := adapthttp.Limiters{
		Login:          mk(loginScope),
		ForgotPassword: mk(forgotScope),
		Contact:        mk(contactScope),
		Upload:         mk(uploadScope),
	}
	return limits, func() {
		for _, l := range all {
			l.Stop()
		}
	}
}

func purgeRateLimits(ctx context.Context, db *postgres.DB, log *slog.Logger) {
	ticker := time.NewTicker(rateLimitSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.PurgeRateLimits(ctx, rateLimitMaxAge)
			if err != nil {
				log.Warn("purge rate limits", "err", err)
				continue
			}
			if n > 0 {
				log.Debug("purged rate limit rows", "rows", n)
			}
		}
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (domain.AssetStore, error) {
	if cfg.UploadBackend == config.UploadS3 {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return s3, nil
	}
	return storage.NewLocal(cfg.PublicDir), nil
}

// localDir is the directory served for upload folders, empty when uploads
// live in object storage.
func localDir(cfg *config.Config) string {
	if cfg.UploadBackend == config.UploadS3 {
		return ""
	}
	return cfg.PublicDir
}
