// Package config loads runtime settings from defaults, the environment and
// command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Upload backends.
const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

// Rate limit stores.
const (
	RateLimitMemory   = "memory"
	RateLimitPostgres = "postgres"
)

// Config holds everything the server needs at startup.
type Config struct {
	Addr        string
	DatabaseURL string
	DBDriver    string
	AppEnv      string
	WebDir      string
	PublicDir   string

	JWTSecret     string
	AdminPassword string
	AdminEmail    string

	ResendAPIKey  string
	MailFrom      string
	PublicBaseURL string

	UploadBackend string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string

	RateLimitStore string
	// TrustedProxies lists CIDRs or addresses of reverse proxies whose
	// forwarding headers are believed. Empty trusts forwarding headers from
	// any peer.
	TrustedProxies string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	LogLevel string
	LogJSON  bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8080",
		DBDriver:       "postgres",
		AppEnv:         "development",
		WebDir:         "web",
		PublicDir:      "public",
		UploadBackend:  UploadLocal,
		S3Region:       "us-east-1",
		RateLimitStore: RateLimitMemory,
		LogLevel:       "info",
	}
}

// Load builds a Config. getenv is usually os.Getenv; args excludes the
// program name.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	cfg.applyEnv(getenv)

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "directory with the built frontend")
	fs.StringVar(&cfg.PublicDir, "public-dir", cfg.PublicDir, "directory for local uploads")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str(&c.Addr, "ADDR")
	str(&c.DatabaseURL, "DATABASE_URL")
	str(&c.DBDriver, "DB_DRIVER")
	str(&c.AppEnv, "APP_ENV")
	str(&c.WebDir, "WEB_DIR")
	str(&c.PublicDir, "PUBLIC_DIR")
	str(&c.JWTSecret, "JWT_SECRET")
	str(&c.AdminEmail, "ADMIN_EMAIL")
	str(&c.ResendAPIKey, "RESEND_API_KEY")
	str(&c.MailFrom, "MAIL_FROM")
	str(&c.PublicBaseURL, "PUBLIC_BASE_URL")
	str(&c.UploadBackend, "UPLOAD_BACKEND")
	str(&c.S3Bucket, "S3_BUCKET")
	str(&c.S3Region, "S3_REGION")
	str(&c.S3Endpoint, "S3_ENDPOINT")
	str(&c.S3AccessKey, "S3_ACCESS_KEY")
	str(&c.S3SecretKey, "S3_SECRET_KEY")
	str(&c.S3PublicURL, "S3_PUBLIC_URL")
	str(&c.RateLimitStore, "RATE_LIMIT_STORE")
	str(&c.TrustedProxies, "TRUSTED_PROXIES")
	str(&c.OIDCIssuer, "OIDC_ISSUER")
	str(&c.OIDCClientID, "OIDC_CLIENT_ID")
	str(&c.OIDCClientSecret, "OIDC_CLIENT_SECRET")
	str(&c.OIDCRedirectURL, "OIDC_REDIRECT_URL")
	str(&c.LogLevel, "LOG_LEVEL")

	// Passwords may legitimately have surrounding spaces.
	if v := getenv("ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v, err := strconv.ParseBool(getenv("LOG_JSON")); err == nil {
		c.LogJSON = v
	}
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.DBDriver != "postgres" && c.DBDriver != "pgx" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.DBDriver))
	}
	switch c.UploadBackend {
	case UploadLocal:
	case UploadS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when UPLOAD_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("UPLOAD_BACKEND must be local or s3, got %q", c.UploadBackend))
	}
	if c.RateLimitStore != RateLimitMemory && c.RateLimitStore != RateLimitPostgres {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE must be memory or postgres, got %q", c.RateLimitStore))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	if c.OIDCIssuer != "" && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range strings.Split(c.TrustedProxies, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid entry %q", raw)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// SSOEnabled reports whether an OIDC issuer is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != ""
}

// Warnings lists settings whose absence degrades features without
// preventing startup.
func (c *Config) Warnings() []string {
	var w []string
	if c.JWTSecret == "" {
		w = append(w, "JWT_SECRET is not set; admin login will fail")
	}
	if c.AdminPassword == "" {
		w = append(w, "ADMIN_PASSWORD is not set; login works only if a password hash is stored")
	}
	if c.ResendAPIKey == "" {
		w = append(w, "RESEND_API_KEY is not set; password reset and contact notifications are disabled")
	}
	if c.AdminEmail == "" {
		w = append(w, "ADMIN_EMAIL is not set; password reset and contact notifications are disabled")
	}
	return w
}
