package postgres

import (
	"context"
	"log/slog"
	"time"

	"brandsite/internal/domain"
)

// RateLimiter keeps per-(scope, identifier) counters in the rate_limits
// table so every instance shares them. Storage errors admit the request.
type RateLimiter struct {
	db     *DB
	scope  string
	limit  int
	window time.Duration
	log    *slog.Logger
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter for scope admitting limit attempts per window.
func (d *DB) NewRateLimiter(scope string, limit int, window time.Duration, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{db: d, scope: scope, limit: limit, window: window, log: log}
}

// Allow records an attempt and reports whether it is admitted.
func (l *RateLimiter) Allow(ctx context.Context, identifier string) (bool, time.Duration) {
	if identifier == "" {
		identifier = "unknown"
	}
	now := l.db.now()
	cutoff := now.Add(-l.window)

	var count int
	err := l.db.sql.QueryRowContext(ctx,
		`INSERT INTO rate_limits (scope, identifier, count, last_attempt) VALUES ($1, $2, 1, $3)
		 ON CONFLICT (scope, identifier) DO UPDATE SET
			count = CASE WHEN rate_limits.last_attempt < $4 THEN 1 ELSE rate_limits.count + 1 END,
			last_attempt = EXCLUDED.last_attempt
		 RETURNING count`,
		l.scope, identifier, now, cutoff,
	).Scan(&count)
	if err != nil {
		l.log.Warn("rate limit check failed", "scope", l.scope, "err", err)
		return true, 0
	}
	if count > l.limit {
		return false, l.window
	}
	return true, 0
}

// PurgeRateLimits deletes counters idle for longer than maxAge.
func (d *DB) PurgeRateLimits(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM rate_limits WHERE last_attempt < $1", d.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
