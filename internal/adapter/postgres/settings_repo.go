package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"brandsite/internal/domain"
)

var _ domain.SettingsRepository = (*DB)(nil)

// GetSetting returns the value stored under key.
func (d *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM site_settings WHERE key = $1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// ListSettings returns every row of site_settings.
func (d *DB) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, value FROM site_settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SaveSettings upserts put and deletes del in one transaction.
func (d *DB) SaveSettings(ctx context.Context, put map[string]string, del ...string) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := d.now()
	for k, v := range put {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO site_settings (key, value, updated_at) VALUES ($1, $2, $3)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			k, v, now,
		); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}
	for _, k := range del {
		if _, err = tx.ExecContext(ctx, "DELETE FROM site_settings WHERE key = $1", k); err != nil {
			return fmt.Errorf("delete setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}
