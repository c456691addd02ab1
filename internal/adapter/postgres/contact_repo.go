package postgres

import (
	"context"
	"database/sql"
	"errors"

	"brandsite/internal/domain"
)

var _ domain.ContactRepository = (*DB)(nil)

const contactColumns = "id, name, email, phone, message, is_read, created_at"

// CreateContact inserts a submission.
func (d *DB) CreateContact(ctx context.Context, c domain.ContactSubmission) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO contact_submissions ("+contactColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		c.ID, c.Name, c.Email, c.Phone, c.Message, c.IsRead, c.CreatedAt,
	)
	return err
}

// GetContact returns one submission by id.
func (d *DB) GetContact(ctx context.Context, id string) (*domain.ContactSubmission, error) {
	var c domain.ContactSubmission
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contact_submissions WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Message, &c.IsRead, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContacts returns submissions newest first.
func (d *DB) ListContacts(ctx context.Context) ([]domain.ContactSubmission, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contact_submissions ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ContactSubmission
	for rows.Next() {
		var c domain.ContactSubmission
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Message, &c.IsRead, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetContactRead updates the read flag.
func (d *DB) SetContactRead(ctx context.Context, id string, read bool) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE contact_submissions SET is_read = $1 WHERE id = $2", read, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteContact removes a submission.
func (d *DB) DeleteContact(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM contact_submissions WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
