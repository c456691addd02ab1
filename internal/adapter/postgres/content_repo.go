package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"brandsite/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// table describes how a content record maps onto its table. columns[0] is
// the primary key and values returns arguments in column order.
type table[T domain.Record] struct {
	name    string
	columns []string
	values  func(T) []any
	scan    func(scanner) (T, error)
}

// Collection stores one kind of ordered content record.
type Collection[T domain.Record] struct {
	db *DB
	t  table[T]
}

var _ domain.CollectionRepository[domain.Service] = (*Collection[domain.Service])(nil)

// List returns all rows ordered by sort_order, then id.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.db.sql.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY sort_order, id", strings.Join(c.t.columns, ", "), c.t.name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		item, err := c.t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Insert adds a row.
func (c *Collection[T]) Insert(ctx context.Context, item T) error {
	marks := make([]string, len(c.t.columns))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	_, err := c.db.sql.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.t.name, strings.Join(c.t.columns, ", "), strings.Join(marks, ", ")),
		c.t.values(item)...)
	return err
}

// Update overwrites every column of the row with item's id.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	sets := make([]string, 0, len(c.t.columns)-1)
	for i, col := range c.t.columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
	}
	res, err := c.db.sql.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", c.t.name, strings.Join(sets, ", "), c.t.columns[0]),
		c.t.values(item)...)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes the row with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.db.sql.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1", c.t.name, c.t.columns[0]), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Services returns the services table.
func (d *DB) Services() *Collection[domain.Service] {
	return &Collection[domain.Service]{db: d, t: table[domain.Service]{
		name:    "services",
		columns: []string{"id", "title_en", "title_ar", "description_en", "description_ar", "icon", "sort_order"},
		values: func(s domain.Service) []any {
			return []any{s.ID, s.TitleEn, s.TitleAr, s.DescriptionEn, s.DescriptionAr, s.Icon, s.SortOrder}
		},
		scan: func(r scanner) (domain.Service, error) {
			var s domain.Service
			err := r.Scan(&s.ID, &s.TitleEn, &s.TitleAr, &s.DescriptionEn, &s.DescriptionAr, &s.Icon, &s.SortOrder)
			return s, err
		},
	}}
}

// Media returns the media_items table.
func (d *DB) Media() *Collection[domain.MediaItem] {
	return &Collection[domain.MediaItem]{db: d, t: table[domain.MediaItem]{
		name:    "media_items",
		columns: []string{"id", "title_en", "title_ar", "type", "url", "thumbnail_url", "sort_order"},
		values: func(m domain.MediaItem) []any {
			return []any{m.ID, m.TitleEn, m.TitleAr, m.Type, m.URL, m.ThumbnailURL, m.SortOrder}
		},
		scan: func(r scanner) (domain.MediaItem, error) {
			var m domain.MediaItem
			err := r.Scan(&m.ID, &m.TitleEn, &m.TitleAr, &m.Type, &m.URL, &m.ThumbnailURL, &m.SortOrder)
			return m, err
		},
	}}
}

// Partners returns the organizations table.
func (d *DB) Partners() *Collection[domain.Organization] {
	return &Collection[domain.Organization]{db: d, t: table[domain.Organization]{
		name:    "organizations",
		columns: []string{"id", "name_en", "name_ar", "category", "logo_url", "sort_order"},
		values: func(o domain.Organization) []any {
			return []any{o.ID, o.NameEn, o.NameAr, o.Category, o.LogoURL, o.SortOrder}
		},
		scan: func(r scanner) (domain.Organization, error) {
			var o domain.Organization
			err := r.Scan(&o.ID, &o.NameEn, &o.NameAr, &o.Category, &o.LogoURL, &o.SortOrder)
			return o, err
		},
	}}
}

// Stats returns the experience_stats table.
func (d *DB) Stats() *Collection[domain.ExperienceStat] {
	return &Collection[domain.ExperienceStat]{db: d, t: table[domain.ExperienceStat]{
		name:    "experience_stats",
		columns: []string{"id", "value", "label_en", "label_ar", "sort_order"},
		values: func(e domain.ExperienceStat) []any {
			return []any{e.ID, e.Value, e.LabelEn, e.LabelAr, e.SortOrder}
		},
		scan: func(r scanner) (domain.ExperienceStat, error) {
			var e domain.ExperienceStat
			err := r.Scan(&e.ID, &e.Value, &e.LabelEn, &e.LabelAr, &e.SortOrder)
			return e, err
		},
	}}
}

// Timeline returns the experience_timeline table.
func (d *DB) Timeline() *Collection[domain.TimelineEntry] {
	return &Collection[domain.TimelineEntry]{db: d, t: table[domain.TimelineEntry]{
		name:    "experience_timeline",
		columns: []string{"id", "role_en", "role_ar", "period_en", "period_ar", "description_en", "description_ar", "sort_order"},
		values: func(t domain.TimelineEntry) []any {
			return []any{t.ID, t.RoleEn, t.RoleAr, t.PeriodEn, t.PeriodAr, t.DescriptionEn, t.DescriptionAr, t.SortOrder}
		},
		scan: func(r scanner) (domain.TimelineEntry, error) {
			var t domain.TimelineEntry
			err := r.Scan(&t.ID, &t.RoleEn, &t.RoleAr, &t.PeriodEn, &t.PeriodAr, &t.DescriptionEn, &t.DescriptionAr, &t.SortOrder)
			return t, err
		},
	}}
}

var _ domain.ProfileRepository = (*DB)(nil)

const profileColumns = `name_en, name_ar, title_en, title_ar, short_bio_en, short_bio_ar,
	location_en, location_ar, image_url, email, phone, whatsapp,
	social_instagram, social_twitter, social_youtube, social_tiktok, updated_at`

// GetProfile returns the single profile row.
func (d *DB) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	err := d.sql.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profile WHERE id = 'main'").Scan(
		&p.NameEn, &p.NameAr, &p.TitleEn, &p.TitleAr, &p.ShortBioEn, &p.ShortBioAr,
		&p.LocationEn, &p.LocationAr, &p.ImageURL, &p.Email, &p.Phone, &p.WhatsApp,
		&p.SocialInstagram, &p.SocialTwitter, &p.SocialYouTube, &p.SocialTikTok, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile upserts the profile row.
func (d *DB) SaveProfile(ctx context.Context, p domain.Profile) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profile (id, `+profileColumns+`)
		 VALUES ('main', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
			name_en = EXCLUDED.name_en, name_ar = EXCLUDED.name_ar,
			title_en = EXCLUDED.title_en, title_ar = EXCLUDED.title_ar,
			short_bio_en = EXCLUDED.short_bio_en, short_bio_ar = EXCLUDED.short_bio_ar,
			location_en = EXCLUDED.location_en, location_ar = EXCLUDED.location_ar,
			image_url = EXCLUDED.image_url, email = EXCLUDED.email, phone = EXCLUDED.phone,
			whatsapp = EXCLUDED.whatsapp, social_instagram = EXCLUDED.social_instagram,
			social_twitter = EXCLUDED.social_twitter, social_youtube = EXCLUDED.social_youtube,
			social_tiktok = EXCLUDED.social_tiktok, updated_at = EXCLUDED.updated_at`,
		p.NameEn, p.NameAr, p.TitleEn, p.TitleAr, p.ShortBioEn, p.ShortBioAr,
		p.LocationEn, p.LocationAr, p.ImageURL, p.Email, p.Phone, p.WhatsApp,
		p.SocialInstagram, p.SocialTwitter, p.SocialYouTube, p.SocialTikTok, p.UpdatedAt,
	)
	return err
}
