// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"brandsite/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	settings map[string]string
	profile  *domain.Profile
	contacts []domain.ContactSubmission

	Services *Collection[domain.Service]
	Media    *Collection[domain.MediaItem]
	Partners *Collection[domain.Organization]
	Stats    *Collection[domain.ExperienceStat]
	Timeline *Collection[domain.TimelineEntry]
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		settings: make(map[string]string),
		Services: NewCollection[domain.Service](),
		Media:    NewCollection[domain.MediaItem](),
		Partners: NewCollection[domain.Organization](),
		Stats:    NewCollection[domain.ExperienceStat](),
		Timeline: NewCollection[domain.TimelineEntry](),
	}
}

// Ensure interfaces are met.
var _ domain.SettingsRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.ContactRepository = (*DB)(nil)
var _ domain.CollectionRepository[domain.Service] = (*Collection[domain.Service])(nil)

// --- SettingsRepository ---

// GetSetting returns a setting by key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.settings[key]
	return v, ok, nil
}

// ListSettings returns a copy of all settings.
func (db *DB) ListSettings(ctx context.Context) (map[string]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string]string, len(db.settings))
	for k, v := range db.settings {
		out[k] = v
	}
	return out, nil
}

// SaveSettings applies puts and deletes under one lock.
func (db *DB) SaveSettings(ctx context.Context, put map[string]string, del ...string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for k, v := range put {
		db.settings[k] = v
	}
	for _, k := range del {
		delete(db.settings, k)
	}
	return nil
}

// --- ProfileRepository ---

// GetProfile returns the profile.
func (db *DB) GetProfile(ctx context.Context) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.profile == nil {
		return nil, domain.ErrNotFound
	}
	p := *db.profile
	return &p, nil
}

// SaveProfile replaces the profile.
func (db *DB) SaveProfile(ctx context.Context, p domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.profile = &p
	return nil
}

// --- ContactRepository ---

// CreateContact stores a submission.
func (db *DB) CreateContact(ctx context.Context, c domain.ContactSubmission) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.contacts = append(db.contacts, c)
	return nil
}

// GetContact returns one submission.
func (db *DB) GetContact(ctx context.Context, id string) (*domain.ContactSubmission, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, c := range db.contacts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListContacts returns submissions newest first.
func (db *DB) ListContacts(ctx context.Context) ([]domain.ContactSubmission, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.ContactSubmission, len(db.contacts))
	copy(result, db.contacts)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// SetContactRead updates the read flag.
func (db *DB) SetContactRead(ctx context.Context, id string, read bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.contacts {
		if db.contacts[i].ID == id {
			db.contacts[i].IsRead = read
			return nil
		}
	}
	return domain.ErrNotFound
}

// DeleteContact removes a submission.
func (db *DB) DeleteContact(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, c := range db.contacts {
		if c.ID == id {
			db.contacts = append(db.contacts[:i], db.contacts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Collection is an ordered in-memory content list.
type Collection[T domain.Record] struct {
	mu    sync.Mutex
	items []T
}

// NewCollection creates an empty collection.
func NewCollection[T domain.Record]() *Collection[T] {
	return &Collection[T]{}
}

// List returns items ordered by sort order, then id.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]T, len(c.items))
	copy(result, c.items)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RecordOrder() != result[j].RecordOrder() {
			return result[i].RecordOrder() < result[j].RecordOrder()
		}
		return result[i].RecordID() < result[j].RecordID()
	})
	return result, nil
}

// Insert appends item.
func (c *Collection[T]) Insert(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, item)
	return nil
}

// Update replaces the item with the same id.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].RecordID() == item.RecordID() {
			c.items[i] = item
			return nil
		}
	}
	return domain.ErrNotFound
}

// Delete removes the item with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].RecordID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
