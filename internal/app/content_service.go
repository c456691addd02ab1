package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"brandsite/internal/domain"

	"github.com/google/uuid"
)

const (
	maxTitle = 200
	maxText  = 4000
	maxURL   = 2048
	maxKey   = 100
)

var publicSettings = []string{domain.SettingHeroVideoURL, domain.SettingMaintenanceMode, domain.SettingShowPartners}

// Collection adds validation and id assignment on top of an ordered content
// repository.
type Collection[T domain.Record] struct {
	repo     domain.CollectionRepository[T]
	validate func(*T) error
	withID   func(T, string) T
	newID    func() string
}

// NewCollection builds a Collection. validate may normalize the item in place.
func NewCollection[T domain.Record](repo domain.CollectionRepository[T], validate func(*T) error, withID func(T, string) T) *Collection[T] {
	return &Collection[T]{repo: repo, validate: validate, withID: withID, newID: uuid.NewString}
}

// List returns items in display order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.repo.List(ctx)
}

// Create validates item, assigns a new id and stores it.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	if err := c.validate(&item); err != nil {
		return item, err
	}
	item = c.withID(item, c.newID())
	if err := c.repo.Insert(ctx, item); err != nil {
		return item, err
	}
	return item, nil
}

// Update validates and overwrites an existing item.
func (c *Collection[T]) Update(ctx context.Context, item T) (T, error) {
	if item.RecordID() == "" {
		return item, domain.Invalid("id", "id is required")
	}
	if err := c.validate(&item); err != nil {
		return item, err
	}
	if err := c.repo.Update(ctx, item); err != nil {
		return item, err
	}
	return item, nil
}

// Delete removes the item with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.Invalid("id", "id is required")
	}
	return c.repo.Delete(ctx, id)
}

// ContentRepos groups the content ports.
type ContentRepos struct {
	Profile  domain.ProfileRepository
	Services domain.CollectionRepository[domain.Service]
	Media    domain.CollectionRepository[domain.MediaItem]
	Partners domain.CollectionRepository[domain.Organization]
	Stats    domain.CollectionRepository[domain.ExperienceStat]
	Timeline domain.CollectionRepository[domain.TimelineEntry]
	Settings domain.SettingsRepository
}

// ContentService covers the admin CRUD screens and the public read model.
type ContentService struct {
	Services *Collection[domain.Service]
	Media    *Collection[domain.MediaItem]
	Partners *Collection[domain.Organization]
	Stats    *Collection[domain.ExperienceStat]
	Timeline *Collection[domain.TimelineEntry]

	profile  domain.ProfileRepository
	settings domain.SettingsRepository
	now      func() time.Time
}

// NewContentService creates a ContentService over repos.
func NewContentService(repos ContentRepos) *ContentService {
	return &ContentService{
		Services: NewCollection(repos.Services, validateService, func(s domain.Service, id string) domain.Service { s.ID = id; return s }),
		Media:    NewCollection(repos.Media, validateMedia, func(m domain.MediaItem, id string) domain.MediaItem { m.ID = id; return m }),
		Partners: NewCollection(repos.Partners, validateOrganization, func(o domain.Organization, id string) domain.Organization { o.ID = id; return o }),
		Stats:    NewCollection(repos.Stats, validateStat, func(e domain.ExperienceStat, id string) domain.ExperienceStat { e.ID = id; return e }),
		Timeline: NewCollection(repos.Timeline, validateTimeline, func(t domain.TimelineEntry, id string) domain.TimelineEntry { t.ID = id; return t }),
		profile:  repos.Profile,
		settings: repos.Settings,
		now:      time.Now,
	}
}

// Profile returns the stored profile, or an empty one if none exists yet.
func (s *ContentService) Profile(ctx context.Context) (*domain.Profile, error) {
	p, err := s.profile.GetProfile(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Profile{}, nil
	}
	return p, err
}

// UpdateProfile normalizes and saves p.
func (s *ContentService) UpdateProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	trim(&p.NameEn, &p.NameAr, &p.TitleEn, &p.TitleAr, &p.ShortBioEn, &p.ShortBioAr,
		&p.LocationEn, &p.LocationAr, &p.ImageURL, &p.Email, &p.Phone, &p.WhatsApp,
		&p.SocialInstagram, &p.SocialTwitter, &p.SocialYouTube, &p.SocialTikTok)
	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		return nil, domain.Invalid("email", "invalid email address")
	}
	if err := maxLen("short_bio_en", p.ShortBioEn, maxText); err != nil {
		return nil, err
	}
	if err := maxLen("short_bio_ar", p.ShortBioAr, maxText); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.profile.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Settings returns every non-reserved setting.
func (s *ContentService) Settings(ctx context.Context) (map[string]string, error) {
	all, err := s.settings.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if !domain.IsReservedSetting(k) {
			out[k] = v
		}
	}
	return out, nil
}

// PutSetting upserts one setting. Credential keys are refused.
func (s *ContentService) PutSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Invalid("key", "key is required")
	}
	if err := maxLen("key", key, maxKey); err != nil {
		return err
	}
	if domain.IsReservedSetting(key) {
		return fmt.Errorf("setting %q is managed by the auth flow: %w", key, domain.ErrForbidden)
	}
	return s.settings.SaveSettings(ctx, map[string]string{key: value})
}

// Site assembles the public read model.
func (s *ContentService) Site(ctx context.Context) (*domain.Site, error) {
	var (
		site domain.Site
		err  error
	)
	if site.Profile, err = s.Profile(ctx); err != nil {
		return nil, err
	}
	if site.Services, err = s.Services.List(ctx); err != nil {
		return nil, err
	}
	if site.Media, err = s.Media.List(ctx); err != nil {
		return nil, err
	}
	if site.Partners, err = s.Partners.List(ctx); err != nil {
		return nil, err
	}
	if site.Stats, err = s.Stats.List(ctx); err != nil {
		return nil, err
	}
	if site.Timeline, err = s.Timeline.List(ctx); err != nil {
		return nil, err
	}

	all, err := s.settings.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	site.Settings = make(map[string]string, len(publicSettings))
	for _, k := range publicSettings {
		if v, ok := all[k]; ok {
			site.Settings[k] = v
		}
	}
	site.Maintenance = all[domain.SettingMaintenanceMode] == "true"
	return &site, nil
}

func validateService(s *domain.Service) error {
	trim(&s.TitleEn, &s.TitleAr, &s.DescriptionEn, &s.DescriptionAr, &s.Icon)
	if err := bilingualTitle("title", s.TitleEn, s.TitleAr); err != nil {
		return err
	}
	if err := maxLen("description_en", s.DescriptionEn, maxText); err != nil {
		return err
	}
	return maxLen("description_ar", s.DescriptionAr, maxText)
}

func validateMedia(m *domain.MediaItem) error {
	trim(&m.TitleEn, &m.TitleAr, &m.Type, &m.URL, &m.ThumbnailURL)
	if err := bilingualTitle("title", m.TitleEn, m.TitleAr); err != nil {
		return err
	}
	if m.Type != domain.MediaVideo && m.Type != domain.MediaAudio {
		return domain.Invalid("type", "must be video or audio")
	}
	if m.URL == "" {
		return domain.Invalid("url", "url is required")
	}
	if err := maxLen("url", m.URL, maxURL); err != nil {
		return err
	}
	return maxLen("thumbnail_url", m.ThumbnailURL, maxURL)
}

func validateOrganization(o *domain.Organization) error {
	trim(&o.NameEn, &o.NameAr, &o.Category, &o.LogoURL)
	if err := bilingualTitle("name", o.NameEn, o.NameAr); err != nil {
		return err
	}
	if o.Category != domain.OrgChannel && o.Category != domain.OrgEntity {
		return domain.Invalid("category", "must be channel or entity")
	}
	return maxLen("logo_url", o.LogoURL, maxURL)
}

func validateStat(e *domain.ExperienceStat) error {
	trim(&e.Value, &e.LabelEn, &e.LabelAr)
	if e.Value == "" {
		return domain.Invalid("value", "value is required")
	}
	return bilingualTitle("label", e.LabelEn, e.LabelAr)
}

func validateTimeline(t *domain.TimelineEntry) error {
	trim(&t.RoleEn, &t.RoleAr, &t.PeriodEn, &t.PeriodAr, &t.DescriptionEn, &t.DescriptionAr)
	if err := bilingualTitle("role", t.RoleEn, t.RoleAr); err != nil {
		return err
	}
	if err := maxLen("description_en", t.DescriptionEn, maxText); err != nil {
		return err
	}
	return maxLen("description_ar", t.DescriptionAr, maxText)
}

func bilingualTitle(field, en, ar string) error {
	if en == "" || ar == "" {
		return domain.Invalid(field, "both English and Arabic values are required")
	}
	if err := maxLen(field+"_en", en, maxTitle); err != nil {
		return err
	}
	return maxLen(field+"_ar", ar, maxTitle)
}

func maxLen(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return domain.Invalid(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
