package domain

import (
	"context"
	"time"
)

// Record is implemented by every orderable content entity.
type Record interface {
	RecordID() string
	RecordOrder() int
}

// CollectionRepository is the persistence port shared by the ordered content
// lists (services, media, partners, experience stats and timeline).
type CollectionRepository[T Record] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, item T) error
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// Profile is the single bilingual "about the owner" record.
type Profile struct {
	NameEn          string    `json:"name_en"`
	NameAr          string    `json:"name_ar"`
	TitleEn         string    `json:"title_en"`
	TitleAr         string    `json:"title_ar"`
	ShortBioEn      string    `json:"short_bio_en"`
	ShortBioAr      string    `json:"short_bio_ar"`
	LocationEn      string    `json:"location_en"`
	LocationAr      string    `json:"location_ar"`
	ImageURL        string    `json:"image_url"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	WhatsApp        string    `json:"whatsapp"`
	SocialInstagram string    `json:"social_instagram"`
	SocialTwitter   string    `json:"social_twitter"`
	SocialYouTube   string    `json:"social_youtube"`
	SocialTikTok    string    `json:"social_tiktok"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileRepository persists the profile row.
type ProfileRepository interface {
	GetProfile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, p Profile) error
}

// Service is an offered service card.
type Service struct {
	ID            string `json:"id"`
	TitleEn       string `json:"title_en"`
	TitleAr       string `json:"title_ar"`
	DescriptionEn string `json:"description_en"`
	DescriptionAr string `json:"description_ar"`
	Icon          string `json:"icon"`
	SortOrder     int    `json:"sort_order"`
}

func (s Service) RecordID() string { return s.ID }
func (s Service) RecordOrder() int { return s.SortOrder }

// Media types.
const (
	MediaVideo = "video"
	MediaAudio = "audio"
)

// MediaItem is a video or audio sample shown on the media page.
type MediaItem struct {
	ID           string `json:"id"`
	TitleEn      string `json:"title_en"`
	TitleAr      string `json:"title_ar"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	SortOrder    int    `json:"sort_order"`
}

func (m MediaItem) RecordID() string { return m.ID }
func (m MediaItem) RecordOrder() int { return m.SortOrder }

// Organization categories.
const (
	OrgChannel = "channel"
	OrgEntity  = "entity"
)

// Organization is a partner shown in the logo wall.
type Organization struct {
	ID        string `json:"id"`
	NameEn    string `json:"name_en"`
	NameAr    string `json:"name_ar"`
	Category  string `json:"category"`
	LogoURL   string `json:"logo_url"`
	SortOrder int    `json:"sort_order"`
}

func (o Organization) RecordID() string { return o.ID }
func (o Organization) RecordOrder() int { return o.SortOrder }

// ExperienceStat is a headline number such as "+16 years in media".
type ExperienceStat struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	LabelEn   string `json:"label_en"`
	LabelAr   string `json:"label_ar"`
	SortOrder int    `json:"sort_order"`
}

func (e ExperienceStat) RecordID() string { return e.ID }
func (e ExperienceStat) RecordOrder() int { return e.SortOrder }

// TimelineEntry is one role on the experience timeline.
type TimelineEntry struct {
	ID            string `json:"id"`
	RoleEn        string `json:"role_en"`
	RoleAr        string `json:"role_ar"`
	PeriodEn      string `json:"period_en"`
	PeriodAr      string `json:"period_ar"`
	DescriptionEn string `json:"description_en"`
	DescriptionAr string `json:"description_ar"`
	SortOrder     int    `json:"sort_order"`
}

func (t TimelineEntry) RecordID() string { return t.ID }
func (t TimelineEntry) RecordOrder() int { return t.SortOrder }

// Public settings keys.
const (
	SettingHeroVideoURL    = "hero_video_url"
	SettingMaintenanceMode = "maintenance_mode"
	SettingShowPartners    = "show_partners"
)

// Site is the read model served to the public pages.
type Site struct {
	Profile     *Profile          `json:"profile"`
	Services    []Service         `json:"services"`
	Media       []MediaItem       `json:"media"`
	Partners    []Organization    `json:"partners"`
	Stats       []ExperienceStat  `json:"stats"`
	Timeline    []TimelineEntry   `json:"timeline"`
	Settings    map[string]string `json:"settings"`
	Maintenance bool              `json:"maintenance"`
}
