package app

import (
	"context"
	"errors"
	"testing"

	"brandsite/internal/adapter/memory"
	"brandsite/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContent() (*ContentService, *memory.DB) {
	db := memory.New()
	svc := NewContentService(ContentRepos{
		Profile:  db,
		Services: db.Services,
		Media:    db.Media,
		Partners: db.Partners,
		Stats:    db.Stats,
		Timeline: db.Timeline,
		Settings: db,
	})
	ids := []string{"id-1", "id-2", "id-3", "id-4"}
	next := func() string { id := ids[0]; ids = ids[1:]; return id }
	svc.Services.newID = next
	svc.Media.newID = next
	return svc, db
}

func TestCollectionCRUD(t *testing.T) {
	svc, _ := newTestContent()
	ctx := context.Background()

	created, err := svc.Services.Create(ctx, domain.Service{ID: "client-chosen", TitleEn: " Hosting ", TitleAr: "تقديم", SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Hosting", created.TitleEn)

	_, err = svc.Services.Create(ctx, domain.Service{TitleEn: "Voice", TitleAr: "صوت", SortOrder: 1})
	require.NoError(t, err)

	list, err := svc.Services.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "id-2", list[0].ID)

	created.TitleEn = "Event hosting"
	_, err = svc.Services.Update(ctx, created)
	require.NoError(t, err)

	_, err = svc.Services.Update(ctx, domain.Service{TitleEn: "x", TitleAr: "y"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Services.Update(ctx, domain.Service{ID: "ghost", TitleEn: "x", TitleAr: "y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Services.Delete(ctx, "id-1"))
	assert.True(t, domain.IsValidation(svc.Services.Delete(ctx, "")))
}

func TestValidators(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestContent()

	_, err := svc.Services.Create(ctx, domain.Service{TitleEn: "only english"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Media.Create(ctx, domain.MediaItem{TitleEn: "a", TitleAr: "ب", Type: "image", URL: "/videos/x.mp4"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Media.Create(ctx, domain.MediaItem{TitleEn: "a", TitleAr: "ب", Type: domain.MediaVideo})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Media.Create(ctx, domain.MediaItem{TitleEn: "a", TitleAr: "ب", Type: domain.MediaAudio, URL: "/audio/a.mp3"})
	assert.NoError(t, err)

	_, err = svc.Partners.Create(ctx, domain.Organization{NameEn: "MBC", NameAr: "إم بي سي", Category: "sponsor"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Stats.Create(ctx, domain.ExperienceStat{LabelEn: "years", LabelAr: "سنوات"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Timeline.Create(ctx, domain.TimelineEntry{RoleEn: "Host"})
	assert.True(t, domain.IsValidation(err))
}

func TestProfile(t *testing.T) {
	svc, _ := newTestContent()
	ctx := context.Background()

	p, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{}, *p)

	_, err = svc.UpdateProfile(ctx, domain.Profile{Email: "bad"})
	assert.True(t, domain.IsValidation(err))

	saved, err := svc.UpdateProfile(ctx, domain.Profile{NameEn: " Sara ", Email: "sara@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Sara", saved.NameEn)
	assert.False(t, saved.UpdatedAt.IsZero())
}

func TestSettingsHideCredentialKeys(t *testing.T) {
	svc, db := newTestContent()
	ctx := context.Background()

	require.NoError(t, db.SaveSettings(ctx, map[string]string{
		domain.SettingPasswordHash: "hash",
		domain.SettingResetToken:   "tok",
		"hero_video_url":           "/videos/hero.mp4",
	}))

	all, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hero_video_url": "/videos/hero.mp4"}, all)

	err = svc.PutSetting(ctx, domain.SettingPasswordHash, "overwrite")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	v, _, _ := db.GetSetting(ctx, domain.SettingPasswordHash)
	assert.Equal(t, "hash", v)

	assert.True(t, domain.IsValidation(svc.PutSetting(ctx, " ", "x")))
	require.NoError(t, svc.PutSetting(ctx, domain.SettingMaintenanceMode, "true"))
}

func TestSite(t *testing.T) {
	svc, db := newTestContent()
	ctx := context.Background()

	require.NoError(t, db.SaveSettings(ctx, map[string]string{
		domain.SettingPasswordHash:    "hash",
		domain.SettingMaintenanceMode: "true",
		"internal_note":               "x",
	}))
	_, err := svc.Services.Create(ctx, domain.Service{TitleEn: "a", TitleAr: "ب"})
	require.NoError(t, err)

	site, err := svc.Site(ctx)
	require.NoError(t, err)
	assert.True(t, site.Maintenance)
	assert.Equal(t, map[string]string{domain.SettingMaintenanceMode: "true"}, site.Settings)
	assert.Len(t, site.Services, 1)
	assert.NotNil(t, site.Profile)
}
