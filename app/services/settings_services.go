package services

import (
	"context"
	"fmt"
	"time"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/cache"
)

const (
	settingsCacheKey = "perennia:settings"
	settingsCacheTTL = 5 * time.Minute
)

type SettingsService struct {
	settings *repositories.SettingsRepository
}

func NewSettingsService(settings *repositories.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the site settings, creating the defaults on first use.
func (s *SettingsService) Get(ctx context.Context) (models.SiteSettings, error) {
	out, err := cache.Remember(ctx, settingsCacheKey, settingsCacheTTL, func() (models.SiteSettings, error) {
		return s.settings.Get(ctx)
	})
	if err != nil {
		return out, fmt.Errorf("services: load settings: %w", err)
	}
	return out, nil
}

// Update merges u into the stored settings.
func (s *SettingsService) Update(ctx context.Context, u models.SiteSettingsUpdate) (models.SiteSettings, error) {
	if u.IsEmpty() {
		return models.SiteSettings{}, BadRequest("No data to update")
	}

	out, err := s.settings.Update(ctx, func(cur *models.SiteSettings) { cur.Apply(u) })
	if err != nil {
		return out, fmt.Errorf("services: update settings: %w", err)
	}
	_ = cache.Del(ctx, settingsCacheKey)
	return out, nil
}
