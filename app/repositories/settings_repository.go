package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, inserting the defaults on first read.
func (r *SettingsRepository) Get(ctx context.Context) (models.SiteSettings, error) {
	var s models.SiteSettings
	err := orm.Use(r.db).WithContext(ctx).Model(&models.SiteSettings{}).Where("id = ?", models.SettingsID).First(&s)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, orm.ErrNotFound) {
		return s, err
	}

	s = models.DefaultSiteSettings()
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return s, err
	}
	return s, nil
}

// Save writes every column of s.
func (r *SettingsRepository) Save(ctx context.Context, s *models.SiteSettings) error {
	s.ID = models.SettingsID
	return r.db.WithContext(ctx).Save(s).Error
}

// Update loads the settings, lets fn change them and saves the result, all
// in one transaction.
func (r *SettingsRepository) Update(ctx context.Context, fn func(*models.SiteSettings)) (models.SiteSettings, error) {
	var out models.SiteSettings
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		inner := NewSettingsRepository(tx)
		s, err := inner.Get(ctx)
		if err != nil {
			return err
		}
		fn(&s)
		if err := inner.Save(ctx, &s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}
