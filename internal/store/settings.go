package store

import (
	"context"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/model"
	"transport-service/prometheus"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsStore persists the platform-wide settings row
type SettingsStore struct {
	db *gorm.DB
}

// NewSettingsStore creates a settings store
func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the global settings, creating the row on first use.
// The insert is ON CONFLICT DO NOTHING so concurrent first reads cannot race.
func (s *SettingsStore) Get(ctx context.Context) (*model.GlobalSettings, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	seed := model.GlobalSettings{ID: model.GlobalSettingsID, Settings: datatypes.JSONMap{}}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, apperr.FromDB(err, "settings", "")
	}

	var settings model.GlobalSettings
	if err := db.First(&settings, model.GlobalSettingsID).Error; err != nil {
		return nil, apperr.FromDB(err, "settings", "")
	}
	if settings.Settings == nil {
		settings.Settings = datatypes.JSONMap{}
	}
	return &settings, nil
}

// Update replaces the settings document
func (s *SettingsStore) Update(ctx context.Context, values datatypes.JSONMap) (*model.GlobalSettings, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	row := model.GlobalSettings{ID: model.GlobalSettingsID, Settings: values}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, apperr.FromDB(err, "settings", "")
	}
	return s.Get(ctx)
}
