package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"schoolportal/model"
)

// SettingsDefaults seeds the settings row on first access
type SettingsDefaults struct {
	SchoolName      string
	ThemeDefault    string
	RetentionMonths int
}

// SettingsService manages the singleton application settings row
type SettingsService struct {
	db       *gorm.DB
	defaults SettingsDefaults
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB, defaults SettingsDefaults) *SettingsService {
	return &SettingsService{db: db, defaults: defaults}
}

// GetOrCreate returns the settings row, creating it from environment
// defaults on first access.
func (s *SettingsService) GetOrCreate(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	err := s.db.WithContext(ctx).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings = model.Settings{
		SchoolName:      s.defaults.SchoolName,
		ThemeDefault:    s.defaults.ThemeDefault,
		RetentionMonths: s.defaults.RetentionMonths,
	}
	if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}

	return &settings, nil
}

// UpdateSettingsInput holds the updatable settings fields. Nil pointers
// leave the current value untouched.
type UpdateSettingsInput struct {
	SchoolName      *string `json:"schoolName" validate:"omitempty,min=1,max=255"`
	ThemeDefault    *string `json:"themeDefault" validate:"omitempty,oneof=light dark"`
	RetentionMonths *int    `json:"retentionMonths" validate:"omitempty,min=1,max=120"`
}

// Update applies a partial settings update and returns the new row
func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*model.Settings, error) {
	settings, err := s.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.SchoolName != nil {
		updates["school_name"] = *input.SchoolName
	}
	if input.ThemeDefault != nil {
		updates["theme_default"] = *input.ThemeDefault
	}
	if input.RetentionMonths != nil {
		updates["retention_months"] = *input.RetentionMonths
	}
	if len(updates) == 0 {
		return settings, nil
	}

	if err := s.db.WithContext(ctx).Model(settings).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return settings, nil
}
