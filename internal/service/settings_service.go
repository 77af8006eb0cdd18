package service

import (
	"context"
	"errors"
	"fmt"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
)

// Setting keys an admin is allowed to change. Anything else is rejected
// before touching storage.
var allowedSettingKeys = map[string]struct{}{
	"showCvDownload":      {},
	"showScheduleMeeting": {},
}

var (
	ErrInvalidSettingKey   = errors.New("invalid setting key")
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

// SettingsService manages the boolean feature flags behind the public site
// and the admin panel.
type SettingsService struct {
	settings sqlite.SettingRepository
}

// NewSettingsService creates the settings service.
func NewSettingsService(settings sqlite.SettingRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Update upserts an allow-listed flag. Values are the strings "true"/"false".
func (s *SettingsService) Update(ctx context.Context, key, value string) (*models.Setting, error) {
	if _, ok := allowedSettingKeys[key]; !ok {
		return nil, ErrInvalidSettingKey
	}
	if value != "true" && value != "false" {
		return nil, ErrInvalidSettingValue
	}
	return s.settings.Upsert(ctx, key, value)
}

// All returns every stored setting for the admin panel.
func (s *SettingsService) All(ctx context.Context) ([]models.Setting, error) {
	return s.settings.List(ctx)
}

// PublicFlags returns the flags the public site may read. A missing row
// means the feature is off.
func (s *SettingsService) PublicFlags(ctx context.Context) (map[string]bool, error) {
	setting, err := s.settings.Get(ctx, "showCvDownload")
	if errors.Is(err, sqlite.ErrNotFound) {
		return map[string]bool{"showCvDownload": false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("public flags: %w", err)
	}
	return map[string]bool{"showCvDownload": setting.Value == "true"}, nil
}
