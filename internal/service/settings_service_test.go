package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAllowListedKey(t *testing.T) {
	repo := &fakeSettingRepo{}
	s := NewSettingsService(repo)

	setting, err := s.Update(context.Background(), "showCvDownload", "true")
	require.NoError(t, err)
	assert.Equal(t, "showCvDownload", setting.Key)
	assert.Equal(t, "true", setting.Value)

	// Upsert, not insert.
	setting, err = s.Update(context.Background(), "showCvDownload", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", setting.Value)
	assert.Equal(t, "false", repo.settings["showCvDownload"])
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	repo := &fakeSettingRepo{}
	s := NewSettingsService(repo)

	_, err := s.Update(context.Background(), "adminPassword", "true")
	assert.ErrorIs(t, err, ErrInvalidSettingKey)
	assert.Empty(t, repo.settings)
}

func TestUpdateRejectsNonBooleanValue(t *testing.T) {
	s := NewSettingsService(&fakeSettingRepo{})

	for _, value := range []string{"", "yes", "TRUE", "1"} {
		_, err := s.Update(context.Background(), "showCvDownload", value)
		assert.ErrorIs(t, err, ErrInvalidSettingValue, "value=%q", value)
	}
}

func TestPublicFlagsDefaultsToOff(t *testing.T) {
	s := NewSettingsService(&fakeSettingRepo{})

	flags, err := s.PublicFlags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"showCvDownload": false}, flags)
}

func TestPublicFlagsReflectsStoredValue(t *testing.T) {
	repo := &fakeSettingRepo{settings: map[string]string{"showCvDownload": "true"}}
	s := NewSettingsService(repo)

	flags, err := s.PublicFlags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"showCvDownload": true}, flags)
}
