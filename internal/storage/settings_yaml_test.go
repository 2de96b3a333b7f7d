package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSaveAndLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studyfocus", "settings.yaml")
	want := model.Settings{
		WorkDurationSeconds:      50 * 60,
		BreakDurationSeconds:     10 * 60,
		LongBreakDurationSeconds: 30 * 60,
		SessionsUntilLongBreak:   3,
		AutoStartBreaks:          false,
		AutoStartNextFocus:       true,
	}
	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: 45\nbreak_minutes: 0\n"), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 45*60, settings.WorkDurationSeconds)
	assert.Equal(t, 300, settings.BreakDurationSeconds)
	assert.True(t, settings.AutoStartBreaks)
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_minutes: [oops"), 0o644))

	settings, err := LoadSettings(path)
	assert.Error(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	settings := model.DefaultSettings()
	settings.SessionsUntilLongBreak = 0
	err := SaveSettings(filepath.Join(t.TempDir(), "settings.yaml"), settings)
	assert.True(t, errors.Is(err, errclass.ErrSettingsInvalid))
}

func TestSaveSettingsRejectsPartialMinutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	for _, mutate := range []func(*model.Settings){
		func(s *model.Settings) { s.WorkDurationSeconds = 90 },
		func(s *model.Settings) { s.BreakDurationSeconds = 45 },
		func(s *model.Settings) { s.LongBreakDurationSeconds = 901 },
	} {
		settings := model.DefaultSettings()
		mutate(&settings)
		err := SaveSettings(path, settings)
		assert.True(t, errors.Is(err, errclass.ErrSettingsInvalid), "settings %+v", settings)
	}
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
