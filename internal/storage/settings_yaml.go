package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

type yamlSettings struct {
	WorkMinutes            int   `yaml:"work_minutes"`
	BreakMinutes           int   `yaml:"break_minutes"`
	LongBreakMinutes       int   `yaml:"long_break_minutes"`
	SessionsUntilLongBreak int   `yaml:"sessions_until_long_break"`
	AutoStartBreaks        *bool `yaml:"auto_start_breaks"`
	AutoStartNextFocus     *bool `yaml:"auto_start_next_focus"`
}

// LoadSettings reads cycle settings from YAML.
// If the file does not exist, default settings are returned.
func LoadSettings(path string) (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes cycle settings to YAML. Durations are stored in
// whole minutes; other durations are rejected.
func SaveSettings(path string, settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, duration := range []struct {
		name    string
		seconds int
	}{
		{"work", settings.WorkDurationSeconds},
		{"break", settings.BreakDurationSeconds},
		{"long break", settings.LongBreakDurationSeconds},
	} {
		if duration.seconds%60 != 0 {
			return errclass.ErrSettingsInvalid.WithMessagef("%s duration must be whole minutes, got %ds", duration.name, duration.seconds)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	autoStartBreaks := settings.AutoStartBreaks
	autoStartNextFocus := settings.AutoStartNextFocus
	fileData := yamlSettings{
		WorkMinutes:            settings.WorkDurationSeconds / 60,
		BreakMinutes:           settings.BreakDurationSeconds / 60,
		LongBreakMinutes:       settings.LongBreakDurationSeconds / 60,
		SessionsUntilLongBreak: settings.SessionsUntilLongBreak,
		AutoStartBreaks:        &autoStartBreaks,
		AutoStartNextFocus:     &autoStartNextFocus,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := atomicWrite(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	if fileData.WorkMinutes > 0 {
		settings.WorkDurationSeconds = fileData.WorkMinutes * 60
	}
	if fileData.BreakMinutes > 0 {
		settings.BreakDurationSeconds = fileData.BreakMinutes * 60
	}
	if fileData.LongBreakMinutes > 0 {
		settings.LongBreakDurationSeconds = fileData.LongBreakMinutes * 60
	}
	if fileData.SessionsUntilLongBreak > 0 {
		settings.SessionsUntilLongBreak = fileData.SessionsUntilLongBreak
	}
	if fileData.AutoStartBreaks != nil {
		settings.AutoStartBreaks = *fileData.AutoStartBreaks
	}
	if fileData.AutoStartNextFocus != nil {
		settings.AutoStartNextFocus = *fileData.AutoStartNextFocus
	}
}
