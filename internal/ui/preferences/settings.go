package preferences

import (
	"strconv"
	"strings"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

// Form is the editable text of the settings window. Durations are whole
// minutes.
type Form struct {
	WorkMinutes        string
	BreakMinutes       string
	LongBreakMinutes   string
	Sessions           string
	AutoStartBreaks    bool
	AutoStartNextFocus bool
}

// FormFromSettings renders settings for editing.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		WorkMinutes:        strconv.Itoa(settings.WorkDurationSeconds / 60),
		BreakMinutes:       strconv.Itoa(settings.BreakDurationSeconds / 60),
		LongBreakMinutes:   strconv.Itoa(settings.LongBreakDurationSeconds / 60),
		Sessions:           strconv.Itoa(settings.SessionsUntilLongBreak),
		AutoStartBreaks:    settings.AutoStartBreaks,
		AutoStartNextFocus: settings.AutoStartNextFocus,
	}
}

// Settings parses the form. Every field must be a positive integer.
func (form Form) Settings() (model.Settings, error) {
	work, err := parsePositiveInt("focus length", form.WorkMinutes)
	if err != nil {
		return model.Settings{}, err
	}
	shortBreak, err := parsePositiveInt("short break length", form.BreakMinutes)
	if err != nil {
		return model.Settings{}, err
	}
	longBreak, err := parsePositiveInt("long break length", form.LongBreakMinutes)
	if err != nil {
		return model.Settings{}, err
	}
	sessions, err := parsePositiveInt("sessions before a long break", form.Sessions)
	if err != nil {
		return model.Settings{}, err
	}

	settings := model.Settings{
		WorkDurationSeconds:      work * 60,
		BreakDurationSeconds:     shortBreak * 60,
		LongBreakDurationSeconds: longBreak * 60,
		SessionsUntilLongBreak:   sessions,
		AutoStartBreaks:          form.AutoStartBreaks,
		AutoStartNextFocus:       form.AutoStartNextFocus,
	}
	return settings, settings.Validate()
}

func parsePositiveInt(field, value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, errclass.ErrSettingsInvalid.WithMessagef("%s must be a positive whole number, got %q", field, value)
	}
	return parsed, nil
}
