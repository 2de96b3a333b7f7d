package model

import "studyfocus/internal/errclass"

// Mode is the current phase of the Pomodoro cycle.
type Mode string

const (
	ModeWork      Mode = "work"
	ModeBreak     Mode = "break"
	ModeLongBreak Mode = "longBreak"
)

// Valid reports whether mode is one of the known modes.
func (mode Mode) Valid() bool {
	switch mode {
	case ModeWork, ModeBreak, ModeLongBreak:
		return true
	}
	return false
}

// ParseMode converts a wire value into a Mode.
func ParseMode(value string) (Mode, error) {
	mode := Mode(value)
	if !mode.Valid() {
		return "", errclass.ErrModeInvalid.WithMessagef("unknown mode %q", value)
	}
	return mode, nil
}

// Settings contains the cycle configuration supplied by the settings collaborator.
type Settings struct {
	WorkDurationSeconds      int  `json:"workDurationSeconds"`
	BreakDurationSeconds     int  `json:"breakDurationSeconds"`
	LongBreakDurationSeconds int  `json:"longBreakDurationSeconds"`
	SessionsUntilLongBreak   int  `json:"sessionsUntilLongBreak"`
	AutoStartBreaks          bool `json:"autoStartBreaks"`
	AutoStartNextFocus       bool `json:"autoStartNextFocus"`
}

// DefaultSettings returns the classic 25/5/15 cycle with four sessions per long break.
func DefaultSettings() Settings {
	return Settings{
		WorkDurationSeconds:      25 * 60,
		BreakDurationSeconds:     5 * 60,
		LongBreakDurationSeconds: 15 * 60,
		SessionsUntilLongBreak:   4,
		AutoStartBreaks:          true,
		AutoStartNextFocus:       false,
	}
}

// DurationFor returns the full length of a mode in seconds.
func (settings Settings) DurationFor(mode Mode) int {
	switch mode {
	case ModeBreak:
		return settings.BreakDurationSeconds
	case ModeLongBreak:
		return settings.LongBreakDurationSeconds
	default:
		return settings.WorkDurationSeconds
	}
}

// Validate rejects non-positive durations and cycle lengths.
func (settings Settings) Validate() error {
	switch {
	case settings.WorkDurationSeconds <= 0:
		return errclass.ErrSettingsInvalid.WithMessagef("work duration must be positive, got %d", settings.WorkDurationSeconds)
	case settings.BreakDurationSeconds <= 0:
		return errclass.ErrSettingsInvalid.WithMessagef("break duration must be positive, got %d", settings.BreakDurationSeconds)
	case settings.LongBreakDurationSeconds <= 0:
		return errclass.ErrSettingsInvalid.WithMessagef("long break duration must be positive, got %d", settings.LongBreakDurationSeconds)
	case settings.SessionsUntilLongBreak <= 0:
		return errclass.ErrSettingsInvalid.WithMessagef("sessions until long break must be positive, got %d", settings.SessionsUntilLongBreak)
	}
	return nil
}
