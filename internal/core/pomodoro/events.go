package pomodoro

import (
	"time"

	"studyfocus/internal/core/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStarted         EventType = "started"
	EventPaused          EventType = "paused"
	EventReset           EventType = "reset"
	EventModeChanged     EventType = "mode_changed"
	EventTick            EventType = "tick"
	EventCompleted       EventType = "completed"
	EventSettingsChanged EventType = "settings_changed"
	EventRestored        EventType = "restored"
	EventForeground      EventType = "foreground"
	EventRecordFailed    EventType = "record_failed"
)

// Event represents an engine update for observers.
type Event struct {
	Type  EventType
	State model.TimerState
	// Completed is the mode that just finished, for EventCompleted.
	Completed model.Mode
	AutoStart bool
	// Active and Gap describe foreground transitions; Gap is the wall-clock
	// time since the last poll when the engine regained the foreground.
	Active bool
	Gap    time.Duration
	// SessionID names the record that failed, for EventRecordFailed.
	SessionID string
	Message   string
	At        time.Time
}

// RestoreOutcome reports what Restore did with the stored snapshot.
type RestoreOutcome string

const (
	RestoreFresh         RestoreOutcome = "fresh"
	RestorePaused        RestoreOutcome = "paused"
	RestoreResumed       RestoreOutcome = "resumed"
	RestoreCompletedAway RestoreOutcome = "completed_away"
)
