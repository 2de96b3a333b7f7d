package model

import "time"

// TimerState is the authoritative in-memory record of the countdown.
type TimerState struct {
	Mode                   Mode
	RemainingSeconds       int
	Running                bool
	SessionIndex           int
	CompletedWorkSessions  int
	SessionStartTimestamp  *time.Time
	TotalFocusSecondsToday int

	// Goal is the optional focus goal given when the segment was started.
	Goal string
	// SessionID identifies the current segment in the session store.
	SessionID string
	// RecordedMinutes is the last whole minute confirmed by the session store.
	RecordedMinutes int
	// CreditedSeconds is the part of the current Work segment already
	// added to TotalFocusSecondsToday.
	CreditedSeconds int
}

// PersistedSnapshot is a TimerState plus the wall-clock time it was written.
type PersistedSnapshot struct {
	State   TimerState
	SavedAt time.Time
}

// FreshState returns the default state: Work, full duration, not running.
func FreshState(settings Settings) TimerState {
	return TimerState{
		Mode:             ModeWork,
		RemainingSeconds: settings.DurationFor(ModeWork),
	}
}

// ElapsedSeconds returns how much of the current mode has been consumed.
func (state TimerState) ElapsedSeconds(settings Settings) int {
	elapsed := settings.DurationFor(state.Mode) - state.RemainingSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Clone returns a copy that shares no pointers with state.
func (state TimerState) Clone() TimerState {
	if state.SessionStartTimestamp != nil {
		started := *state.SessionStartTimestamp
		state.SessionStartTimestamp = &started
	}
	return state
}

// Normalize clamps a restored state back into the invariants implied by settings.
// Unknown modes reset to a fresh state.
func (state TimerState) Normalize(settings Settings) TimerState {
	if !state.Mode.Valid() {
		fresh := FreshState(settings)
		fresh.CompletedWorkSessions = max(state.CompletedWorkSessions, 0)
		fresh.TotalFocusSecondsToday = max(state.TotalFocusSecondsToday, 0)
		return fresh
	}
	duration := settings.DurationFor(state.Mode)
	state.RemainingSeconds = min(max(state.RemainingSeconds, 0), duration)
	if settings.SessionsUntilLongBreak > 0 {
		state.SessionIndex %= settings.SessionsUntilLongBreak
		if state.SessionIndex < 0 {
			state.SessionIndex += settings.SessionsUntilLongBreak
		}
	}
	state.CompletedWorkSessions = max(state.CompletedWorkSessions, 0)
	state.TotalFocusSecondsToday = max(state.TotalFocusSecondsToday, 0)
	state.RecordedMinutes = max(state.RecordedMinutes, 0)
	state.CreditedSeconds = min(max(state.CreditedSeconds, 0), duration)
	return state
}
