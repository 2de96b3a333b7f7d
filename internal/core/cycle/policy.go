// Package cycle maps a completed mode to the next step of the Pomodoro cycle.
package cycle

import "studyfocus/internal/core/model"

// Transition is the outcome of completing a mode.
type Transition struct {
	NextMode         model.Mode
	NextSessionIndex int
	AutoStart        bool
	// CountsWorkSession is true when the completed mode was Work and
	// CompletedWorkSessions must be incremented.
	CountsWorkSession bool
}

// Next returns the transition that follows completing mode.
//
// Work moves to Break, or LongBreak when the finished session closes the
// cycle. Break returns to Work keeping the position. LongBreak returns to
// Work at position zero and never auto-starts.
func Next(mode model.Mode, sessionIndex int, settings model.Settings) Transition {
	switch mode {
	case model.ModeWork:
		sessions := max(settings.SessionsUntilLongBreak, 1)
		next := (sessionIndex + 1) % sessions
		transition := Transition{
			NextMode:          model.ModeBreak,
			NextSessionIndex:  next,
			AutoStart:         settings.AutoStartBreaks,
			CountsWorkSession: true,
		}
		if next == 0 {
			transition.NextMode = model.ModeLongBreak
		}
		return transition
	case model.ModeBreak:
		return Transition{
			NextMode:         model.ModeWork,
			NextSessionIndex: sessionIndex,
			AutoStart:        settings.AutoStartNextFocus,
		}
	default:
		return Transition{
			NextMode:         model.ModeWork,
			NextSessionIndex: 0,
			AutoStart:        false,
		}
	}
}

// Apply folds a transition into state. The result is not running; the
// caller decides whether to start it from Transition.AutoStart.
func Apply(state model.TimerState, transition Transition, settings model.Settings) model.TimerState {
	if transition.CountsWorkSession {
		state.CompletedWorkSessions++
	}
	state.Mode = transition.NextMode
	state.SessionIndex = transition.NextSessionIndex
	state.RemainingSeconds = settings.DurationFor(transition.NextMode)
	state.Running = false
	state.SessionStartTimestamp = nil
	state.SessionID = ""
	state.Goal = ""
	state.RecordedMinutes = 0
	state.CreditedSeconds = 0
	return state
}
