package pomodoro

import (
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/core/model"
)

// Restore reconciles the stored snapshot with the wall clock. It reads the
// snapshot only on the first call; later calls return RestoreFresh.
//
// A paused snapshot is restored as is. A running one resumes when time is
// left, otherwise the stored mode completes once and the engine lands in
// the next mode, auto-starting from now when the policy says so.
func (engine *Engine) Restore() RestoreOutcome {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.restored || engine.closed || engine.config.Snapshots == nil {
		engine.restored = true
		return RestoreFresh
	}
	engine.restored = true

	snapshot, ok := engine.config.Snapshots.Load()
	if !ok {
		engine.metrics.RecordRestore(string(RestoreFresh))
		return RestoreFresh
	}

	now := engine.clock.Now()
	state := snapshot.State.Normalize(engine.settings)
	running := state.Running
	state.Running = false
	engine.state = state
	engine.segmentTotal = engine.settings.DurationFor(state.Mode)
	engine.persistedMinute = state.CreditedSeconds / 60
	engine.partialInFlight = state.RecordedMinutes

	outcome := RestorePaused
	if running {
		elapsed := max(now.Sub(snapshot.SavedAt), 0)
		left := time.Duration(state.RemainingSeconds)*time.Second - elapsed
		if left > 0 {
			outcome = RestoreResumed
			engine.ensureSegmentLocked(now)
			engine.state.Running = true
			engine.targetEnd = now.Add(left)
			engine.lastTick = now
			engine.state.RemainingSeconds = remainingUntil(engine.targetEnd, now)
			engine.startTickerLocked()
			if engine.state.Mode == model.ModeWork {
				engine.minuteBoundaryLocked()
			}
			engine.persistLocked()
		} else {
			outcome = RestoreCompletedAway
			engine.ensureSegmentLocked(now)
			engine.state.RemainingSeconds = 0
			engine.completeLocked(now, "restore")
		}
	}

	engine.metrics.RecordRestore(string(outcome))
	engine.logger.Info("timer restored",
		zap.String("outcome", string(outcome)),
		zap.String("mode", string(engine.state.Mode)),
		zap.Int("remaining_seconds", engine.state.RemainingSeconds),
		zap.Duration("snapshot_age", now.Sub(snapshot.SavedAt)))
	engine.emitLocked(Event{Type: EventRestored, Message: string(outcome)})
	return outcome
}

// ensureSegmentLocked fills in segment tracking missing from older
// snapshots without touching credited focus.
func (engine *Engine) ensureSegmentLocked(now time.Time) {
	if engine.state.SessionID == "" {
		engine.state.SessionID = engine.config.NewSessionID()
	}
	if engine.state.SessionStartTimestamp == nil {
		elapsed := max(engine.segmentTotal-engine.state.RemainingSeconds, 0)
		started := now.Add(-time.Duration(elapsed) * time.Second)
		engine.state.SessionStartTimestamp = &started
	}
}
