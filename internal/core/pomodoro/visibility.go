package pomodoro

import "time"

// ForegroundSignal reports when the host gains or loses the foreground.
// Subscribe returns a function that detaches the callback.
type ForegroundSignal interface {
	Subscribe(fn func(active bool)) (unsubscribe func())
}

// WatchForeground feeds signal into SetForeground until the returned
// function is called.
func (engine *Engine) WatchForeground(signal ForegroundSignal) func() {
	return signal.Subscribe(engine.SetForeground)
}

// SetForeground records a foreground transition. Regaining the foreground
// while running re-derives the remaining time immediately instead of
// waiting for the next poll.
func (engine *Engine) SetForeground(active bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}
	wasActive := engine.foreground
	engine.foreground = active
	if wasActive == active {
		return
	}

	now := engine.clock.Now()
	var gap time.Duration
	if active && engine.state.Running && !engine.lastTick.IsZero() {
		gap = max(now.Sub(engine.lastTick), 0)
	}
	engine.emitLocked(Event{Type: EventForeground, Active: active, Gap: gap, At: now})
	if active {
		engine.reconcileLocked(now)
	}
}

// Foreground reports the last foreground state seen.
func (engine *Engine) Foreground() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.foreground
}

// Reconcile re-derives the remaining time from the wall clock now.
func (engine *Engine) Reconcile() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}
	engine.reconcileLocked(engine.clock.Now())
}

func (engine *Engine) reconcileLocked(now time.Time) {
	if !engine.state.Running || engine.transitioning {
		return
	}
	engine.lastTick = now
	engine.metrics.RecordReconcile()
	engine.advanceLocked(now, "foreground")
}
