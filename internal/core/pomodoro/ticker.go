package pomodoro

import (
	"time"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/recorder"
)

func (engine *Engine) startTickerLocked() {
	engine.stopTickerLocked()
	engine.generation++
	generation := engine.generation
	ticker := engine.clock.NewTicker(engine.config.TickInterval)
	stop := make(chan struct{})
	engine.ticker = ticker
	engine.stopCh = stop
	go engine.run(generation, ticker, stop)
}

// stopTickerLocked cancels the scheduled ticker. A poll that already
// passed the select sees a different generation and returns.
func (engine *Engine) stopTickerLocked() {
	if engine.ticker == nil {
		return
	}
	engine.ticker.Stop()
	close(engine.stopCh)
	engine.ticker = nil
	engine.stopCh = nil
	engine.generation++
}

func (engine *Engine) run(generation uint64, ticker clock.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			engine.poll(generation)
		}
	}
}

func (engine *Engine) poll(generation uint64) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if generation != engine.generation || !engine.state.Running || engine.transitioning || engine.closed {
		return
	}
	now := engine.clock.Now()
	engine.lastTick = now
	engine.advanceLocked(now, "tick")
}

// advanceLocked re-derives the remaining time from targetEnd. It writes
// state only on change and runs the completion path at zero.
func (engine *Engine) advanceLocked(now time.Time, source string) {
	remaining := remainingUntil(engine.targetEnd, now)
	if remaining >= engine.state.RemainingSeconds && remaining > 0 {
		return
	}
	if remaining > engine.state.RemainingSeconds {
		remaining = engine.state.RemainingSeconds
	}
	if remaining == 0 {
		engine.state.RemainingSeconds = 0
		engine.completeLocked(now, source)
		return
	}

	engine.state.RemainingSeconds = remaining
	engine.minuteBoundaryLocked()
	engine.emitLocked(Event{Type: EventTick, At: now})
}

// minuteBoundaryLocked persists once per elapsed minute of any running
// segment. Work segments also credit focus and dispatch a partial record.
func (engine *Engine) minuteBoundaryLocked() {
	elapsed := max(engine.segmentTotal-engine.state.RemainingSeconds, 0)
	minutes := elapsed / 60
	if minutes <= engine.persistedMinute {
		return
	}
	engine.persistedMinute = minutes
	if engine.state.Mode != model.ModeWork {
		engine.persistLocked()
		return
	}
	engine.creditFocusLocked(minutes * 60)
	engine.persistLocked()

	if minutes <= engine.state.RecordedMinutes || minutes <= engine.partialInFlight {
		return
	}
	engine.partialInFlight = minutes
	engine.dispatchPartialLocked(recorder.Partial{
		SessionID:               engine.state.SessionID,
		Mode:                    engine.state.Mode,
		TotalDuration:           engine.segmentTotal,
		Remaining:               engine.state.RemainingSeconds,
		LastRecordedFullMinutes: engine.state.RecordedMinutes,
		StartDate:               startOf(engine.state),
		Goal:                    engine.state.Goal,
	})
}

// remainingUntil is the whole seconds left until targetEnd, rounded up.
func remainingUntil(targetEnd, now time.Time) int {
	left := targetEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
