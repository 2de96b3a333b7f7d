// Package pomodoro implements the Pomodoro cycle engine: the timer state,
// its drift-corrected ticker, recovery from snapshots and foreground
// reconciliation.
package pomodoro

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/cycle"
	"studyfocus/internal/core/model"
	"studyfocus/internal/logging"
	"studyfocus/internal/metrics"
	"studyfocus/internal/recorder"
)

// DefaultTickInterval is the polling cadence of the ticker.
const DefaultTickInterval = 200 * time.Millisecond

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("pomodoro engine closed")

// SnapshotStore persists the timer state for crash recovery.
type SnapshotStore interface {
	Save(state model.TimerState) error
	Load() (model.PersistedSnapshot, bool)
}

// SessionRecorder writes session records for analytics.
type SessionRecorder interface {
	RecordPartial(ctx context.Context, partial recorder.Partial) (int, error)
	RecordCompletion(ctx context.Context, completion recorder.Completion) error
}

// Config contains the engine collaborators and runtime options.
// Snapshots and Recorder may be nil.
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
	Snapshots    SnapshotStore
	Recorder     SessionRecorder
	Logger       *zap.Logger
	Metrics      *metrics.Registry
	// NewSessionID generates segment identifiers; defaults to random UUIDs.
	NewSessionID func() string
}

// Engine is the single owner of the timer state. All mutations happen
// under mu; session records are delivered on a background worker.
type Engine struct {
	mu       sync.Mutex
	settings model.Settings
	config   Config
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *metrics.Registry

	state model.TimerState
	// segmentTotal is the full length of the current segment, fixed when
	// the segment begins so a settings change never resizes it.
	segmentTotal int
	targetEnd    time.Time
	lastTick     time.Time

	ticker     clock.Ticker
	stopCh     chan struct{}
	generation uint64

	// transitioning is the transition lock held while a zero-crossing is
	// processed.
	transitioning   bool
	partialInFlight int
	persistedMinute int
	foreground      bool
	restored        bool
	closed          bool

	events     []chan Event
	deliveries *deliveryQueue
}

// New creates an engine in the fresh state. Call Restore once before use
// to recover a persisted snapshot.
func New(settings model.Settings, config Config) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.NewSessionID == nil {
		config.NewSessionID = uuid.NewString
	}

	engine := &Engine{
		settings:     settings,
		config:       config,
		clock:        config.Clock,
		logger:       logging.OrNop(config.Logger),
		metrics:      config.Metrics,
		state:        model.FreshState(settings),
		segmentTotal: settings.DurationFor(model.ModeWork),
		foreground:   true,
	}
	if config.Recorder != nil {
		engine.deliveries = newDeliveryQueue(engine)
	}
	return engine
}

// State returns a copy of the current timer state.
func (engine *Engine) State() model.TimerState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state.Clone()
}

// Settings returns the active settings.
func (engine *Engine) Settings() model.Settings {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.settings
}

// Subscribe registers a new observer channel. Slow observers miss events.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	if engine.closed {
		close(ch)
	} else {
		engine.events = append(engine.events, ch)
	}
	engine.mu.Unlock()
	return ch
}

// Start runs the countdown. It is a no-op while already running.
func (engine *Engine) Start(goal string) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.state.Running || engine.closed {
		return
	}
	engine.startLocked(goal)
	engine.persistLocked()
	engine.emitLocked(Event{Type: EventStarted})
}

// Pause stops the countdown keeping the last tick-corrected remaining time.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.state.Running || engine.closed {
		return
	}
	engine.stopTickerLocked()
	engine.state.Running = false
	engine.persistLocked()
	engine.emitLocked(Event{Type: EventPaused})
}

// Reset stops the countdown and rewinds the current mode to its full length.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return
	}
	engine.stopTickerLocked()
	engine.abandonSegmentLocked()
	engine.state.Running = false
	engine.state.RemainingSeconds = engine.settings.DurationFor(engine.state.Mode)
	engine.segmentTotal = engine.state.RemainingSeconds
	engine.persistLocked()
	engine.emitLocked(Event{Type: EventReset})
}

// ChangeMode switches mode manually. It never counts as a completion and
// never auto-starts.
func (engine *Engine) ChangeMode(mode model.Mode) error {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return ErrClosed
	}
	engine.stopTickerLocked()
	engine.abandonSegmentLocked()
	engine.state.Running = false
	engine.state.Mode = mode
	engine.state.RemainingSeconds = engine.settings.DurationFor(mode)
	engine.segmentTotal = engine.state.RemainingSeconds
	if mode == model.ModeWork {
		engine.state.SessionIndex = 0
	}
	engine.persistLocked()
	engine.emitLocked(Event{Type: EventModeChanged})
	return nil
}

// UpdateSettings replaces the cycle settings. A running countdown keeps its
// length; a stopped one is rewound to the new duration of its mode.
func (engine *Engine) UpdateSettings(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.closed {
		return ErrClosed
	}
	if settings == engine.settings {
		return nil
	}
	engine.settings = settings
	engine.state.SessionIndex %= settings.SessionsUntilLongBreak
	if !engine.state.Running {
		engine.abandonSegmentLocked()
		engine.state.RemainingSeconds = settings.DurationFor(engine.state.Mode)
		engine.segmentTotal = engine.state.RemainingSeconds
	}
	engine.persistLocked()
	engine.emitLocked(Event{Type: EventSettingsChanged})
	return nil
}

// Flush blocks until queued session records have been delivered or ctx ends.
func (engine *Engine) Flush(ctx context.Context) error {
	if engine.deliveries == nil {
		return nil
	}
	return engine.deliveries.flush(ctx)
}

// Close stops the ticker, delivers pending records and closes observers.
// The stored snapshot is left as is so a running countdown resumes on the
// next Restore.
func (engine *Engine) Close() {
	engine.mu.Lock()
	if engine.closed {
		engine.mu.Unlock()
		return
	}
	engine.closed = true
	engine.stopTickerLocked()
	engine.state.Running = false
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()

	if engine.deliveries != nil {
		engine.deliveries.close()
	}
	for _, ch := range events {
		close(ch)
	}
}

func (engine *Engine) startLocked(goal string) {
	now := engine.clock.Now()
	if engine.state.RemainingSeconds <= 0 {
		engine.clearSegmentLocked()
		engine.state.RemainingSeconds = engine.settings.DurationFor(engine.state.Mode)
	}
	if engine.state.SessionStartTimestamp == nil {
		engine.beginSegmentLocked(now)
	}
	if goal != "" {
		engine.state.Goal = goal
	}
	engine.state.Running = true
	engine.targetEnd = now.Add(time.Duration(engine.state.RemainingSeconds) * time.Second)
	engine.lastTick = now
	engine.startTickerLocked()
}

func (engine *Engine) beginSegmentLocked(now time.Time) {
	started := now
	engine.state.SessionStartTimestamp = &started
	engine.state.SessionID = engine.config.NewSessionID()
	engine.state.RecordedMinutes = 0
	engine.state.CreditedSeconds = 0
	engine.partialInFlight = 0
	engine.persistedMinute = 0
	engine.segmentTotal = engine.settings.DurationFor(engine.state.Mode)
}

func (engine *Engine) clearSegmentLocked() {
	engine.state.SessionStartTimestamp = nil
	engine.state.SessionID = ""
	engine.state.Goal = ""
	engine.state.RecordedMinutes = 0
	engine.state.CreditedSeconds = 0
	engine.partialInFlight = 0
	engine.persistedMinute = 0
}

// abandonSegmentLocked closes a Work segment that is dropped before its
// zero-crossing. Segments with at least a minute of focus get a final
// record marked incomplete.
func (engine *Engine) abandonSegmentLocked() {
	state := engine.state
	if state.Mode == model.ModeWork && state.SessionID != "" {
		elapsed := engine.segmentTotal - state.RemainingSeconds
		if elapsed >= 60 {
			engine.dispatchCompletionLocked(recorder.Completion{
				SessionID:      state.SessionID,
				Mode:           state.Mode,
				TotalDuration:  elapsed,
				StartTimestamp: startOf(state),
				Completed:      false,
				Goal:           state.Goal,
			})
		}
	}
	engine.clearSegmentLocked()
}

// completeLocked processes one zero-crossing. It returns false when a
// transition is already in progress.
func (engine *Engine) completeLocked(now time.Time, source string) bool {
	if engine.transitioning {
		return false
	}
	engine.transitioning = true
	defer func() { engine.transitioning = false }()

	engine.stopTickerLocked()

	finished := engine.state
	total := engine.segmentTotal
	if finished.SessionID == "" {
		finished.SessionID = engine.config.NewSessionID()
	}
	if finished.Mode == model.ModeWork {
		engine.creditFocusLocked(total)
	}

	transition := cycle.Next(finished.Mode, finished.SessionIndex, engine.settings)
	engine.state = cycle.Apply(engine.state, transition, engine.settings)
	engine.segmentTotal = engine.state.RemainingSeconds
	engine.partialInFlight = 0
	engine.persistedMinute = 0

	engine.dispatchCompletionLocked(recorder.Completion{
		SessionID:      finished.SessionID,
		Mode:           finished.Mode,
		TotalDuration:  total,
		StartTimestamp: startOf(finished),
		Completed:      true,
		Goal:           finished.Goal,
	})
	engine.metrics.RecordCompletion(string(finished.Mode))
	engine.logger.Info("mode completed",
		zap.String("completed", string(finished.Mode)),
		zap.String("next", string(transition.NextMode)),
		zap.Int("session_index", transition.NextSessionIndex),
		zap.Bool("auto_start", transition.AutoStart),
		zap.String("source", source))

	if transition.AutoStart {
		engine.startLocked("")
	}
	engine.persistLocked()
	engine.emitLocked(Event{
		Type:      EventCompleted,
		Completed: finished.Mode,
		AutoStart: transition.AutoStart,
		Message:   source,
		At:        now,
	})
	return true
}

func (engine *Engine) creditFocusLocked(upTo int) {
	delta := upTo - engine.state.CreditedSeconds
	if delta <= 0 {
		return
	}
	engine.state.CreditedSeconds = upTo
	engine.state.TotalFocusSecondsToday += delta
	engine.metrics.AddFocusSeconds(delta)
}

func (engine *Engine) persistLocked() {
	if engine.config.Snapshots == nil {
		return
	}
	if err := engine.config.Snapshots.Save(engine.state.Clone()); err != nil {
		engine.logger.Warn("persist snapshot failed", zap.Error(err))
	}
}

func (engine *Engine) emitLocked(event Event) {
	event.State = engine.state.Clone()
	if event.At.IsZero() {
		event.At = engine.clock.Now()
	}
	for _, ch := range engine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func startOf(state model.TimerState) time.Time {
	if state.SessionStartTimestamp == nil {
		return time.Time{}
	}
	return *state.SessionStartTimestamp
}
