package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
	"studyfocus/internal/logging"
)

// SnapshotMaxAge is the age beyond which a snapshot is never resumed.
const SnapshotMaxAge = 30 * time.Minute

const snapshotKeyPrefix = "studyfocus.timer."

type snapshotRecord struct {
	Mode                   string `json:"mode"`
	RemainingSeconds       int    `json:"remainingSeconds"`
	Running                bool   `json:"running"`
	SessionIndex           int    `json:"sessionIndex"`
	CompletedWorkSessions  int    `json:"completedWorkSessions"`
	SessionStartTimestamp  *int64 `json:"sessionStartTimestamp"`
	Timestamp              int64  `json:"timestamp"`
	TotalFocusSecondsToday int    `json:"totalFocusSecondsToday"`
	Goal                   string `json:"goal,omitempty"`
	SessionID              string `json:"sessionId,omitempty"`
	RecordedMinutes        int    `json:"recordedMinutes"`
	CreditedSeconds        int    `json:"creditedSeconds"`
}

// SnapshotStore owns the durable copy of the timer state.
type SnapshotStore struct {
	store  ScopedKeyValueStore
	key    string
	clock  clock.Clock
	logger *zap.Logger
}

// NewSnapshotStore scopes snapshots to a user on top of a key-value store.
func NewSnapshotStore(store ScopedKeyValueStore, userID string, clk clock.Clock, logger *zap.Logger) *SnapshotStore {
	if clk == nil {
		clk = clock.New()
	}
	return &SnapshotStore{
		store:  store,
		key:    snapshotKeyPrefix + userID,
		clock:  clk,
		logger: logging.OrNop(logger),
	}
}

// Save writes state together with the current time.
func (snapshots *SnapshotStore) Save(state model.TimerState) error {
	data, err := json.Marshal(encodeSnapshot(state, snapshots.clock.Now()))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := snapshots.store.Set(snapshots.key, string(data)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. Missing, corrupt and stale snapshots
// are reported as absent.
func (snapshots *SnapshotStore) Load() (model.PersistedSnapshot, bool) {
	raw, ok, err := snapshots.store.Get(snapshots.key)
	if err != nil {
		snapshots.logger.Warn("snapshot unreadable", zap.String("key", snapshots.key), zap.Error(err))
		return model.PersistedSnapshot{}, false
	}
	if !ok {
		return model.PersistedSnapshot{}, false
	}

	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		snapshots.logger.Warn("snapshot discarded", zap.String("key", snapshots.key), zap.Error(err))
		return model.PersistedSnapshot{}, false
	}

	age := snapshots.clock.Now().Sub(snapshot.SavedAt)
	if age > SnapshotMaxAge {
		snapshots.logger.Info("stale snapshot ignored", zap.Duration("age", age))
		return model.PersistedSnapshot{}, false
	}
	return snapshot, true
}

// Clear removes the stored snapshot.
func (snapshots *SnapshotStore) Clear() error {
	if err := snapshots.store.Delete(snapshots.key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func encodeSnapshot(state model.TimerState, savedAt time.Time) snapshotRecord {
	record := snapshotRecord{
		Mode:                   string(state.Mode),
		RemainingSeconds:       state.RemainingSeconds,
		Running:                state.Running,
		SessionIndex:           state.SessionIndex,
		CompletedWorkSessions:  state.CompletedWorkSessions,
		Timestamp:              savedAt.UnixMilli(),
		TotalFocusSecondsToday: state.TotalFocusSecondsToday,
		Goal:                   state.Goal,
		SessionID:              state.SessionID,
		RecordedMinutes:        state.RecordedMinutes,
		CreditedSeconds:        state.CreditedSeconds,
	}
	if state.SessionStartTimestamp != nil {
		started := state.SessionStartTimestamp.UnixMilli()
		record.SessionStartTimestamp = &started
	}
	return record
}

func decodeSnapshot(raw string) (model.PersistedSnapshot, error) {
	var record snapshotRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return model.PersistedSnapshot{}, errclass.ErrSnapshotCorrupt.WithMessage(err.Error())
	}
	mode, err := model.ParseMode(record.Mode)
	if err != nil {
		return model.PersistedSnapshot{}, errclass.ErrSnapshotCorrupt.WithMessage(err.Error())
	}
	if record.Timestamp <= 0 {
		return model.PersistedSnapshot{}, errclass.ErrSnapshotCorrupt.WithMessage("missing timestamp")
	}
	if record.RemainingSeconds < 0 {
		return model.PersistedSnapshot{}, errclass.ErrSnapshotCorrupt.WithMessagef("negative remaining %d", record.RemainingSeconds)
	}

	state := model.TimerState{
		Mode:                   mode,
		RemainingSeconds:       record.RemainingSeconds,
		Running:                record.Running,
		SessionIndex:           record.SessionIndex,
		CompletedWorkSessions:  record.CompletedWorkSessions,
		TotalFocusSecondsToday: record.TotalFocusSecondsToday,
		Goal:                   record.Goal,
		SessionID:              record.SessionID,
		RecordedMinutes:        record.RecordedMinutes,
		CreditedSeconds:        record.CreditedSeconds,
	}
	if record.SessionStartTimestamp != nil {
		started := time.UnixMilli(*record.SessionStartTimestamp)
		state.SessionStartTimestamp = &started
	}
	return model.PersistedSnapshot{State: state, SavedAt: time.UnixMilli(record.Timestamp)}, nil
}
