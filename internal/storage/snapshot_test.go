package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
)

var snapshotEpoch = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func TestSnapshotRoundTrip(t *testing.T) {
	fake := clock.NewFake(snapshotEpoch)
	snapshots := NewSnapshotStore(NewMemoryStore(), "alice", fake, nil)

	started := snapshotEpoch.Add(-5 * time.Minute)
	state := model.TimerState{
		Mode:                   model.ModeWork,
		RemainingSeconds:       1200,
		Running:                true,
		SessionIndex:           2,
		CompletedWorkSessions:  6,
		SessionStartTimestamp:  &started,
		TotalFocusSecondsToday: 9000,
		Goal:                   "chapter 3",
		SessionID:              "0b6c",
		RecordedMinutes:        5,
		CreditedSeconds:        300,
	}
	require.NoError(t, snapshots.Save(state))

	fake.Advance(10 * time.Second)
	loaded, ok := snapshots.Load()
	require.True(t, ok)
	assert.True(t, loaded.SavedAt.Equal(snapshotEpoch))
	assert.Equal(t, state.Mode, loaded.State.Mode)
	assert.Equal(t, state.RemainingSeconds, loaded.State.RemainingSeconds)
	assert.True(t, loaded.State.Running)
	assert.Equal(t, 2, loaded.State.SessionIndex)
	assert.Equal(t, 6, loaded.State.CompletedWorkSessions)
	require.NotNil(t, loaded.State.SessionStartTimestamp)
	assert.True(t, loaded.State.SessionStartTimestamp.Equal(started))
	assert.Equal(t, "chapter 3", loaded.State.Goal)
	assert.Equal(t, 5, loaded.State.RecordedMinutes)
	assert.Equal(t, 300, loaded.State.CreditedSeconds)
}

func TestSnapshotWireFormat(t *testing.T) {
	store := NewMemoryStore()
	snapshots := NewSnapshotStore(store, "bob", clock.NewFake(snapshotEpoch), nil)
	require.NoError(t, snapshots.Save(model.TimerState{Mode: model.ModeBreak, RemainingSeconds: 42}))

	raw, ok, err := store.Get("studyfocus.timer.bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{
		"mode": "break",
		"remainingSeconds": 42,
		"running": false,
		"sessionIndex": 0,
		"completedWorkSessions": 0,
		"sessionStartTimestamp": null,
		"timestamp": 1772618400000,
		"totalFocusSecondsToday": 0,
		"recordedMinutes": 0,
		"creditedSeconds": 0
	}`, raw)
}

func TestSnapshotStaleness(t *testing.T) {
	fake := clock.NewFake(snapshotEpoch)
	snapshots := NewSnapshotStore(NewMemoryStore(), "alice", fake, nil)
	require.NoError(t, snapshots.Save(model.TimerState{Mode: model.ModeWork, RemainingSeconds: 100, Running: true}))

	fake.Advance(30 * time.Minute)
	_, ok := snapshots.Load()
	assert.True(t, ok, "exactly thirty minutes is still fresh")

	fake.Advance(time.Minute)
	_, ok = snapshots.Load()
	assert.False(t, ok, "31 minutes is stale")
}

func TestSnapshotCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":      "{{{",
		"unknown mode":  `{"mode":"nap","remainingSeconds":1,"timestamp":1772618400000}`,
		"no timestamp":  `{"mode":"work","remainingSeconds":1}`,
		"negative time": `{"mode":"work","remainingSeconds":-4,"timestamp":1772618400000}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Set("studyfocus.timer.alice", raw))
			snapshots := NewSnapshotStore(store, "alice", clock.NewFake(snapshotEpoch), nil)
			_, ok := snapshots.Load()
			assert.False(t, ok)
		})
	}
}

func TestSnapshotScopedPerUser(t *testing.T) {
	store := NewMemoryStore()
	fake := clock.NewFake(snapshotEpoch)
	alice := NewSnapshotStore(store, "alice", fake, nil)
	bob := NewSnapshotStore(store, "bob", fake, nil)

	require.NoError(t, alice.Save(model.TimerState{Mode: model.ModeWork, RemainingSeconds: 10}))
	_, ok := bob.Load()
	assert.False(t, ok)

	require.NoError(t, alice.Clear())
	_, ok = alice.Load()
	assert.False(t, ok)
}
