package platform

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/storage"
)

func TestPreferencesStore(t *testing.T) {
	store := NewPreferencesStore(test.NewApp().Preferences())

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("studyfocus.timer.alice", `{"mode":"work"}`))
	value, ok, err := store.Get("studyfocus.timer.alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"mode":"work"}`, value)

	require.NoError(t, store.Delete("studyfocus.timer.alice"))
	_, ok, _ = store.Get("studyfocus.timer.alice")
	assert.False(t, ok)
}

func TestPreferencesStoreBacksSnapshots(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	snapshots := storage.NewSnapshotStore(NewPreferencesStore(test.NewApp().Preferences()), "alice", clock.NewFake(now), nil)

	state := model.FreshState(model.DefaultSettings())
	state.RemainingSeconds = 700
	require.NoError(t, snapshots.Save(state))

	snapshot, ok := snapshots.Load()
	require.True(t, ok)
	assert.Equal(t, 700, snapshot.State.RemainingSeconds)
}
