package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

func openTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := OpenSessionStore(filepath.Join(t.TempDir(), "db", "sessions.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func workRecord(id string, seconds int) model.SessionRecord {
	return model.SessionRecord{
		ID:              id,
		UserID:          "alice",
		SessionType:     model.ModeWork,
		DurationSeconds: seconds,
		Goal:            "essay",
		CreatedAt:       time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestPartialUpsertIsIdempotent(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 60)))
	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 120)))
	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 120)))
	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 60)))

	record, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 120, record.DurationSeconds)
	assert.False(t, record.Completed)
	assert.False(t, record.Final)
	assert.Equal(t, "essay", record.Goal)

	records, err := store.List(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCompletionFinalizesRow(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 1440)))
	completion := workRecord("s1", 1500)
	completion.Completed = true
	require.NoError(t, store.UpsertCompletion(ctx, completion))

	// Late partials and duplicate completions leave the row alone.
	require.NoError(t, store.UpsertPartial(ctx, workRecord("s1", 1560)))
	duplicate := workRecord("s1", 10)
	require.NoError(t, store.UpsertCompletion(ctx, duplicate))

	record, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1500, record.DurationSeconds)
	assert.True(t, record.Completed)
	assert.True(t, record.Final)

	records, err := store.List(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	older := workRecord("old", 1500)
	older.Completed = true
	newer := model.SessionRecord{
		ID:              "new",
		UserID:          "alice",
		SessionType:     model.ModeBreak,
		DurationSeconds: 300,
		Completed:       true,
		CreatedAt:       older.CreatedAt.Add(time.Hour),
	}
	other := workRecord("bob-1", 60)
	other.UserID = "bob"

	require.NoError(t, store.UpsertCompletion(ctx, older))
	require.NoError(t, store.UpsertCompletion(ctx, newer))
	require.NoError(t, store.UpsertPartial(ctx, other))

	records, err := store.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, model.ModeBreak, records[0].SessionType)
	assert.Empty(t, records[0].Goal)
	assert.Equal(t, "old", records[1].ID)
}

func TestListOrdersWithinTheSameSecond(t *testing.T) {
	store := openTestSessionStore(t)
	ctx := context.Background()

	whole := workRecord("whole", 60)
	half := workRecord("half", 60)
	half.CreatedAt = whole.CreatedAt.Add(500 * time.Millisecond)
	require.NoError(t, store.UpsertPartial(ctx, half))
	require.NoError(t, store.UpsertPartial(ctx, whole))

	records, err := store.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "half", records[0].ID)
	assert.Equal(t, "whole", records[1].ID)
	assert.True(t, records[0].CreatedAt.Equal(half.CreatedAt))
	assert.True(t, records[1].CreatedAt.Equal(whole.CreatedAt))
}

func TestGetMissing(t *testing.T) {
	store := openTestSessionStore(t)
	_, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClosedStoreReportsUnavailable(t *testing.T) {
	store, err := OpenSessionStore(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.UpsertPartial(context.Background(), workRecord("s1", 60))
	assert.True(t, errors.Is(err, errclass.ErrStoreUnavailable))
}
