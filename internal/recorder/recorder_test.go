package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
)

type memoryStore struct {
	mu          sync.Mutex
	partials    []model.SessionRecord
	completions []model.SessionRecord
	err         error
}

func (m *memoryStore) UpsertPartial(_ context.Context, record model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.partials = append(m.partials, record)
	return nil
}

func (m *memoryStore) UpsertCompletion(_ context.Context, record model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.completions = append(m.completions, record)
	return nil
}

var recorderEpoch = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func TestRecordPartialAdvancesWatermark(t *testing.T) {
	store := &memoryStore{}
	rec := New(store, "alice", clock.NewFake(recorderEpoch), nil)

	minutes, err := rec.RecordPartial(context.Background(), Partial{
		SessionID:               "s1",
		Mode:                    model.ModeWork,
		TotalDuration:           1500,
		Remaining:               1500 - 125,
		LastRecordedFullMinutes: 1,
		StartDate:               recorderEpoch,
		Goal:                    "algebra",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, minutes)
	require.Len(t, store.partials, 1)
	assert.Equal(t, 120, store.partials[0].DurationSeconds)
	assert.Equal(t, "alice", store.partials[0].UserID)
	assert.Equal(t, "algebra", store.partials[0].Goal)
	assert.Equal(t, recorderEpoch, store.partials[0].CreatedAt)
}

func TestRecordPartialIsIdempotentForSameMinute(t *testing.T) {
	store := &memoryStore{}
	rec := New(store, "alice", nil, nil)

	partial := Partial{SessionID: "s1", Mode: model.ModeWork, TotalDuration: 1500, Remaining: 1500 - 130, LastRecordedFullMinutes: 2}
	minutes, err := rec.RecordPartial(context.Background(), partial)
	require.NoError(t, err)
	assert.Equal(t, 2, minutes)
	assert.Empty(t, store.partials)
}

func TestRecordPartialIgnoresBreaks(t *testing.T) {
	store := &memoryStore{}
	rec := New(store, "alice", nil, nil)

	minutes, err := rec.RecordPartial(context.Background(), Partial{SessionID: "b1", Mode: model.ModeBreak, TotalDuration: 300, Remaining: 100})
	require.NoError(t, err)
	assert.Zero(t, minutes)
	assert.Empty(t, store.partials)
}

func TestRecordPartialKeepsWatermarkOnFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("offline")}
	rec := New(store, "alice", nil, nil)

	minutes, err := rec.RecordPartial(context.Background(), Partial{SessionID: "s1", Mode: model.ModeWork, TotalDuration: 1500, Remaining: 1300, LastRecordedFullMinutes: 1})
	assert.Error(t, err)
	assert.Equal(t, 1, minutes)
}

func TestRecordCompletion(t *testing.T) {
	store := &memoryStore{}
	fake := clock.NewFake(recorderEpoch)
	rec := New(store, "alice", fake, nil)

	require.NoError(t, rec.RecordCompletion(context.Background(), Completion{
		SessionID:     "s1",
		Mode:          model.ModeLongBreak,
		TotalDuration: 900,
		Completed:     true,
	}))
	require.Len(t, store.completions, 1)
	record := store.completions[0]
	assert.Equal(t, model.ModeLongBreak, record.SessionType)
	assert.Equal(t, 900, record.DurationSeconds)
	assert.True(t, record.Completed)
	assert.True(t, record.Final)
	assert.Equal(t, recorderEpoch, record.CreatedAt, "zero start falls back to now")

	assert.Error(t, rec.RecordCompletion(context.Background(), Completion{Mode: model.ModeWork}))
}

func TestMultiStoreJoinsErrors(t *testing.T) {
	ok := &memoryStore{}
	failing := &memoryStore{err: errors.New("down")}
	multi := MultiStore{failing, ok}

	record := model.SessionRecord{ID: "s1", SessionType: model.ModeWork}
	err := multi.UpsertCompletion(context.Background(), record)
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.completions, 1, "healthy stores still receive the record")

	require.NoError(t, MultiStore{ok}.UpsertPartial(context.Background(), record))
	assert.Len(t, ok.partials, 1)
}
