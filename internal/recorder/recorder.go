// Package recorder turns timer progress into session records for the
// external analytics store.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/logging"
)

// Store receives session records. Both writes must be idempotent per
// record ID.
type Store interface {
	UpsertPartial(ctx context.Context, record model.SessionRecord) error
	UpsertCompletion(ctx context.Context, record model.SessionRecord) error
}

// Partial describes a running Work segment at a minute boundary.
type Partial struct {
	SessionID               string
	Mode                    model.Mode
	TotalDuration           int
	Remaining               int
	LastRecordedFullMinutes int
	StartDate               time.Time
	Goal                    string
}

// Completion describes a finished (or abandoned) segment.
type Completion struct {
	SessionID      string
	Mode           model.Mode
	TotalDuration  int
	StartTimestamp time.Time
	Completed      bool
	Goal           string
}

// Recorder writes session records for a single user.
type Recorder struct {
	store  Store
	userID string
	clock  clock.Clock
	logger *zap.Logger
}

// New returns a Recorder writing to store.
func New(store Store, userID string, clk clock.Clock, logger *zap.Logger) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{
		store:  store,
		userID: userID,
		clock:  clk,
		logger: logging.OrNop(logger),
	}
}

// RecordPartial writes the whole minutes elapsed in a Work segment and
// returns the new watermark. Minutes at or below the watermark are not
// re-sent; on error the watermark is returned unchanged.
func (r *Recorder) RecordPartial(ctx context.Context, partial Partial) (int, error) {
	if partial.Mode != model.ModeWork {
		return partial.LastRecordedFullMinutes, nil
	}
	elapsed := partial.TotalDuration - partial.Remaining
	fullMinutes := max(elapsed, 0) / 60
	if fullMinutes <= partial.LastRecordedFullMinutes {
		return partial.LastRecordedFullMinutes, nil
	}

	record := model.SessionRecord{
		ID:              partial.SessionID,
		UserID:          r.userID,
		SessionType:     partial.Mode,
		DurationSeconds: fullMinutes * 60,
		Goal:            partial.Goal,
		CreatedAt:       r.createdAt(partial.StartDate),
	}
	if err := r.store.UpsertPartial(ctx, record); err != nil {
		return partial.LastRecordedFullMinutes, fmt.Errorf("record partial: %w", err)
	}
	r.logger.Debug("partial session recorded",
		zap.String("session_id", partial.SessionID),
		zap.Int("minutes", fullMinutes))
	return fullMinutes, nil
}

// RecordCompletion writes the final record of a segment.
func (r *Recorder) RecordCompletion(ctx context.Context, completion Completion) error {
	if completion.SessionID == "" {
		return errors.New("record completion: empty session id")
	}
	record := model.SessionRecord{
		ID:              completion.SessionID,
		UserID:          r.userID,
		SessionType:     completion.Mode,
		DurationSeconds: max(completion.TotalDuration, 0),
		Completed:       completion.Completed,
		Goal:            completion.Goal,
		CreatedAt:       r.createdAt(completion.StartTimestamp),
		Final:           true,
	}
	if err := r.store.UpsertCompletion(ctx, record); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	r.logger.Info("session recorded",
		zap.String("session_id", completion.SessionID),
		zap.String("session_type", string(completion.Mode)),
		zap.Int("duration", record.DurationSeconds),
		zap.Bool("completed", completion.Completed))
	return nil
}

func (r *Recorder) createdAt(start time.Time) time.Time {
	if start.IsZero() {
		return r.clock.Now()
	}
	return start
}

// MultiStore fans records out to several stores. Every store is tried;
// the errors are joined.
type MultiStore []Store

func (stores MultiStore) UpsertPartial(ctx context.Context, record model.SessionRecord) error {
	var errs []error
	for _, store := range stores {
		if err := store.UpsertPartial(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (stores MultiStore) UpsertCompletion(ctx context.Context, record model.SessionRecord) error {
	var errs []error
	for _, store := range stores {
		if err := store.UpsertCompletion(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
