package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicetime/internal/metrics"
	"voicetime/internal/storage"
	"voicetime/pkg/utils"
)

// ErrTargetNotFound is returned when removing time from a user with no recorded total
var ErrTargetNotFound = errors.New("target user has no recorded time")

// AddTime credits ms to the user's lifetime total and to the current week,
// creating either row if needed
func (t *Tracker) AddTime(ctx context.Context, userID string, ms int64, now time.Time) error {
	if ms <= 0 {
		return fmt.Errorf("invalid adjustment: %d ms", ms)
	}
	return t.adjust(ctx, userID, ms, now, "add")
}

// RemoveTime removes ms from the user's lifetime total and from the current week
// if that bucket exists. Totals never drop below zero.
func (t *Tracker) RemoveTime(ctx context.Context, userID string, ms int64, now time.Time) error {
	if ms <= 0 {
		return fmt.Errorf("invalid adjustment: %d ms", ms)
	}
	return t.adjust(ctx, userID, -ms, now, "remove")
}

func (t *Tracker) adjust(ctx context.Context, userID string, delta int64, now time.Time, op string) error {
	unlock := t.locks.Lock(userID)
	defer unlock()

	week := utils.WeekStart(now)
	err := t.totals.Adjust(ctx, userID, week, delta)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		metrics.Adjustments.WithLabelValues(op, "not_found").Inc()
		return ErrTargetNotFound
	case err != nil:
		metrics.Adjustments.WithLabelValues(op, "error").Inc()
		metrics.StoreErrors.WithLabelValues("adjust").Inc()
		return fmt.Errorf("failed to adjust voice time: %w", err)
	}

	metrics.Adjustments.WithLabelValues(op, "ok").Inc()
	t.logger.Info().
		Str("user_id", userID).
		Int64("delta_ms", delta).
		Time("week_start", week).
		Msg("Adjusted voice time")

	return nil
}
