package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicetime/internal/metrics"
	"voicetime/internal/models"
	"voicetime/internal/storage"
	"voicetime/pkg/utils"
)

// commit adds elapsed time to the lifetime total and to the week bucket of now
func (t *Tracker) commit(ctx context.Context, userID string, elapsedMs int64, now time.Time) error {
	if elapsedMs <= 0 {
		return nil
	}

	week := utils.WeekStart(now)
	if err := t.totals.Commit(ctx, userID, week, elapsedMs); err != nil {
		metrics.StoreErrors.WithLabelValues("commit").Inc()
		t.logger.Error().Err(err).
			Str("user_id", userID).
			Int64("elapsed_ms", elapsedMs).
			Msg("Failed to commit voice time")
		return fmt.Errorf("failed to commit voice time: %w", err)
	}

	metrics.CommittedSeconds.Add(float64(elapsedMs) / 1000)
	t.logger.Info().
		Str("user_id", userID).
		Int64("elapsed_ms", elapsedMs).
		Time("week_start", week).
		Msg("Committed voice time")

	return nil
}

// Lifetime returns the committed lifetime total of a user, zero when unknown
func (t *Tracker) Lifetime(ctx context.Context, userID string) (int64, error) {
	total, err := t.totals.Lifetime(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read lifetime total: %w", err)
	}
	return total, nil
}

// CurrentTotal returns the lifetime total plus the elapsed time of the open
// session, if any. Nothing is written.
func (t *Tracker) CurrentTotal(ctx context.Context, userID string, now time.Time) (int64, error) {
	total, err := t.Lifetime(ctx, userID)
	if err != nil {
		return 0, err
	}

	session, err := t.sessions.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return total, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read session: %w", err)
	}
	if elapsed := session.Elapsed(now); elapsed > 0 {
		total += elapsed
	}
	return total, nil
}

// LifetimeRanking returns all users with time, highest first
func (t *Tracker) LifetimeRanking(ctx context.Context) ([]models.UserTotal, error) {
	totals, err := t.totals.ListLifetime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lifetime totals: %w", err)
	}
	return totals, nil
}

// WeeklyRanking returns all users with time in the week containing now, highest first
func (t *Tracker) WeeklyRanking(ctx context.Context, now time.Time) ([]models.UserTotal, error) {
	totals, err := t.totals.ListWeekly(ctx, utils.WeekStart(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly totals: %w", err)
	}
	return totals, nil
}
