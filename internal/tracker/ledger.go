package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicetime/internal/metrics"
	"voicetime/internal/models"
	"voicetime/internal/storage"
)

// open starts a session for the user in channelID. A session that is still open
// is replaced without crediting its time: it means a leave event was missed or the
// process restarted, and its elapsed time cannot be trusted.
func (t *Tracker) open(ctx context.Context, userID, channelID string, now time.Time) error {
	stale, err := t.sessions.Get(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.StoreErrors.WithLabelValues("session_get").Inc()
		return fmt.Errorf("failed to read session: %w", err)
	}
	if stale != nil {
		metrics.OrphanedSessions.Inc()
		t.logger.Warn().
			Str("user_id", userID).
			Str("stale_channel_id", stale.ChannelID).
			Time("stale_start", stale.Start).
			Msg("Discarding stale session without credit")
	}

	if err := t.sessions.Put(ctx, models.VoiceSession{
		UserID:    userID,
		ChannelID: channelID,
		Start:     now,
	}); err != nil {
		metrics.StoreErrors.WithLabelValues("session_put").Inc()
		return fmt.Errorf("failed to open session: %w", err)
	}

	metrics.SessionsOpened.Inc()
	t.logger.Debug().
		Str("user_id", userID).
		Str("channel_id", channelID).
		Time("start", now).
		Msg("Join")

	return nil
}

// close ends the user's session. The row is always removed once found, and the
// elapsed time is returned only when positive. No session is not an error.
func (t *Tracker) close(ctx context.Context, userID string, now time.Time) (int64, bool, error) {
	session, err := t.sessions.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("session_get").Inc()
		return 0, false, fmt.Errorf("failed to read session: %w", err)
	}

	if err := t.sessions.Delete(ctx, userID); err != nil {
		metrics.StoreErrors.WithLabelValues("session_delete").Inc()
		return 0, false, fmt.Errorf("failed to close session: %w", err)
	}

	elapsed := session.Elapsed(now)
	metrics.SessionsClosed.WithLabelValues(fmt.Sprint(elapsed > 0)).Inc()
	t.logger.Debug().
		Str("user_id", userID).
		Str("channel_id", session.ChannelID).
		Int64("elapsed_ms", elapsed).
		Msg("Leave")

	if elapsed <= 0 {
		return 0, false, nil
	}
	return elapsed, true, nil
}

// closeAndCommit closes the session and commits its time.
// The session is already gone if the commit fails.
func (t *Tracker) closeAndCommit(ctx context.Context, userID string, now time.Time) error {
	elapsed, ok, err := t.close(ctx, userID, now)
	if err != nil || !ok {
		return err
	}
	return t.commit(ctx, userID, elapsed, now)
}
