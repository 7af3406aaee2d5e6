package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicetime/internal/models"
	"voicetime/internal/storage"
)

type totalStore struct {
	conn *sql.DB
}

// Commit adds elapsed time to the lifetime and weekly totals in one transaction
func (s *totalStore) Commit(ctx context.Context, userID string, week time.Time, ms int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO totals (user_id, total_ms)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET total_ms = totals.total_ms + EXCLUDED.total_ms`,
			userID, ms); err != nil {
			return fmt.Errorf("failed to add lifetime total: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO weekly_totals (user_id, week_start, total_ms)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, week_start) DO UPDATE SET total_ms = weekly_totals.total_ms + EXCLUDED.total_ms`,
			userID, week.UnixMilli(), ms); err != nil {
			return fmt.Errorf("failed to add weekly total: %w", err)
		}

		return nil
	})
}

// Adjust applies a signed correction to both totals, floored at zero
func (s *totalStore) Adjust(ctx context.Context, userID string, week time.Time, delta int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current int64
		err := tx.QueryRowContext(ctx,
			"SELECT total_ms FROM totals WHERE user_id = $1 FOR UPDATE", userID).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if delta < 0 {
				return storage.ErrNotFound
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO totals (user_id, total_ms) VALUES ($1, $2)", userID, delta); err != nil {
				return fmt.Errorf("failed to insert lifetime total: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to read lifetime total: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				"UPDATE totals SET total_ms = $2 WHERE user_id = $1",
				userID, storage.ApplyDelta(current, delta)); err != nil {
				return fmt.Errorf("failed to update lifetime total: %w", err)
			}
		}

		if delta > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO weekly_totals (user_id, week_start, total_ms)
				VALUES ($1, $2, $3)
				ON CONFLICT (user_id, week_start) DO UPDATE SET total_ms = weekly_totals.total_ms + EXCLUDED.total_ms`,
				userID, week.UnixMilli(), delta)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE weekly_totals SET total_ms = GREATEST(0, total_ms + $3)
				WHERE user_id = $1 AND week_start = $2`,
				userID, week.UnixMilli(), delta)
		}
		if err != nil {
			return fmt.Errorf("failed to adjust weekly total: %w", err)
		}

		return nil
	})
}

// Lifetime gets the lifetime total for a user, zero when absent
func (s *totalStore) Lifetime(ctx context.Context, userID string) (int64, error) {
	var totalMs int64
	err := s.conn.QueryRowContext(ctx,
		"SELECT total_ms FROM totals WHERE user_id = $1", userID).Scan(&totalMs)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to get lifetime total: %w", err)
	}
	return totalMs, nil
}

// ListLifetime gets all non-zero lifetime totals
func (s *totalStore) ListLifetime(ctx context.Context) ([]models.UserTotal, error) {
	return s.queryTotals(ctx,
		"SELECT user_id, total_ms FROM totals WHERE total_ms > 0 ORDER BY total_ms DESC, user_id")
}

// ListWeekly gets all non-zero totals of a week bucket
func (s *totalStore) ListWeekly(ctx context.Context, week time.Time) ([]models.UserTotal, error) {
	return s.queryTotals(ctx,
		"SELECT user_id, total_ms FROM weekly_totals WHERE week_start = $1 AND total_ms > 0 ORDER BY total_ms DESC, user_id",
		week.UnixMilli())
}

func (s *totalStore) queryTotals(ctx context.Context, query string, args ...any) ([]models.UserTotal, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	var totals []models.UserTotal
	for rows.Next() {
		var total models.UserTotal
		if err := rows.Scan(&total.UserID, &total.TotalMs); err != nil {
			return nil, fmt.Errorf("failed to scan total row: %w", err)
		}
		totals = append(totals, total)
	}

	return totals, rows.Err()
}

func (s *totalStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
