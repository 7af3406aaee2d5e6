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

type sessionStore struct {
	conn *sql.DB
}

// Put inserts or replaces the open session for a user
func (s *sessionStore) Put(ctx context.Context, session models.VoiceSession) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO sessions (user_id, channel_id, join_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET channel_id = EXCLUDED.channel_id, join_ts = EXCLUDED.join_ts`,
		session.UserID, session.ChannelID, session.Start.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// Get returns the open session for a user
func (s *sessionStore) Get(ctx context.Context, userID string) (*models.VoiceSession, error) {
	var (
		channelID string
		joinTs    int64
	)
	err := s.conn.QueryRowContext(ctx,
		"SELECT channel_id, join_ts FROM sessions WHERE user_id = $1", userID).Scan(&channelID, &joinTs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &models.VoiceSession{
		UserID:    userID,
		ChannelID: channelID,
		Start:     time.UnixMilli(joinTs).UTC(),
	}, nil
}

// Delete removes the open session for a user
func (s *sessionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns every open session
func (s *sessionStore) List(ctx context.Context) ([]models.VoiceSession, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT user_id, channel_id, join_ts FROM sessions ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.VoiceSession
	for rows.Next() {
		var (
			session models.VoiceSession
			joinTs  int64
		)
		if err := rows.Scan(&session.UserID, &session.ChannelID, &joinTs); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session.Start = time.UnixMilli(joinTs).UTC()
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
