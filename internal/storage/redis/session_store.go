package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"voicetime/internal/models"
	"voicetime/internal/storage"
)

type sessionStore struct {
	client *redis.Client
}

// Put creates or replaces the open session of a user
func (s *sessionStore) Put(ctx context.Context, session models.VoiceSession) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.UserID),
			"user_id", session.UserID,
			"channel_id", session.ChannelID,
			"join_ts", session.Start.UnixMilli(),
		)
		pipe.SAdd(ctx, keySessionIndex, session.UserID)
		return nil
	})
	return err
}

// Get retrieves the open session of a user
func (s *sessionStore) Get(ctx context.Context, userID string) (*models.VoiceSession, error) {
	data, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	return parseSession(data)
}

// Delete removes the open session of a user
func (s *sessionStore) Delete(ctx context.Context, userID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(userID))
		pipe.SRem(ctx, keySessionIndex, userID)
		return nil
	})
	return err
}

// List returns all open sessions
func (s *sessionStore) List(ctx context.Context) ([]models.VoiceSession, error) {
	userIDs, err := s.client.SMembers(ctx, keySessionIndex).Result()
	if err != nil {
		return nil, err
	}

	if len(userIDs) == 0 {
		return []models.VoiceSession{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(userIDs))
	for i, id := range userIDs {
		cmds[i] = pipe.HGetAll(ctx, sessionKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	sessions := make([]models.VoiceSession, 0, len(userIDs))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		session, err := parseSession(data)
		if err == nil {
			sessions = append(sessions, *session)
		}
	}

	return sessions, nil
}

// parseSession converts a Redis hash to VoiceSession
func parseSession(data map[string]string) (*models.VoiceSession, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	joinTs, err := strconv.ParseInt(data["join_ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse join_ts: %w", err)
	}

	return &models.VoiceSession{
		UserID:    data["user_id"],
		ChannelID: data["channel_id"],
		Start:     time.UnixMilli(joinTs).UTC(),
	}, nil
}
