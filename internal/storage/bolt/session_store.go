package bolt

import (
	"context"
	"time"

	"go.etcd.io/bbolt"

	"voicetime/internal/models"
)

type sessionRecord struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	JoinTs    int64  `json:"join_ts"`
}

func (r sessionRecord) toModel() models.VoiceSession {
	return models.VoiceSession{
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		Start:     time.UnixMilli(r.JoinTs).UTC(),
	}
}

type sessionStore struct {
	db *bbolt.DB
}

func (s *sessionStore) Put(ctx context.Context, session models.VoiceSession) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := bucket(tx, bucketSessions)
		if err != nil {
			return err
		}
		return putValue(b, session.UserID, sessionRecord{
			UserID:    session.UserID,
			ChannelID: session.ChannelID,
			JoinTs:    session.Start.UnixMilli(),
		})
	})
}

func (s *sessionStore) Get(ctx context.Context, userID string) (*models.VoiceSession, error) {
	record, err := getBucketValue[sessionRecord](ctx, s.db, bucketSessions, userID)
	if err != nil {
		return nil, err
	}
	session := record.toModel()
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := bucket(tx, bucketSessions)
		if err != nil {
			return err
		}
		return b.Delete([]byte(userID))
	})
}

func (s *sessionStore) List(ctx context.Context) ([]models.VoiceSession, error) {
	sessions := make([]models.VoiceSession, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketSessions)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var record sessionRecord
			if err := unmarshal(v, &record); err != nil {
				return err
			}
			sessions = append(sessions, record.toModel())
			return nil
		})
	})
	return sessions, err
}
