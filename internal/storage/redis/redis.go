package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"voicetime/internal/config"
	"voicetime/internal/storage"
)

const (
	keyTotals       = "voicetime:totals"
	keySessionIndex = "voicetime:sessions"
)

func sessionKey(userID string) string {
	return fmt.Sprintf("voicetime:session:%s", userID)
}

func weeklyKey(week time.Time) string {
	return fmt.Sprintf("voicetime:weekly:%d", week.UnixMilli())
}

// Store implements the storage.Store interface using Redis
type Store struct {
	client       *redis.Client
	sessionStore *sessionStore
	totalStore   *totalStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client:       client,
		sessionStore: &sessionStore{client: client},
		totalStore: &totalStore{
			client: client,
			commit: redis.NewScript(commitScript),
			adjust: redis.NewScript(adjustScript),
		},
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Sessions returns the SessionStore implementation
func (s *Store) Sessions() storage.SessionStore {
	return s.sessionStore
}

// Totals returns the TotalStore implementation
func (s *Store) Totals() storage.TotalStore {
	return s.totalStore
}
