package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"voicetime/internal/models"
	"voicetime/internal/storage"
)

type totalStore struct {
	client *redis.Client
	commit *redis.Script
	adjust *redis.Script
}

// Commit atomically adds elapsed time to the lifetime and weekly totals
func (s *totalStore) Commit(ctx context.Context, userID string, week time.Time, ms int64) error {
	keys := []string{keyTotals, weeklyKey(week)}
	return s.commit.Run(ctx, s.client, keys, userID, ms).Err()
}

// Adjust atomically applies a signed correction to both totals
func (s *totalStore) Adjust(ctx context.Context, userID string, week time.Time, delta int64) error {
	keys := []string{keyTotals, weeklyKey(week)}
	applied, err := s.adjust.Run(ctx, s.client, keys, userID, delta).Int()
	if err != nil {
		return err
	}
	if applied == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Lifetime returns the lifetime total of a user, zero when absent
func (s *totalStore) Lifetime(ctx context.Context, userID string) (int64, error) {
	score, err := s.client.ZScore(ctx, keyTotals, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// ListLifetime returns all non-zero lifetime totals
func (s *totalStore) ListLifetime(ctx context.Context) ([]models.UserTotal, error) {
	return s.listPositive(ctx, keyTotals)
}

// ListWeekly returns all non-zero totals of a week bucket
func (s *totalStore) ListWeekly(ctx context.Context, week time.Time) ([]models.UserTotal, error) {
	return s.listPositive(ctx, weeklyKey(week))
}

func (s *totalStore) listPositive(ctx context.Context, key string) ([]models.UserTotal, error) {
	entries, err := s.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: "(0",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	totals := make([]models.UserTotal, 0, len(entries))
	for _, entry := range entries {
		userID, ok := entry.Member.(string)
		if !ok {
			continue
		}
		totals = append(totals, models.UserTotal{UserID: userID, TotalMs: int64(entry.Score)})
	}

	storage.SortTotals(totals)
	return totals, nil
}
