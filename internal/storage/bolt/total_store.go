package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"voicetime/internal/models"
	"voicetime/internal/storage"
)

type totalRecord struct {
	UserID    string `json:"user_id"`
	WeekStart int64  `json:"week_start,omitempty"`
	TotalMs   int64  `json:"total_ms"`
}

type totalStore struct {
	db *bbolt.DB
}

func (s *totalStore) Commit(ctx context.Context, userID string, week time.Time, ms int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		totals, weekly, err := totalBuckets(tx)
		if err != nil {
			return err
		}

		lifetime, _, err := readTotal(totals, userID)
		if err != nil {
			return err
		}
		if err := putValue(totals, userID, totalRecord{UserID: userID, TotalMs: lifetime + ms}); err != nil {
			return err
		}

		key := weeklyKey(week, userID)
		current, _, err := readTotal(weekly, key)
		if err != nil {
			return err
		}
		return putValue(weekly, key, totalRecord{UserID: userID, WeekStart: week.UnixMilli(), TotalMs: current + ms})
	})
}

func (s *totalStore) Adjust(ctx context.Context, userID string, week time.Time, delta int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		totals, weekly, err := totalBuckets(tx)
		if err != nil {
			return err
		}

		lifetime, found, err := readTotal(totals, userID)
		if err != nil {
			return err
		}
		if !found && delta < 0 {
			return storage.ErrNotFound
		}
		if err := putValue(totals, userID, totalRecord{
			UserID:  userID,
			TotalMs: storage.ApplyDelta(lifetime, delta),
		}); err != nil {
			return err
		}

		key := weeklyKey(week, userID)
		current, found, err := readTotal(weekly, key)
		if err != nil {
			return err
		}
		if !found && delta < 0 {
			return nil
		}
		return putValue(weekly, key, totalRecord{
			UserID:    userID,
			WeekStart: week.UnixMilli(),
			TotalMs:   storage.ApplyDelta(current, delta),
		})
	})
}

func (s *totalStore) Lifetime(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := bucket(tx, bucketTotals)
		if err != nil {
			return err
		}
		total, _, err = readTotal(b, userID)
		return err
	})
	return total, err
}

func (s *totalStore) ListLifetime(ctx context.Context) ([]models.UserTotal, error) {
	var totals []models.UserTotal
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketTotals)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return appendPositive(&totals, v)
		})
	})
	if err != nil {
		return nil, err
	}
	storage.SortTotals(totals)
	return totals, nil
}

func (s *totalStore) ListWeekly(ctx context.Context, week time.Time) ([]models.UserTotal, error) {
	var totals []models.UserTotal
	prefix := []byte(weeklyPrefix(week))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketWeeklyTotals)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := appendPositive(&totals, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	storage.SortTotals(totals)
	return totals, nil
}

func totalBuckets(tx *bbolt.Tx) (*bbolt.Bucket, *bbolt.Bucket, error) {
	totals, err := bucket(tx, bucketTotals)
	if err != nil {
		return nil, nil, err
	}
	weekly, err := bucket(tx, bucketWeeklyTotals)
	if err != nil {
		return nil, nil, err
	}
	return totals, weekly, nil
}

// readTotal returns the stored total for key, zero when absent
func readTotal(b *bbolt.Bucket, key string) (int64, bool, error) {
	value := b.Get([]byte(key))
	if value == nil {
		return 0, false, nil
	}
	var record totalRecord
	if err := unmarshal(value, &record); err != nil {
		return 0, false, err
	}
	return record.TotalMs, true, nil
}

func appendPositive(totals *[]models.UserTotal, value []byte) error {
	var record totalRecord
	if err := unmarshal(value, &record); err != nil {
		return err
	}
	if record.TotalMs > 0 {
		*totals = append(*totals, models.UserTotal{UserID: record.UserID, TotalMs: record.TotalMs})
	}
	return nil
}

func weeklyPrefix(week time.Time) string {
	return fmt.Sprintf("%020d/", week.UnixMilli())
}

func weeklyKey(week time.Time, userID string) string {
	return weeklyPrefix(week) + userID
}
