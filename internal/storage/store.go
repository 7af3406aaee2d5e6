package storage

import (
	"context"
	"errors"
	"time"

	"voicetime/internal/models"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Sessions() SessionStore
	Totals() TotalStore
}

// SessionStore holds at most one open voice session per user.
type SessionStore interface {
	// Put inserts the session, replacing any existing one for the same user.
	Put(ctx context.Context, session models.VoiceSession) error
	// Get returns ErrNotFound when the user has no open session.
	Get(ctx context.Context, userID string) (*models.VoiceSession, error)
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]models.VoiceSession, error)
}

// TotalStore holds the lifetime and weekly accumulators.
// Week buckets are identified by their start instant.
type TotalStore interface {
	// Commit adds ms to the lifetime total and to the week bucket in one atomic step.
	Commit(ctx context.Context, userID string, week time.Time, ms int64) error
	// Adjust applies a signed delta to both counters, flooring at zero.
	// A negative delta against a missing lifetime row returns ErrNotFound and changes nothing.
	// A negative delta against a missing week bucket leaves that bucket absent.
	Adjust(ctx context.Context, userID string, week time.Time, delta int64) error
	// Lifetime returns zero for users without a row.
	Lifetime(ctx context.Context, userID string) (int64, error)
	// ListLifetime returns all non-zero lifetime totals.
	ListLifetime(ctx context.Context) ([]models.UserTotal, error)
	// ListWeekly returns all non-zero totals for the week bucket.
	ListWeekly(ctx context.Context, week time.Time) ([]models.UserTotal, error)
}

// ApplyDelta adds delta to current and floors the result at zero.
func ApplyDelta(current, delta int64) int64 {
	if v := current + delta; v > 0 {
		return v
	}
	return 0
}
