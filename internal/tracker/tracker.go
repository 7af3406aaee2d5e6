// Package tracker turns voice presence transitions into committed voice time.
//
// It owns the session ledger (at most one open session per user) and is the only
// writer of the lifetime and weekly totals. Every operation for a given user runs
// under that user's lock, so a switch (close then open) is never interleaved with
// another event or an admin correction for the same user.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voicetime/internal/models"
	"voicetime/internal/storage"
)

// Tracker is the voice session state machine
type Tracker struct {
	sessions storage.SessionStore
	totals   storage.TotalStore
	clock    Clock
	locks    *keyedMutex
	logger   zerolog.Logger
}

// New creates a tracker over the given store
func New(store storage.Store, clock Clock, logger zerolog.Logger) *Tracker {
	if clock == nil {
		clock = RealClock{}
	}
	return &Tracker{
		sessions: store.Sessions(),
		totals:   store.Totals(),
		clock:    clock,
		locks:    newKeyedMutex(),
		logger:   logger.With().Str("component", "tracker").Logger(),
	}
}

// Now returns the tracker's current instant
func (t *Tracker) Now() time.Time {
	return t.clock.Now()
}

// HandleTransition applies one presence change:
//
//	none -> C   open a session in C
//	C -> none   close the session and commit its elapsed time
//	C -> D      close and commit, then open a session in D
//	C -> C      nothing
func (t *Tracker) HandleTransition(ctx context.Context, ev models.VoiceTransition) error {
	if ev.OldChannelID == ev.NewChannelID {
		return nil
	}

	unlock := t.locks.Lock(ev.UserID)
	defer unlock()

	if ev.OldChannelID != "" {
		if err := t.closeAndCommit(ctx, ev.UserID, ev.At); err != nil {
			return err
		}
	}

	if ev.NewChannelID != "" {
		return t.open(ctx, ev.UserID, ev.NewChannelID, ev.At)
	}

	return nil
}

// ActiveChannel returns the channel of the user's open session, or "" if none
func (t *Tracker) ActiveChannel(ctx context.Context, userID string) (string, error) {
	session, err := t.sessions.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return session.ChannelID, nil
}

// OpenSessions returns every session that has not been closed yet
func (t *Tracker) OpenSessions(ctx context.Context) ([]models.VoiceSession, error) {
	sessions, err := t.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
