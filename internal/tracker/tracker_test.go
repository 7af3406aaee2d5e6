package tracker

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetime/internal/models"
	"voicetime/internal/storage"
	"voicetime/internal/storage/bolt"
)

// Monday
var epoch = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func setupTracker(t *testing.T) (*Tracker, storage.Store) {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "voicetime.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(store, NewFixedClock(epoch), zerolog.Nop()), store
}

func at(ms int64) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func join(user, channel string, ms int64) models.VoiceTransition {
	return models.VoiceTransition{UserID: user, NewChannelID: channel, At: at(ms)}
}

func leave(user, channel string, ms int64) models.VoiceTransition {
	return models.VoiceTransition{UserID: user, OldChannelID: channel, At: at(ms)}
}

func move(user, from, to string, ms int64) models.VoiceTransition {
	return models.VoiceTransition{UserID: user, OldChannelID: from, NewChannelID: to, At: at(ms)}
}

func apply(t *testing.T, tr *Tracker, events ...models.VoiceTransition) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, tr.HandleTransition(context.Background(), ev))
	}
}

func lifetime(t *testing.T, tr *Tracker, user string) int64 {
	t.Helper()
	total, err := tr.Lifetime(context.Background(), user)
	require.NoError(t, err)
	return total
}

func weekly(t *testing.T, tr *Tracker, now time.Time) []models.UserTotal {
	t.Helper()
	totals, err := tr.WeeklyRanking(context.Background(), now)
	require.NoError(t, err)
	return totals
}

func TestHandleTransition_JoinSwitchLeave(t *testing.T) {
	tr, store := setupTracker(t)

	apply(t, tr,
		join("u1", "A", 0),
		move("u1", "A", "B", 60_000),
	)

	channel, err := tr.ActiveChannel(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "B", channel)
	assert.Equal(t, int64(60_000), lifetime(t, tr, "u1"))

	apply(t, tr, leave("u1", "B", 150_000))

	assert.Equal(t, int64(150_000), lifetime(t, tr, "u1"))
	assert.Equal(t, []models.UserTotal{{UserID: "u1", TotalMs: 150_000}}, weekly(t, tr, at(150_000)))

	_, err = store.Sessions().Get(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHandleTransition_SameChannelIsNoop(t *testing.T) {
	tr, _ := setupTracker(t)

	apply(t, tr,
		join("u1", "A", 0),
		move("u1", "A", "A", 30_000),
		leave("u1", "A", 90_000),
	)

	assert.Equal(t, int64(90_000), lifetime(t, tr, "u1"))
}

func TestOpenSessions(t *testing.T) {
	tr, _ := setupTracker(t)

	apply(t, tr,
		join("u1", "A", 0),
		join("u2", "B", 1_000),
		leave("u2", "B", 2_000),
	)

	open, err := tr.OpenSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "u1", open[0].UserID)
	assert.Equal(t, "A", open[0].ChannelID)
	assert.True(t, open[0].Start.Equal(epoch))
}

func TestHandleTransition_LeaveWithoutSession(t *testing.T) {
	tr, _ := setupTracker(t)

	apply(t, tr, leave("u1", "A", 10_000))

	assert.Zero(t, lifetime(t, tr, "u1"))
	assert.Empty(t, weekly(t, tr, at(10_000)))
}

func TestHandleTransition_StaleSessionIsDiscarded(t *testing.T) {
	tr, _ := setupTracker(t)

	// The leave from A was never delivered.
	apply(t, tr,
		join("u1", "A", 0),
		join("u1", "B", 100_000),
		leave("u1", "B", 160_000),
	)

	assert.Equal(t, int64(60_000), lifetime(t, tr, "u1"))
}

func TestHandleTransition_NonPositiveElapsed(t *testing.T) {
	tr, store := setupTracker(t)

	apply(t, tr,
		join("u1", "A", 100_000),
		leave("u1", "A", 50_000),
	)

	assert.Zero(t, lifetime(t, tr, "u1"))
	_, err := store.Sessions().Get(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound, "session must be removed even when nothing is credited")

	apply(t, tr, leave("u1", "A", 200_000))
	assert.Zero(t, lifetime(t, tr, "u1"))
}

func TestHandleTransition_CreditsWeekOfClose(t *testing.T) {
	tr, _ := setupTracker(t)

	sunday := time.Date(2024, 1, 21, 23, 0, 0, 0, time.UTC)
	monday := sunday.Add(2 * time.Hour)

	require.NoError(t, tr.HandleTransition(context.Background(),
		models.VoiceTransition{UserID: "u1", NewChannelID: "A", At: sunday}))
	require.NoError(t, tr.HandleTransition(context.Background(),
		models.VoiceTransition{UserID: "u1", OldChannelID: "A", At: monday}))

	assert.Empty(t, weekly(t, tr, sunday))
	assert.Equal(t, []models.UserTotal{{UserID: "u1", TotalMs: 7_200_000}}, weekly(t, tr, monday))
}

func TestHandleTransition_RandomSequencesMatchSegments(t *testing.T) {
	tr, _ := setupTracker(t)
	rng := rand.New(rand.NewSource(7))
	channels := []string{"", "A", "B", "C"}

	users := []string{"u1", "u2", "u3"}
	expected := make(map[string]int64)
	current := make(map[string]string)
	joinedAt := make(map[string]int64)

	var clock int64
	for i := 0; i < 300; i++ {
		user := users[rng.Intn(len(users))]
		next := channels[rng.Intn(len(channels))]
		clock += int64(rng.Intn(120_000))

		prev := current[user]
		apply(t, tr, models.VoiceTransition{UserID: user, OldChannelID: prev, NewChannelID: next, At: at(clock)})

		if prev == next {
			continue
		}
		if prev != "" {
			if elapsed := clock - joinedAt[user]; elapsed > 0 {
				expected[user] += elapsed
			}
		}
		if next != "" {
			joinedAt[user] = clock
		}
		current[user] = next
	}

	for _, user := range users {
		assert.Equal(t, expected[user], lifetime(t, tr, user), "user %s", user)
	}
}

func TestCurrentTotal_IncludesOpenSession(t *testing.T) {
	tr, _ := setupTracker(t)
	ctx := context.Background()

	apply(t, tr,
		join("u1", "A", 0),
		leave("u1", "A", 60_000),
		join("u1", "A", 100_000),
	)

	total, err := tr.CurrentTotal(ctx, "u1", at(130_000))
	require.NoError(t, err)
	assert.Equal(t, int64(90_000), total)

	// display only
	assert.Equal(t, int64(60_000), lifetime(t, tr, "u1"))

	none, err := tr.CurrentTotal(ctx, "nobody", at(130_000))
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestAddTime_CreatesRows(t *testing.T) {
	tr, _ := setupTracker(t)

	require.NoError(t, tr.AddTime(context.Background(), "u1", 4_500_000, epoch))

	assert.Equal(t, int64(4_500_000), lifetime(t, tr, "u1"))
	assert.Equal(t, []models.UserTotal{{UserID: "u1", TotalMs: 4_500_000}}, weekly(t, tr, epoch))
}

func TestRemoveTime_TargetNotFound(t *testing.T) {
	tr, _ := setupTracker(t)

	err := tr.RemoveTime(context.Background(), "ghost", 60_000, epoch)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	ranking, err := tr.LifetimeRanking(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ranking)
	assert.Empty(t, weekly(t, tr, epoch))
}

func TestRemoveTime_FloorsAtZero(t *testing.T) {
	tr, _ := setupTracker(t)
	ctx := context.Background()

	apply(t, tr, join("u1", "A", 0), leave("u1", "A", 600_000))
	require.NoError(t, tr.RemoveTime(ctx, "u1", 3_600_000, at(700_000)))

	assert.Zero(t, lifetime(t, tr, "u1"))
	assert.Empty(t, weekly(t, tr, epoch))
}

func TestRemoveTime_MissingWeekOnlyReducesLifetime(t *testing.T) {
	tr, _ := setupTracker(t)
	ctx := context.Background()

	apply(t, tr, join("u1", "A", 0), leave("u1", "A", 600_000))

	nextWeek := epoch.AddDate(0, 0, 7)
	require.NoError(t, tr.RemoveTime(ctx, "u1", 60_000, nextWeek))

	assert.Equal(t, int64(540_000), lifetime(t, tr, "u1"))
	assert.Empty(t, weekly(t, tr, nextWeek))
	assert.Equal(t, []models.UserTotal{{UserID: "u1", TotalMs: 600_000}}, weekly(t, tr, epoch))
}

func TestAdjust_RejectsNonPositive(t *testing.T) {
	tr, _ := setupTracker(t)

	assert.Error(t, tr.AddTime(context.Background(), "u1", 0, epoch))
	assert.Error(t, tr.RemoveTime(context.Background(), "u1", -5, epoch))
}

func TestAddTime_ConcurrentSameUser(t *testing.T) {
	tr, _ := setupTracker(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.AddTime(context.Background(), "u1", 1000, epoch))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50_000), lifetime(t, tr, "u1"))
	assert.Empty(t, tr.locks.locks, "per-user locks are released")
}

type failingTotals struct {
	storage.TotalStore
}

func (failingTotals) Commit(context.Context, string, time.Time, int64) error {
	return errors.New("connection reset")
}

type failingStore struct {
	storage.Store
}

func (s failingStore) Totals() storage.TotalStore {
	return failingTotals{TotalStore: s.Store.Totals()}
}

func TestHandleTransition_CommitFailureStillClosesSession(t *testing.T) {
	_, store := setupTracker(t)
	tr := New(failingStore{Store: store}, nil, zerolog.Nop())
	ctx := context.Background()

	apply(t, tr, join("u1", "A", 0))

	err := tr.HandleTransition(ctx, leave("u1", "A", 60_000))
	require.Error(t, err)

	_, err = store.Sessions().Get(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
