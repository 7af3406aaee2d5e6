package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetime/internal/models"
)

type stubSource struct {
	lifetime []models.UserTotal
	weekly   []models.UserTotal
	weekOf   time.Time
	err      error
}

func (s *stubSource) LifetimeRanking(context.Context) ([]models.UserTotal, error) {
	return s.lifetime, s.err
}

func (s *stubSource) WeeklyRanking(_ context.Context, now time.Time) ([]models.UserTotal, error) {
	s.weekOf = now
	return s.weekly, s.err
}

func TestLifetimeLines(t *testing.T) {
	b := NewBuilder(&stubSource{lifetime: []models.UserTotal{
		{UserID: "111", TotalMs: 5_400_000},
		{UserID: "222", TotalMs: 3_600_000},
	}}, 0)

	lines, err := b.LifetimeLines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		LifetimeHeader,
		"1. <@111> - 01:30",
		"2. <@222> - 01:00",
	}, lines)
}

func TestEmptyRankings(t *testing.T) {
	b := NewBuilder(&stubSource{}, 0)

	lifetime, err := b.LifetimeLines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{LifetimeEmpty}, lifetime)

	weekly, err := b.WeeklyLines(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{WeeklyEmpty}, weekly)
}

func TestFullReport(t *testing.T) {
	now := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)
	src := &stubSource{
		lifetime: []models.UserTotal{{UserID: "111", TotalMs: 5_400_000}},
		weekly:   []models.UserTotal{{UserID: "111", TotalMs: 600_000}},
	}

	chunks, err := NewBuilder(src, 1900).FullReport(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, src.weekOf.Equal(now))

	assert.Equal(t, strings.Join([]string{
		"⏱ Voice channel hours",
		"",
		LifetimeHeader,
		"1. <@111> - 01:30",
		"",
		WeeklyHeader,
		"1. <@111> - 00:10",
		"",
		ReportFootnote,
	}, "\n"), chunks[0])
}

func TestFullReport_Error(t *testing.T) {
	_, err := NewBuilder(&stubSource{err: errors.New("down")}, 0).FullReport(context.Background(), time.Now())
	assert.Error(t, err)
}
