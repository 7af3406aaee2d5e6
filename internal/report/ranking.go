package report

import (
	"context"
	"time"

	"voicetime/internal/models"
	"voicetime/pkg/utils"
)

const (
	ReportHeader   = "⏱ Voice channel hours\n"
	LifetimeHeader = "🏆 Overall ranking (total time):"
	LifetimeEmpty  = "Nobody has recorded time yet."
	WeeklyHeader   = "📅 This week's ranking:"
	WeeklyEmpty    = "Nobody has recorded time this week yet."
	ReportFootnote = "Note: time only counts while connected. If the bot is down during that time, it is not recorded."
)

// Source provides the totals a ranking is built from
type Source interface {
	LifetimeRanking(ctx context.Context) ([]models.UserTotal, error)
	WeeklyRanking(ctx context.Context, now time.Time) ([]models.UserTotal, error)
}

// Builder renders rankings straight from the totals on every call
type Builder struct {
	source   Source
	maxChunk int
}

// NewBuilder creates a ranking builder producing chunks of at most maxChunk characters
func NewBuilder(source Source, maxChunk int) *Builder {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkLength
	}
	return &Builder{source: source, maxChunk: maxChunk}
}

// LifetimeLines renders the overall ranking
func (b *Builder) LifetimeLines(ctx context.Context) ([]string, error) {
	totals, err := b.source.LifetimeRanking(ctx)
	if err != nil {
		return nil, err
	}
	return rankingLines(LifetimeHeader, LifetimeEmpty, totals), nil
}

// WeeklyLines renders the ranking of the week containing now
func (b *Builder) WeeklyLines(ctx context.Context, now time.Time) ([]string, error) {
	totals, err := b.source.WeeklyRanking(ctx, now)
	if err != nil {
		return nil, err
	}
	return rankingLines(WeeklyHeader, WeeklyEmpty, totals), nil
}

// FullReport renders both rankings with the footnote, split into chunks
func (b *Builder) FullReport(ctx context.Context, now time.Time) ([]string, error) {
	lifetime, err := b.LifetimeLines(ctx)
	if err != nil {
		return nil, err
	}
	weekly, err := b.WeeklyLines(ctx, now)
	if err != nil {
		return nil, err
	}

	body := make([]string, 0, len(lifetime)+len(weekly)+3)
	body = append(body, lifetime...)
	body = append(body, "")
	body = append(body, weekly...)
	body = append(body, "", ReportFootnote)

	return Chunk(ReportHeader, body, b.maxChunk), nil
}

func rankingLines(header, empty string, totals []models.UserTotal) []string {
	if len(totals) == 0 {
		return []string{empty}
	}
	lines := make([]string, 0, len(totals)+1)
	lines = append(lines, header)
	for i, total := range totals {
		lines = append(lines, utils.FormatRankingEntry(i+1, total.UserID, total.TotalMs))
	}
	return lines
}
