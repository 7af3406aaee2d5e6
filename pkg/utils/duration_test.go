package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHoursMinutes(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		secondary string
		wantMs    int64
		wantOK    bool
	}{
		{"colon form", "2:30", "", 9_000_000, true},
		{"colon ignores secondary", "2:30", "45", 9_000_000, true},
		{"two tokens", "2", "30", 9_000_000, true},
		{"hours only", "1", "", 3_600_000, true},
		{"minutes only", "0", "15", 900_000, true},
		{"colon minutes only", ":15", "", 900_000, true},
		{"colon hours only", "3:", "", 10_800_000, true},
		{"decimal hours", "1.5", "", 5_400_000, true},
		{"negative hours", "-1", "0", 0, false},
		{"negative minutes", "1", "-5", 0, false},
		{"negative in colon form", "1:-5", "", 0, false},
		{"zero", "0", "0", 0, false},
		{"empty", "", "", 0, false},
		{"garbage", "abc", "def", 0, false},
		{"garbage hours valid minutes", "abc", "10", 600_000, true},
		{"minutes over sixty", "0", "90", 5_400_000, true},
		{"NaN", "NaN", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, ok := ParseHoursMinutes(tt.primary, tt.secondary)
			assert.Equal(t, tt.wantMs, ms)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFormatHHMM(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{59_999, "00:00"},
		{60_000, "00:01"},
		{3_600_000, "01:00"},
		{5_400_000, "01:30"},
		{5_459_999, "01:30"},
		{100 * 3_600_000, "100:00"},
		{-1, "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHHMM(tt.ms), "ms=%d", tt.ms)
	}
}

func TestFormatHoursMinutes(t *testing.T) {
	assert.Equal(t, "1h 15min", FormatHoursMinutes(4_500_000))
	assert.Equal(t, "2h", FormatHoursMinutes(7_200_000))
	assert.Equal(t, "45min", FormatHoursMinutes(2_700_000))
	assert.Equal(t, "0min", FormatHoursMinutes(30_000))
}
