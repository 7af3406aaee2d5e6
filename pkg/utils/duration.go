package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseHoursMinutes parses admin duration input into milliseconds.
// Accepts "H:M" in the primary token, or hours and minutes as two tokens.
// Decimal values are allowed ("1.5" hours). Empty or non-numeric tokens count as zero.
func ParseHoursMinutes(primary, secondary string) (int64, bool) {
	var hours, minutes float64
	if strings.Contains(primary, ":") {
		parts := strings.Split(primary, ":")
		hours = parseNumber(parts[0])
		minutes = parseNumber(parts[1])
	} else {
		hours = parseNumber(primary)
		minutes = parseNumber(secondary)
	}

	if hours < 0 || minutes < 0 {
		return 0, false
	}

	ms := int64(math.Round((hours*3600 + minutes*60) * 1000))
	return ms, ms > 0
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatHHMM formats milliseconds as HH:MM, floored to whole minutes.
// Hours are padded to two digits but may grow beyond 99.
func FormatHHMM(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalMinutes := ms / 60000
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

// FormatHoursMinutes formats milliseconds as "2h 30min", "2h" or "30min"
func FormatHoursMinutes(ms int64) string {
	totalMinutes := ms / 60000
	h := totalMinutes / 60
	m := totalMinutes % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dmin", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dmin", m)
	}
}
