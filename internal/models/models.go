package models

import "time"

// VoiceSession represents a user's open voice channel session
type VoiceSession struct {
	UserID    string
	ChannelID string
	Start     time.Time
}

// Elapsed returns the time spent in the session up to now, in milliseconds
func (s VoiceSession) Elapsed(now time.Time) int64 {
	return now.UnixMilli() - s.Start.UnixMilli()
}

// UserTotal is an accumulated voice time counter for one user,
// either lifetime or scoped to a week bucket
type UserTotal struct {
	UserID  string
	TotalMs int64
}

// VoiceTransition is a presence change for one user.
// An empty channel ID means the user is not in a voice channel.
type VoiceTransition struct {
	UserID       string
	OldChannelID string
	NewChannelID string
	At           time.Time
}
