package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// FormatUserMention formats a user ID as a Discord mention
func FormatUserMention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// ExtractUserIDFromMention extracts user ID from Discord mention
func ExtractUserIDFromMention(mention string) string {
	// Remove <@ and >
	userID := strings.TrimPrefix(mention, "<@")
	userID = strings.TrimSuffix(userID, ">")
	// Remove ! if present (for nickname mentions)
	userID = strings.TrimPrefix(userID, "!")
	return userID
}

// IsUserMention checks if a string is a valid user mention
func IsUserMention(text string) bool {
	return strings.HasPrefix(text, "<@") && strings.HasSuffix(text, ">") && !strings.HasPrefix(text, "<@&")
}

// FormatRankingEntry formats a ranking line as "1. <@id> - HH:MM"
func FormatRankingEntry(rank int, userID string, totalMs int64) string {
	return fmt.Sprintf("%d. %s - %s", rank, FormatUserMention(userID), FormatHHMM(totalMs))
}

// IsSnowflake reports whether id is a numeric Discord snowflake
func IsSnowflake(id string) bool {
	parsed, err := snowflake.ParseString(id)
	return err == nil && parsed > 0
}
