package report

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkLength keeps chunks under Discord's 2000 character message limit.
const DefaultMaxChunkLength = 1900

// Chunk packs lines into message-sized chunks of at most limit characters.
// The header opens the first chunk only. A single line longer than limit is
// never split and becomes an oversized chunk of its own.
func Chunk(header string, lines []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxChunkLength
	}

	var (
		chunks  []string
		current strings.Builder
		length  int
	)

	flush := func() {
		if text := strings.TrimRight(current.String(), " \t\r\n"); strings.TrimSpace(text) != "" {
			chunks = append(chunks, text)
		}
		current.Reset()
		length = 0
	}

	if header != "" {
		current.WriteString(header)
		current.WriteString("\n")
		length = utf8.RuneCountInString(header) + 1
	}

	for _, line := range lines {
		lineLength := utf8.RuneCountInString(line) + 1
		if length > 0 && length+lineLength > limit {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
		length += lineLength
	}
	flush()

	return chunks
}
