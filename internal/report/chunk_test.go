package report

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SingleChunk(t *testing.T) {
	chunks := Chunk("Header", []string{"a", "b"}, 100)
	assert.Equal(t, []string{"Header\na\nb"}, chunks)
}

func TestChunk_NoHeader(t *testing.T) {
	chunks := Chunk("", []string{"a", "b"}, 100)
	assert.Equal(t, []string{"a\nb"}, chunks)
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, Chunk("", nil, 100))
	assert.Empty(t, Chunk("", []string{"", "  "}, 100))
}

func TestChunk_HeaderOnlyInFirstChunk(t *testing.T) {
	// "H\n" = 2, each line = 5
	chunks := Chunk("H", []string{"1111", "2222", "3333"}, 12)
	assert.Equal(t, []string{"H\n1111\n2222", "3333"}, chunks)
}

func TestChunk_ExactFit(t *testing.T) {
	chunks := Chunk("", []string{"1234", "5678"}, 10)
	assert.Equal(t, []string{"1234\n5678"}, chunks)
}

func TestChunk_OversizedLine(t *testing.T) {
	long := strings.Repeat("x", 30)
	chunks := Chunk("", []string{"a", long, "b"}, 10)
	assert.Equal(t, []string{"a", long, "b"}, chunks)
}

func TestChunk_CountsCharactersNotBytes(t *testing.T) {
	line := strings.Repeat("é", 4) // 8 bytes, 4 characters
	chunks := Chunk("", []string{line, line}, 10)
	assert.Len(t, chunks, 1)
}

func TestChunk_RoundTripAndLimit(t *testing.T) {
	var lines []string
	for i := 1; i <= 500; i++ {
		lines = append(lines, fmt.Sprintf("%d. <@%018d> - %02d:%02d", i, i*7919, i/60, i%60))
	}

	const limit = 1900
	chunks := Chunk("⏱ Voice channel hours", lines, limit)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), limit)
	}

	joined := strings.TrimSpace(strings.Join(chunks, "\n"))
	expected := strings.TrimSpace("⏱ Voice channel hours\n" + strings.Join(lines, "\n"))
	assert.Equal(t, expected, joined)
}
