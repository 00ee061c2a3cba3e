package ingest_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/tubenote/pkg/usecase/ingest"
)

func TestSplitChunks(t *testing.T) {
	t.Run("empty input yields no chunks", func(t *testing.T) {
		gt.A(t, ingest.SplitChunks("", ingest.ChunkSize)).Length(0)
	})

	t.Run("short input is a single chunk", func(t *testing.T) {
		chunks := ingest.SplitChunks("hello", ingest.ChunkSize)
		gt.A(t, chunks).Length(1)
		gt.V(t, chunks[0]).Equal("hello")
	})

	t.Run("round trip with ceil(L/size) chunks", func(t *testing.T) {
		testCases := []struct {
			length int
			chunks int
		}{
			{1899, 1},
			{1900, 1},
			{1901, 2},
			{3800, 2},
			{3801, 3},
		}

		for _, tc := range testCases {
			text := strings.Repeat("a", tc.length)
			chunks := ingest.SplitChunks(text, ingest.ChunkSize)
			gt.A(t, chunks).Length(tc.chunks)
			gt.V(t, strings.Join(chunks, "")).Equal(text)
		}
	})

	t.Run("splits on runes, not bytes", func(t *testing.T) {
		text := strings.Repeat("あ", 7)
		chunks := ingest.SplitChunks(text, 3)
		gt.A(t, chunks).Length(3)
		gt.V(t, chunks[0]).Equal("あああ")
		gt.V(t, chunks[2]).Equal("あ")
		gt.V(t, strings.Join(chunks, "")).Equal(text)
	})
}

func TestSplitContext(t *testing.T) {
	t.Run("short context is the verbatim title", func(t *testing.T) {
		title, overflow := ingest.SplitContextForTest("a short fact")
		gt.V(t, title).Equal("a short fact")
		gt.A(t, overflow).Length(0)
	})

	t.Run("long context truncates title and relocates full text", func(t *testing.T) {
		text := strings.Repeat("x", 3000)
		title, overflow := ingest.SplitContextForTest(text)

		gt.V(t, len([]rune(title))).Equal(1900 + len([]rune(ingest.TruncationMarkerForTest)))
		gt.True(t, strings.HasSuffix(title, ingest.TruncationMarkerForTest))
		gt.V(t, strings.TrimSuffix(title, ingest.TruncationMarkerForTest)).Equal(text[:1900])

		gt.A(t, overflow).Length(2)
		gt.V(t, strings.Join(overflow, "")).Equal(text)
	})
}
