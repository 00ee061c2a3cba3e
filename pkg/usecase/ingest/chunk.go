package ingest

// ChunkSize is the per-block text ceiling, with headroom under the
// destination store's 2000-character block limit.
const ChunkSize = 1900

// SplitChunks slices text into runs of at most size runes, in order. Empty
// input yields no chunks; the final chunk may be shorter. Concatenating the
// result reproduces text exactly.
func SplitChunks(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
