package pipeline

// FixedSizeSegmenter slices text into chunks of at most maxChunkSize
// bytes without splitting a multi-byte rune.
type FixedSizeSegmenter struct{}

// Segment implements Segmenter.
func (FixedSizeSegmenter) Segment(text string, maxChunkSize int) []string {
	if text == "" || maxChunkSize <= 0 {
		return nil
	}

	var chunks []string
	start := 0
	current := 0
	for i, r := range text {
		runeLen := len(string(r))
		if current+runeLen > maxChunkSize && i > start {
			chunks = append(chunks, text[start:i])
			start = i
			current = 0
		}
		current += runeLen
	}
	chunks = append(chunks, text[start:])
	return chunks
}
