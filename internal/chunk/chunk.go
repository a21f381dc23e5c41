// Package chunk splits extracted document text into overlapping passages
// sized for embedding.
package chunk

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Split cuts text into rune-based chunks of at most maxLen runes where each
// chunk shares exactly overlap runes with its predecessor. The split is
// deterministic: identical input and parameters always produce identical
// boundaries. Text shorter than maxLen comes back as a single chunk; empty
// text yields no chunks.
func Split(text string, maxLen, overlap int) []string {
	if maxLen <= 0 {
		maxLen = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxLen {
		overlap = maxLen / 2
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= maxLen {
		return []string{text}
	}

	stride := maxLen - overlap
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// join reverses Split by dropping the leading overlap runes of every chunk
// after the first. Only the tests need reconstruction; retrieval serves
// chunks as-is.
func join(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	if overlap < 0 {
		overlap = 0
	}
	out := []rune(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		if overlap < len(runes) {
			out = append(out, runes[overlap:]...)
		}
	}
	return string(out)
}
