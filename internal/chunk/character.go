package chunk

import (
	"context"
	"strings"
)

// Character splitter defaults.
const (
	DefaultCharacterChunkSize = 1000
	DefaultCharacterOverlap   = 150
)

// defaultSeparators is the boundary priority list: paragraph break, line
// break, sentence end, word break.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// CharacterSplitter splits text on a priority list of separators into
// windows of at most ChunkSize characters with Overlap characters shared
// between consecutive windows. It is the terminal fallback tier: Split
// never returns an error.
//
// A run of text containing no separator at all (a single oversized word) is
// emitted as one oversized chunk rather than cut mid-word.
type CharacterSplitter struct {
	separators []string
	chunkSize  int
	overlap    int
}

// NewCharacterSplitter creates a splitter with the default size (1000),
// overlap (150), and separator priority.
func NewCharacterSplitter() *CharacterSplitter {
	return NewCharacterSplitterSized(DefaultCharacterChunkSize, DefaultCharacterOverlap)
}

// NewCharacterSplitterSized creates a splitter with explicit size and
// overlap. Overlap must be smaller than size; values are clamped.
func NewCharacterSplitterSized(chunkSize, overlap int) *CharacterSplitter {
	if chunkSize < 1 {
		chunkSize = DefaultCharacterChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &CharacterSplitter{
		separators: defaultSeparators,
		chunkSize:  chunkSize,
		overlap:    overlap,
	}
}

func (s *CharacterSplitter) Name() string { return "character" }

// Split implements Splitter. The error is always nil.
func (s *CharacterSplitter) Split(_ context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	var chunks []string
	start := 0
	n := len(text)

	for start < n {
		if n-start <= s.chunkSize {
			chunks = append(chunks, text[start:])
			break
		}

		end := start + s.chunkSize
		cut := s.findCut(text, start, end)
		chunks = append(chunks, text[start:cut])

		// Next window re-covers the overlap region of this one.
		next := cut - s.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks, nil
}

// findCut picks the boundary for a window starting at start whose hard limit
// is end. It prefers the last occurrence of the highest-priority separator
// inside the window; if the window contains no separator, the current run is
// unsplittable and the cut extends to the next separator (or end of text),
// producing an oversized chunk.
func (s *CharacterSplitter) findCut(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range s.separators {
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}

	// No separator in the window: extend to wherever one next appears.
	rest := text[end:]
	bestNext := -1
	for _, sep := range s.separators {
		if i := strings.Index(rest, sep); i >= 0 && (bestNext == -1 || i < bestNext) {
			bestNext = i
		}
	}
	if bestNext == -1 {
		return len(text)
	}
	if bestNext == 0 {
		return end
	}
	return end + bestNext
}
