package chunk

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultBreakpointPercentile is the embedding-distance percentile above
// which a sentence boundary becomes a chunk boundary.
const DefaultBreakpointPercentile = 95.0

// minSemanticSentences is the sentence count below which semantic splitting
// degenerates; shorter documents come back as a single chunk.
const minSemanticSentences = 3

// SemanticSplitter cuts text where the embedding distance between
// consecutive sentences exceeds a percentile-based threshold over the whole
// document, producing variable-length, topically coherent chunks.
//
// It requires a working embedding backend: any embedding failure is returned
// as an error so the engine falls through to the next tier.
type SemanticSplitter struct {
	embed      EmbedFunc
	percentile float64
}

// NewSemanticSplitter creates a splitter using embed for boundary detection
// and the default breakpoint percentile.
func NewSemanticSplitter(embed EmbedFunc) *SemanticSplitter {
	return &SemanticSplitter{embed: embed, percentile: DefaultBreakpointPercentile}
}

func (s *SemanticSplitter) Name() string { return "semantic" }

// Split implements Splitter.
func (s *SemanticSplitter) Split(ctx context.Context, text string) ([]string, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("no embedding backend configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) < minSemanticSentences {
		return []string{text}, nil
	}

	vectors := make([][]float32, len(sentences))
	for i, sentence := range sentences {
		vec, err := s.embed(ctx, strings.TrimSpace(sentence))
		if err != nil {
			return nil, fmt.Errorf("embedding sentence %d: %w", i, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty embedding for sentence %d", i)
		}
		vectors[i] = vec
	}

	// Cosine distance between each consecutive sentence pair.
	distances := make([]float64, len(sentences)-1)
	for i := 0; i < len(distances); i++ {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}

	threshold := percentile(distances, s.percentile)

	// A boundary after sentence i becomes a cut when its distance exceeds
	// the threshold. Sentences keep their original text, so concatenating
	// the chunks reproduces the source exactly.
	var chunks []string
	var current strings.Builder
	for i, sentence := range sentences {
		current.WriteString(sentence)
		if i < len(distances) && distances[i] > threshold {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks, nil
}

// splitSentences segments text on sentence-ending punctuation and blank
// lines, keeping each delimiter attached to the preceding sentence so the
// segments concatenate back to the original text.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Sentence end only when followed by whitespace or EOF.
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				// Absorb the trailing whitespace run.
				j := i + 1
				for j < len(runes) && unicode.IsSpace(runes[j]) && runes[j] != '\n' {
					j++
				}
				sentences = append(sentences, string(runes[start:j]))
				start = j
				i = j - 1
			}
		case '\n':
			if i >= start {
				sentences = append(sentences, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	// Drop whitespace-only segments but keep their text attached to a
	// neighbor, preserving concatenation.
	var merged []string
	for _, s := range sentences {
		if strings.TrimSpace(s) == "" && len(merged) > 0 {
			merged[len(merged)-1] += s
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// percentile returns the p-th percentile of values, linearly interpolated
// over a sorted copy. An empty input yields +Inf so no boundary ever
// exceeds it.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
