package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// topicEmbed embeds sentences onto fixed axes by keyword, so the distance
// between two sentences is 0 within a topic and large across topics.
func topicEmbed(topics map[string][]float32) EmbedFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		for keyword, vec := range topics {
			if strings.Contains(lower, keyword) {
				return vec, nil
			}
		}
		return []float32{0.5, 0.5}, nil
	}
}

func TestSemanticSplitter(t *testing.T) {
	ctx := context.Background()

	t.Run("cuts at the topic shift", func(t *testing.T) {
		embed := topicEmbed(map[string][]float32{
			"cat": {1, 0},
			"car": {0, 1},
		})
		s := NewSemanticSplitter(embed)

		source := "The cat sleeps all day. A cat enjoys sunshine. Another cat purrs loudly. " +
			"The car needs fuel. A car has four wheels. Every car requires insurance."

		chunks, err := s.Split(ctx, source)
		if err != nil {
			t.Fatalf("Split() error: %v", err)
		}
		if len(chunks) != 2 {
			t.Fatalf("Split() produced %d chunks, want 2: %q", len(chunks), chunks)
		}
		if !strings.Contains(chunks[0], "cat") || strings.Contains(chunks[0], "car ") {
			t.Errorf("first chunk mixes topics: %q", chunks[0])
		}
		if !strings.Contains(chunks[1], "car") {
			t.Errorf("second chunk missing second topic: %q", chunks[1])
		}

		// Concatenation must reproduce the source exactly.
		if got := strings.Join(chunks, ""); got != source {
			t.Errorf("chunks do not reconstruct the source:\n got %q\nwant %q", got, source)
		}
	})

	t.Run("uniform document stays whole", func(t *testing.T) {
		embed := func(_ context.Context, _ string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
		s := NewSemanticSplitter(embed)

		source := "One idea here. The same idea continues. Still the same idea. It never changes."
		chunks, err := s.Split(ctx, source)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 1 {
			t.Errorf("uniform text split into %d chunks, want 1", len(chunks))
		}
	})

	t.Run("few sentences pass through", func(t *testing.T) {
		calls := 0
		embed := func(_ context.Context, _ string) ([]float32, error) {
			calls++
			return []float32{1}, nil
		}
		s := NewSemanticSplitter(embed)

		chunks, err := s.Split(ctx, "Just one sentence here.")
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 1 {
			t.Errorf("Split() = %v", chunks)
		}
		if calls != 0 {
			t.Errorf("embedding backend called %d times for a trivial document", calls)
		}
	})

	t.Run("embedding failure propagates", func(t *testing.T) {
		backendErr := errors.New("backend down")
		embed := func(_ context.Context, _ string) ([]float32, error) {
			return nil, backendErr
		}
		s := NewSemanticSplitter(embed)

		_, err := s.Split(ctx, "First sentence. Second sentence. Third sentence. Fourth sentence.")
		if !errors.Is(err, backendErr) {
			t.Errorf("Split() error = %v, want backend error", err)
		}
	})

	t.Run("nil embed func fails", func(t *testing.T) {
		s := NewSemanticSplitter(nil)
		if _, err := s.Split(ctx, "Some text. More text. Even more. And more."); err == nil {
			t.Error("Split() with nil embed should error")
		}
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"periods", "One. Two. Three.", 3},
		{"mixed punctuation", "Really? Yes! Fine.", 3},
		{"newlines", "line one\nline two\nline three", 3},
		{"no boundaries", "just words without an end", 1},
		{"abbreviation-like dot", "a.b continues then ends. Done.", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.in)
			if len(got) != tt.want {
				t.Errorf("splitSentences(%q) = %d segments %q, want %d", tt.in, len(got), got, tt.want)
			}
			if joined := strings.Join(got, ""); joined != tt.in {
				t.Errorf("segments lose text: %q != %q", joined, tt.in)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"median", []float64{1, 2, 3}, 50, 2},
		{"max", []float64{1, 2, 3}, 100, 3},
		{"min", []float64{3, 1, 2}, 0, 1},
		{"interpolated", []float64{0, 0, 0, 0, 0, 0, 1}, 95, 0.7},
		{"single value", []float64{5}, 95, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(tt.values, tt.p)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}

	t.Run("empty is infinite", func(t *testing.T) {
		if got := percentile(nil, 95); !(got > 1e308) {
			t.Errorf("percentile(nil) = %v, want +Inf", got)
		}
	})
}
