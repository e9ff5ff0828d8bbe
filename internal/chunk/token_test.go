package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
)

// requireEncoding skips the test when the BPE files are unavailable (offline
// environments); the engine falls through to the character tier there anyway.
func requireEncoding(t *testing.T) {
	t.Helper()
	if _, err := tiktoken.GetEncoding(tokenEncoding); err != nil {
		t.Skipf("%s encoding unavailable: %v", tokenEncoding, err)
	}
}

func TestTokenSplitter(t *testing.T) {
	requireEncoding(t)
	ctx := context.Background()

	t.Run("short text single chunk", func(t *testing.T) {
		s := NewTokenSplitter(300, 50)

		chunks, err := s.Split(ctx, "a handful of tokens")
		if err != nil {
			t.Fatalf("Split() error: %v", err)
		}
		if len(chunks) != 1 || chunks[0] != "a handful of tokens" {
			t.Errorf("Split() = %v", chunks)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		s := NewTokenSplitter(300, 50)
		chunks, err := s.Split(ctx, "")
		if err != nil || len(chunks) != 0 {
			t.Errorf("Split(\"\") = %v, %v", chunks, err)
		}
	})

	t.Run("long text windows", func(t *testing.T) {
		s := NewTokenSplitter(20, 5)
		source := strings.TrimSpace(strings.Repeat("many different words appear here today ", 30))

		chunks, err := s.Split(ctx, source)
		if err != nil {
			t.Fatalf("Split() error: %v", err)
		}
		if len(chunks) < 2 {
			t.Fatalf("expected multiple windows, got %d", len(chunks))
		}

		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			t.Fatal(err)
		}
		for i, c := range chunks {
			if n := len(enc.Encode(c, nil, nil)); n > 20 {
				t.Errorf("window %d has %d tokens, want <= 20", i, n)
			}
		}

		// Overlap: consecutive windows share text.
		for i := 0; i < len(chunks)-1; i++ {
			tail := chunks[i][len(chunks[i])-10:]
			if !strings.Contains(chunks[i+1], tail) {
				t.Errorf("windows %d and %d share no overlap", i, i+1)
			}
		}
	})

	t.Run("windows reconstruct the source", func(t *testing.T) {
		s := NewTokenSplitter(20, 5)
		source := strings.TrimSpace(strings.Repeat("plain ascii words only here ", 40))

		chunks, err := s.Split(ctx, source)
		if err != nil {
			t.Fatal(err)
		}
		assertSubstringConsistent(t, source, chunks)
	})
}
