package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/log"
)

// stubSplitter is a scripted tier for engine tests.
type stubSplitter struct {
	name  string
	parts []string
	err   error
	calls int
}

func (s *stubSplitter) Name() string { return s.name }

func (s *stubSplitter) Split(_ context.Context, _ string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.parts, nil
}

// fixedSplitter cuts text into fixed-size pieces; used for hierarchy tests.
type fixedSplitter struct {
	size int
}

func (s *fixedSplitter) Name() string { return "fixed" }

func (s *fixedSplitter) Split(_ context.Context, text string) ([]string, error) {
	var parts []string
	for len(text) > s.size {
		parts = append(parts, text[:s.size])
		text = text[s.size:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts, nil
}

func testDoc(text string) document.Document {
	return document.Document{
		SourcePath: "/docs/sample.txt",
		Text:       text,
		Metadata:   map[string]string{document.MetaFileName: "sample.txt"},
	}
}

func TestEngineTierFallthrough(t *testing.T) {
	t.Run("first tier wins", func(t *testing.T) {
		first := &stubSplitter{name: "first", parts: []string{"from first"}}
		second := &stubSplitter{name: "second", parts: []string{"from second"}}
		e := NewEngineWithTiers([]Splitter{first, second}, nil, nil, log.NewNop())

		chunks, err := e.ChunkFlat(context.Background(), testDoc("text"))
		if err != nil {
			t.Fatalf("ChunkFlat() error: %v", err)
		}
		if len(chunks) != 1 || chunks[0].Text != "from first" {
			t.Errorf("chunks = %+v", chunks)
		}
		if second.calls != 0 {
			t.Error("second tier invoked although first succeeded")
		}
	})

	t.Run("failed tier falls through", func(t *testing.T) {
		failing := &stubSplitter{name: "failing", err: errors.New("backend down")}
		fallback := &stubSplitter{name: "fallback", parts: []string{"rescued"}}
		e := NewEngineWithTiers([]Splitter{failing, fallback}, nil, nil, log.NewNop())

		chunks, err := e.ChunkFlat(context.Background(), testDoc("text"))
		if err != nil {
			t.Fatalf("ChunkFlat() error: %v", err)
		}
		if len(chunks) != 1 || chunks[0].Text != "rescued" {
			t.Errorf("chunks = %+v", chunks)
		}
		if failing.calls != 1 {
			t.Errorf("failing tier called %d times, want 1", failing.calls)
		}
	})

	t.Run("all tiers failing is an error", func(t *testing.T) {
		failing := &stubSplitter{name: "only", err: errors.New("down")}
		e := NewEngineWithTiers([]Splitter{failing}, nil, nil, log.NewNop())

		if _, err := e.ChunkFlat(context.Background(), testDoc("text")); err == nil {
			t.Error("ChunkFlat() should fail when every tier fails")
		}
	})
}

func TestChunkFlat(t *testing.T) {
	t.Run("empty document yields zero chunks", func(t *testing.T) {
		e := NewEngine(nil, log.NewNop())

		for _, text := range []string{"", "   ", "\n\n\t"} {
			chunks, err := e.ChunkFlat(context.Background(), testDoc(text))
			if err != nil {
				t.Fatalf("ChunkFlat(%q) error: %v", text, err)
			}
			if len(chunks) != 0 {
				t.Errorf("ChunkFlat(%q) = %d chunks, want 0", text, len(chunks))
			}
		}
	})

	t.Run("chunks are trimmed and metadata tagged", func(t *testing.T) {
		tier := &stubSplitter{name: "stub", parts: []string{"  padded text  ", "\n", "second"}}
		e := NewEngineWithTiers([]Splitter{tier}, nil, nil, log.NewNop())

		chunks, err := e.ChunkFlat(context.Background(), testDoc("whatever"))
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 2 {
			t.Fatalf("got %d chunks, want 2 (whitespace-only part dropped)", len(chunks))
		}
		if chunks[0].Text != "padded text" {
			t.Errorf("chunk text not trimmed: %q", chunks[0].Text)
		}
		if chunks[0].Tier != TierFlat || chunks[0].ParentID != "" {
			t.Errorf("chunk = %+v", chunks[0])
		}
		if chunks[0].Metadata[MetaTier] != string(TierFlat) {
			t.Errorf("metadata = %v", chunks[0].Metadata)
		}
		if chunks[0].Metadata[document.MetaFileName] != "sample.txt" {
			t.Error("document metadata not propagated")
		}
	})

	t.Run("semantic tier falls through to character on embed failure", func(t *testing.T) {
		embed := func(_ context.Context, _ string) ([]float32, error) {
			return nil, errors.New("no backend")
		}
		e := NewEngine(embed, log.NewNop())

		chunks, err := e.ChunkFlat(context.Background(), testDoc("Some text. More text. Another sentence. A fourth one."))
		if err != nil {
			t.Fatalf("ChunkFlat() error: %v", err)
		}
		if len(chunks) == 0 {
			t.Error("character fallback produced no chunks")
		}
	})
}

func TestChunkHierarchical(t *testing.T) {
	newEngine := func() *Engine {
		return NewEngineWithTiers(nil, []Splitter{&fixedSplitter{size: 400}}, []Splitter{&fixedSplitter{size: 100}}, log.NewNop())
	}

	t.Run("children link to exactly one parent", func(t *testing.T) {
		e := newEngine()
		source := strings.Repeat("abcdefghij", 100) // 1000 chars -> 3 parents

		chunks, err := e.ChunkHierarchical(context.Background(), testDoc(source))
		if err != nil {
			t.Fatalf("ChunkHierarchical() error: %v", err)
		}

		parents := map[string]Chunk{}
		var children []Chunk
		for _, c := range chunks {
			switch c.Tier {
			case TierParent:
				parents[c.ID] = c
			case TierChild:
				children = append(children, c)
			default:
				t.Errorf("unexpected tier %q", c.Tier)
			}
		}

		if len(parents) != 3 {
			t.Errorf("got %d parents, want 3", len(parents))
		}
		if len(children) == 0 {
			t.Fatal("no children produced")
		}
		for _, child := range children {
			parent, ok := parents[child.ParentID]
			if !ok {
				t.Fatalf("child %s links to unknown parent %s", child.ID, child.ParentID)
			}
			if len(child.Text) >= len(parent.Text) {
				t.Errorf("child (%d chars) not strictly smaller than parent (%d chars)",
					len(child.Text), len(parent.Text))
			}
			if !strings.Contains(parent.Text, child.Text) {
				t.Errorf("child text not contained in its parent")
			}
		}
	})

	t.Run("empty document yields zero chunks", func(t *testing.T) {
		e := newEngine()
		chunks, err := e.ChunkHierarchical(context.Background(), testDoc(" \n "))
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 0 {
			t.Errorf("got %d chunks, want 0", len(chunks))
		}
	})

	t.Run("deterministic ids across runs", func(t *testing.T) {
		e := newEngine()
		doc := testDoc(strings.Repeat("stable content here ", 60))

		first, err := e.ChunkHierarchical(context.Background(), doc)
		if err != nil {
			t.Fatal(err)
		}
		second, err := e.ChunkHierarchical(context.Background(), doc)
		if err != nil {
			t.Fatal(err)
		}

		if len(first) != len(second) {
			t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("chunk %d ID differs across runs", i)
			}
		}
	})

	t.Run("ids differ between documents", func(t *testing.T) {
		e := newEngine()
		a, _ := e.ChunkHierarchical(context.Background(), document.Document{SourcePath: "/a.txt", Text: strings.Repeat("x ", 300)})
		b, _ := e.ChunkHierarchical(context.Background(), document.Document{SourcePath: "/b.txt", Text: strings.Repeat("x ", 300)})

		if len(a) == 0 || len(b) == 0 {
			t.Fatal("no chunks")
		}
		if a[0].ID == b[0].ID {
			t.Error("different sources produced the same chunk ID")
		}
	})
}
