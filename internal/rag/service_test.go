package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/internal/knowledge"
	"github.com/docsage/docsage/internal/log"
)

type fakeBlocklist struct {
	blockedTerms []string
}

func (f *fakeBlocklist) IsBlocked(query string) bool {
	lower := strings.ToLower(query)
	for _, term := range f.blockedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

type fakeRetriever struct {
	results []knowledge.Result
	err     error
	calls   int
}

func (f *fakeRetriever) Search(_ context.Context, _ string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeGenerator struct {
	answer   string
	err      error
	calls    int
	contexts []string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, contexts []string) (string, error) {
	f.calls++
	f.contexts = contexts
	return f.answer, f.err
}

type fakeQueryLog struct {
	entries []string // "query|response|session"
	err     error
}

func (f *fakeQueryLog) LogQuery(query, response, sessionID string) error {
	f.entries = append(f.entries, query+"|"+response+"|"+sessionID)
	return f.err
}

func TestServiceAnswer(t *testing.T) {
	t.Run("blocked query returns canned message", func(t *testing.T) {
		retriever := &fakeRetriever{}
		generator := &fakeGenerator{answer: "should not appear"}
		logStore := &fakeQueryLog{}
		svc := NewService(
			&fakeBlocklist{blockedTerms: []string{"password"}},
			retriever, generator, logStore, log.NewNop())

		got := svc.Answer(context.Background(), "what is the admin Password?", "s1")

		if got != BlockedMessage {
			t.Errorf("Answer() = %q, want blocked message", got)
		}
		if retriever.calls != 0 || generator.calls != 0 {
			t.Error("blocked query must not reach retrieval or generation")
		}
		if len(logStore.entries) != 1 {
			t.Fatalf("got %d log entries, want 1", len(logStore.entries))
		}
		if !strings.Contains(logStore.entries[0], BlockedMessage) {
			t.Errorf("log entry = %q, want blocked message recorded", logStore.entries[0])
		}
	})

	t.Run("successful query returns generated answer", func(t *testing.T) {
		retriever := &fakeRetriever{results: []knowledge.Result{
			{ID: "c1", Content: "short match", Context: "the full parent passage"},
			{ID: "c2", Content: "other match", Context: "another passage"},
		}}
		generator := &fakeGenerator{answer: "42"}
		logStore := &fakeQueryLog{}
		svc := NewService(&fakeBlocklist{}, retriever, generator, logStore, log.NewNop())

		got := svc.Answer(context.Background(), "what is the answer?", "s1")

		if got != "42" {
			t.Errorf("Answer() = %q, want %q", got, "42")
		}
		if len(generator.contexts) != 2 || generator.contexts[0] != "the full parent passage" {
			t.Errorf("generator received contexts %v, want parent passages", generator.contexts)
		}
		if len(logStore.entries) != 1 || !strings.HasSuffix(logStore.entries[0], "|42|s1") {
			t.Errorf("log entries = %v", logStore.entries)
		}
	})

	t.Run("sibling children share one context passage", func(t *testing.T) {
		parentText := strings.Repeat("the shared parent passage ", 10)
		retriever := &fakeRetriever{results: []knowledge.Result{
			{ID: "ch1", Content: "first sibling", Context: parentText,
				Metadata: map[string]string{chunk.MetaParentID: "p1"}},
			{ID: "ch2", Content: "second sibling", Context: parentText,
				Metadata: map[string]string{chunk.MetaParentID: "p1"}},
			{ID: "ch3", Content: "unrelated", Context: "a different passage"},
		}}
		generator := &fakeGenerator{answer: "ok"}
		svc := NewService(&fakeBlocklist{}, retriever, generator, &fakeQueryLog{}, log.NewNop())

		svc.Answer(context.Background(), "question", "s1")

		want := []string{parentText, "a different passage"}
		if len(generator.contexts) != len(want) {
			t.Fatalf("generator received %d contexts %v, want %d", len(generator.contexts), generator.contexts, len(want))
		}
		for i, ctx := range want {
			if generator.contexts[i] != ctx {
				t.Errorf("contexts[%d] = %q, want %q", i, generator.contexts[i], ctx)
			}
		}
	})

	t.Run("retrieval failure becomes the answer text", func(t *testing.T) {
		retriever := &fakeRetriever{err: errors.New("index unavailable")}
		generator := &fakeGenerator{}
		logStore := &fakeQueryLog{}
		svc := NewService(&fakeBlocklist{}, retriever, generator, logStore, log.NewNop())

		got := svc.Answer(context.Background(), "anything", "s1")

		if !strings.HasPrefix(got, errorPrefix) || !strings.Contains(got, "index unavailable") {
			t.Errorf("Answer() = %q, want error text", got)
		}
		if generator.calls != 0 {
			t.Error("generation attempted after retrieval failure")
		}
		if len(logStore.entries) != 1 {
			t.Errorf("got %d log entries, want 1", len(logStore.entries))
		}
	})

	t.Run("generation failure becomes the answer text", func(t *testing.T) {
		retriever := &fakeRetriever{}
		generator := &fakeGenerator{err: errors.New("model not found")}
		logStore := &fakeQueryLog{}
		svc := NewService(&fakeBlocklist{}, retriever, generator, logStore, log.NewNop())

		got := svc.Answer(context.Background(), "anything", "s1")

		if !strings.HasPrefix(got, errorPrefix) || !strings.Contains(got, "model not found") {
			t.Errorf("Answer() = %q, want error text", got)
		}
		if len(logStore.entries) != 1 {
			t.Errorf("got %d log entries, want 1", len(logStore.entries))
		}
	})

	t.Run("failing log append does not change the answer", func(t *testing.T) {
		generator := &fakeGenerator{answer: "fine"}
		logStore := &fakeQueryLog{err: errors.New("disk full")}
		svc := NewService(&fakeBlocklist{}, &fakeRetriever{}, generator, logStore, log.NewNop())

		if got := svc.Answer(context.Background(), "q", "s1"); got != "fine" {
			t.Errorf("Answer() = %q, want %q", got, "fine")
		}
	})

	t.Run("no retrieval results still generates", func(t *testing.T) {
		generator := &fakeGenerator{answer: "I don't know."}
		svc := NewService(&fakeBlocklist{}, &fakeRetriever{}, generator, &fakeQueryLog{}, log.NewNop())

		got := svc.Answer(context.Background(), "obscure question", "s1")

		if got != "I don't know." {
			t.Errorf("Answer() = %q", got)
		}
		if generator.calls != 1 || len(generator.contexts) != 0 {
			t.Errorf("generator calls = %d, contexts = %v", generator.calls, generator.contexts)
		}
	})
}
