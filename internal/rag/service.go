package rag

import (
	"context"

	"github.com/docsage/docsage/internal/knowledge"
	"github.com/docsage/docsage/internal/log"
)

// BlockedMessage is returned verbatim for queries matching the blocklist.
const BlockedMessage = "Sorry, that query is not allowed. Please ask something else."

// errorPrefix opens the response text when the pipeline fails. The error is
// surfaced to the caller as the answer, never as a transport failure.
const errorPrefix = "Error querying RAG: "

// defaultTopK is the number of chunks retrieved per query.
const defaultTopK = 5

// Blocklist screens queries before any model work happens.
type Blocklist interface {
	IsBlocked(query string) bool
}

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// AnswerGenerator produces an answer grounded on context passages.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, contexts []string) (string, error)
}

// QueryLogger records one entry per query.
type QueryLogger interface {
	LogQuery(query, response, sessionID string) error
}

// Service is the query-answering pipeline.
type Service struct {
	blocklist Blocklist
	retriever Retriever
	generator AnswerGenerator
	activity  QueryLogger
	topK      int
	logger    log.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSearchTopK sets how many chunks are retrieved per query.
func WithSearchTopK(k int) ServiceOption {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewService creates the query pipeline.
func NewService(bl Blocklist, ret Retriever, gen AnswerGenerator, act QueryLogger, logger log.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Service{
		blocklist: bl,
		retriever: ret,
		generator: gen,
		activity:  act,
		topK:      defaultTopK,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the full pipeline for one query and always returns a response
// string: the generated answer, the blocked-query message, or an error text.
// Exactly one query-log entry is written per call; a failing log append is
// reported in the process log but never affects the response.
func (s *Service) Answer(ctx context.Context, query, sessionID string) string {
	response := s.answer(ctx, query)

	if err := s.activity.LogQuery(query, response, sessionID); err != nil {
		s.logger.Error("query log append failed", "session_id", sessionID, "error", err)
	}
	return response
}

func (s *Service) answer(ctx context.Context, query string) string {
	if s.blocklist.IsBlocked(query) {
		s.logger.Info("query blocked", "query_length", len(query))
		return BlockedMessage
	}

	results, err := s.retriever.Search(ctx, query, knowledge.WithTopK(s.topK))
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		return errorPrefix + err.Error()
	}

	// Sibling children resolve to the same parent passage; feed each
	// passage to the generator once, keeping similarity order.
	contexts := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, ok := seen[r.Context]; ok {
			continue
		}
		seen[r.Context] = struct{}{}
		contexts = append(contexts, r.Context)
	}

	answer, err := s.generator.Generate(ctx, query, contexts)
	if err != nil {
		s.logger.Error("generation failed", "error", err)
		return errorPrefix + err.Error()
	}

	s.logger.Debug("query answered",
		"retrieved", len(results), "answer_length", len(answer))
	return answer
}

// Compile-time checks that the concrete pipeline parts satisfy the
// consumer-side interfaces.
var (
	_ AnswerGenerator = (*Generator)(nil)
	_ Retriever       = (*knowledge.Store)(nil)
)
