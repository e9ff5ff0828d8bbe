package chunk

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the BPE encoding used for token windows. cl100k_base is a
// reasonable proxy for the effective context of the local models; the exact
// vocabulary only needs to be consistent, not identical to the model's.
const tokenEncoding = "cl100k_base"

// TokenSplitter splits text into fixed-size token windows with overlap. It
// guarantees no chunk exceeds the window size regardless of semantic
// content, which is what the parent/child mode needs.
//
// The tokenizer initializes lazily; if the encoding cannot be loaded, Split
// reports an error and the engine falls through to the character tier.
type TokenSplitter struct {
	chunkSize int
	overlap   int

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenSplitter creates a splitter with the given window size and overlap
// in tokens.
func NewTokenSplitter(chunkSize, overlap int) *TokenSplitter {
	if chunkSize < 1 {
		chunkSize = DefaultChildSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &TokenSplitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *TokenSplitter) Name() string { return "token" }

// Split implements Splitter.
func (s *TokenSplitter) Split(_ context.Context, text string) ([]string, error) {
	s.once.Do(func() {
		s.enc, s.initErr = tiktoken.GetEncoding(tokenEncoding)
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", tokenEncoding, s.initErr)
	}

	if text == "" {
		return nil, nil
	}

	tokens := s.enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) <= s.chunkSize {
		return []string{text}, nil
	}

	step := s.chunkSize - s.overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + s.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, s.enc.Decode(tokens[i:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
