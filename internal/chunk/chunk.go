// Package chunk implements the document chunking engine.
//
// Raw document text is converted into retrieval-sized chunks by a layered
// strategy: splitters are tried in a fixed order and the first one to succeed
// wins. The semantic splitter needs a working embedding backend and falls
// through on any embedding failure; the character splitter is the guaranteed
// terminal fallback and never fails.
//
// Two chunking modes exist:
//
//   - Flat: the layered strategy produces single-tier chunks, each indexed
//     and searched directly.
//   - Hierarchical: documents are first split into large parent windows,
//     then each parent is re-split into small child windows. Children are
//     embedded and searched; the enclosing parent is what the generator
//     reads. Small chunks match queries precisely, large chunks preserve
//     surrounding context.
//
// Window overlap is deliberate duplication: it keeps meaning from being lost
// across a hard boundary.
package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/log"
)

// Tier classifies a chunk's role in the hierarchy.
type Tier string

const (
	// TierFlat chunks are single-tier: searched and returned as-is.
	TierFlat Tier = "flat"

	// TierChild chunks are embedded and searched.
	TierChild Tier = "child"

	// TierParent chunks are stored as generation context, never searched.
	TierParent Tier = "parent"
)

// Metadata keys attached to chunks in addition to the source document's.
const (
	MetaTier       = "tier"
	MetaParentID   = "parent_id"
	MetaChunkIndex = "chunk_index"
)

// Chunk is a bounded span of document text stored and embedded as one
// retrievable unit. Immutable once embedded.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
	Tier     Tier

	// ParentID links a child to exactly one parent. Empty for flat and
	// parent chunks.
	ParentID string

	// Embedding is filled by the vector index at upsert time when absent.
	Embedding []float32
}

// EmbedFunc produces an embedding vector for text. The chunking engine uses
// it for semantic boundary detection; failures make the semantic tier fall
// through, they are not retried here.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Splitter is one tier of the layered strategy: a pure function from text to
// text segments. A splitter reports failure by returning an error, which
// makes the engine fall through to the next tier.
type Splitter interface {
	Name() string
	Split(ctx context.Context, text string) ([]string, error)
}

// Default parent/child window parameters, in tokens.
const (
	DefaultParentSize    = 1200
	DefaultParentOverlap = 200
	DefaultChildSize     = 300
	DefaultChildOverlap  = 50
)

// approxCharsPerToken converts token budgets to character budgets for the
// character fallback when the tokenizer is unavailable.
const approxCharsPerToken = 4

// Engine runs the layered chunking strategy.
type Engine struct {
	flatTiers   []Splitter
	parentTiers []Splitter
	childTiers  []Splitter
	logger      log.Logger
}

// NewEngine creates an Engine with the default tier layering. embed powers
// the semantic tier; a nil embed disables it, leaving the character fallback.
func NewEngine(embed EmbedFunc, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}

	var flatTiers []Splitter
	if embed != nil {
		flatTiers = append(flatTiers, NewSemanticSplitter(embed))
	}
	flatTiers = append(flatTiers, NewCharacterSplitter())

	// Parent/child mode is token-aware: fixed token windows guarantee no
	// chunk exceeds the model's effective context regardless of content.
	// The character tier below each carries the same budget in characters.
	parentTiers := []Splitter{
		NewTokenSplitter(DefaultParentSize, DefaultParentOverlap),
		NewCharacterSplitterSized(DefaultParentSize*approxCharsPerToken, DefaultParentOverlap*approxCharsPerToken),
	}
	childTiers := []Splitter{
		NewTokenSplitter(DefaultChildSize, DefaultChildOverlap),
		NewCharacterSplitterSized(DefaultChildSize*approxCharsPerToken, DefaultChildOverlap*approxCharsPerToken),
	}

	return &Engine{
		flatTiers:   flatTiers,
		parentTiers: parentTiers,
		childTiers:  childTiers,
		logger:      logger,
	}
}

// NewEngineWithTiers creates an Engine with explicit tier lists. Tests and
// callers with custom layering use this.
func NewEngineWithTiers(flat, parent, child []Splitter, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{flatTiers: flat, parentTiers: parent, childTiers: child, logger: logger}
}

// split runs tiers in order and returns the first successful result.
func (e *Engine) split(ctx context.Context, tiers []Splitter, text string) ([]string, error) {
	var lastErr error
	for _, tier := range tiers {
		parts, err := tier.Split(ctx, text)
		if err != nil {
			e.logger.Debug("splitter tier failed, falling through",
				"tier", tier.Name(), "error", err)
			lastErr = err
			continue
		}
		return parts, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no splitter tiers configured")
	}
	return nil, fmt.Errorf("all splitter tiers failed: %w", lastErr)
}

// ChunkFlat converts a document into single-tier chunks using the layered
// strategy. An empty document yields zero chunks and no error.
func (e *Engine) ChunkFlat(ctx context.Context, doc document.Document) ([]Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	parts, err := e.split(ctx, e.flatTiers, doc.Text)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, Chunk{
			ID:       chunkID(doc.SourcePath, TierFlat, "", idx),
			Text:     text,
			Metadata: chunkMetadata(doc, TierFlat, "", idx),
			Tier:     TierFlat,
		})
	}
	return chunks, nil
}

// ChunkHierarchical converts a document into two tiers: parent windows and
// the child windows within each parent. Every child links to exactly one
// parent and is strictly smaller than it. An empty document yields zero
// chunks and no error.
func (e *Engine) ChunkHierarchical(ctx context.Context, doc document.Document) ([]Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	parentParts, err := e.split(ctx, e.parentTiers, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("splitting parents: %w", err)
	}

	var chunks []Chunk
	parentIdx := 0
	for _, parentPart := range parentParts {
		parentText := strings.TrimSpace(parentPart)
		if parentText == "" {
			continue
		}

		parentID := chunkID(doc.SourcePath, TierParent, "", parentIdx)
		chunks = append(chunks, Chunk{
			ID:       parentID,
			Text:     parentText,
			Metadata: chunkMetadata(doc, TierParent, "", parentIdx),
			Tier:     TierParent,
		})

		childParts, err := e.split(ctx, e.childTiers, parentPart)
		if err != nil {
			return nil, fmt.Errorf("splitting children of parent %d: %w", parentIdx, err)
		}

		childIdx := 0
		for _, childPart := range childParts {
			childText := strings.TrimSpace(childPart)
			if childText == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				ID:       chunkID(doc.SourcePath, TierChild, parentID, childIdx),
				Text:     childText,
				Metadata: chunkMetadata(doc, TierChild, parentID, childIdx),
				Tier:     TierChild,
				ParentID: parentID,
			})
			childIdx++
		}
		parentIdx++
	}
	return chunks, nil
}

// chunkID derives a deterministic chunk identifier from source identity and
// position. Re-ingesting an unchanged document reproduces the same IDs, so
// the index upsert overwrites instead of accumulating duplicates.
func chunkID(sourcePath string, tier Tier, parentID string, index int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%d", sourcePath, tier, parentID, index))
	return "chunk_" + hex.EncodeToString(h[:16])
}

// chunkMetadata copies the document metadata and adds chunk position fields.
func chunkMetadata(doc document.Document, tier Tier, parentID string, index int) map[string]string {
	md := make(map[string]string, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md[MetaTier] = string(tier)
	md[MetaChunkIndex] = fmt.Sprintf("%d", index)
	if parentID != "" {
		md[MetaParentID] = parentID
	}
	return md
}
