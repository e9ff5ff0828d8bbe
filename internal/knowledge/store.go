package knowledge

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/internal/log"
)

// Collection names inside the persistent vector database.
const (
	chunkCollection  = "chunks"
	parentCollection = "parents"
)

// placeholderEmbedding marks documents that are fetched by ID only and never
// vector-searched. Storing it skips a full embedding pass over parent text.
var placeholderEmbedding = []float32{1}

// Store manages chunks with vector search capabilities, backed by an embedded
// chromem-go database persisted under a local directory.
//
// Two collections are kept: "chunks" holds the searchable tier (flat chunks
// and hierarchical children), "parents" holds parent windows that are only
// ever fetched by ID to serve as generation context.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger log.Logger

	// mu guards the collection handles, which Reset replaces.
	mu      sync.RWMutex
	chunks  *chromem.Collection
	parents *chromem.Collection
}

// NewStore opens (or creates) the persistent vector database at path.
// embed is used to embed searchable chunks at upsert time and queries at
// search time.
func NewStore(path string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database at %s: %w", path, err)
	}

	chunks, err := db.GetOrCreateCollection(chunkCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", chunkCollection, err)
	}
	parents, err := db.GetOrCreateCollection(parentCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", parentCollection, err)
	}

	return &Store{
		db:      db,
		chunks:  chunks,
		parents: parents,
		embed:   embed,
		logger:  logger,
	}, nil
}

// Upsert writes chunks into the index. Chunk IDs are stable across re-ingests
// of unchanged sources, so existing entries are overwritten rather than
// duplicated. Searchable chunks without a precomputed embedding are embedded
// here; parent chunks are never embedded.
func (s *Store) Upsert(ctx context.Context, chunks []chunk.Chunk) error {
	var searchable, parents []chromem.Document
	for _, c := range chunks {
		doc := chromem.Document{
			ID:        c.ID,
			Content:   c.Text,
			Metadata:  c.Metadata,
			Embedding: c.Embedding,
		}
		if c.Tier == chunk.TierParent {
			if doc.Embedding == nil {
				doc.Embedding = placeholderEmbedding
			}
			parents = append(parents, doc)
			continue
		}
		searchable = append(searchable, doc)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	concurrency := runtime.NumCPU()
	if len(searchable) > 0 {
		if err := s.chunks.AddDocuments(ctx, searchable, concurrency); err != nil {
			return fmt.Errorf("upserting chunks: %w", err)
		}
	}
	if len(parents) > 0 {
		if err := s.parents.AddDocuments(ctx, parents, concurrency); err != nil {
			return fmt.Errorf("upserting parents: %w", err)
		}
	}

	s.logger.Debug("upserted chunks",
		"searchable", len(searchable), "parents", len(parents))
	return nil
}

// Search embeds the query and returns the most similar chunks, ordered by
// similarity. For hierarchical children the Result carries the enclosing
// parent's text as Context; a missing parent degrades to the child's own
// text. An empty index yields zero results and no error.
//
// The requested topK is clamped to the collection size: chromem-go rejects
// nResults larger than the number of stored documents.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.chunks.Count()
	if count == 0 {
		return nil, nil
	}
	topK := cfg.topK
	if topK > count {
		topK = count
	}

	hits, err := s.chunks.Query(ctx, query, topK, cfg.filter, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		contextText := hit.Content
		if parentID := hit.Metadata[chunk.MetaParentID]; parentID != "" {
			parent, err := s.parents.GetByID(ctx, parentID)
			if err != nil {
				s.logger.Warn("parent lookup failed, using child text",
					"chunk_id", hit.ID, "parent_id", parentID, "error", err)
			} else {
				contextText = parent.Content
			}
		}
		results = append(results, Result{
			ID:         hit.ID,
			Content:    hit.Content,
			Context:    contextText,
			Metadata:   hit.Metadata,
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of searchable chunks in the index.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks.Count()
}

// ParentCount returns the number of stored parent windows.
func (s *Store) ParentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parents.Count()
}

// Reset drops and recreates both collections, leaving an empty index.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{chunkCollection, parentCollection} {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}

	chunks, err := s.db.GetOrCreateCollection(chunkCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", chunkCollection, err)
	}
	parents, err := s.db.GetOrCreateCollection(parentCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", parentCollection, err)
	}

	s.chunks = chunks
	s.parents = parents
	s.logger.Info("vector index reset")
	return nil
}
