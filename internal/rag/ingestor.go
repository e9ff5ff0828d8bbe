package rag

import (
	"context"
	"fmt"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/log"
)

// noDocumentsMessage is the summary when an ingestion run indexes nothing.
const noDocumentsMessage = "No valid documents found."

// DocumentLoader reads a documents folder into extracted text.
type DocumentLoader interface {
	LoadDir(dir string) ([]document.Document, []document.FileResult, error)
}

// Chunker converts a document into index-ready chunks.
type Chunker interface {
	ChunkFlat(ctx context.Context, doc document.Document) ([]chunk.Chunk, error)
	ChunkHierarchical(ctx context.Context, doc document.Document) ([]chunk.Chunk, error)
}

// Indexer persists chunks into the vector index.
type Indexer interface {
	Upsert(ctx context.Context, chunks []chunk.Chunk) error
}

// IngestionRecorder appends one metric row per ingestion run.
type IngestionRecorder interface {
	RecordIngestion(m activity.IngestionMetric) error
}

// Report summarizes one ingestion run.
type Report struct {
	// Summary is the human-readable one-line outcome.
	Summary string

	// TotalChunks counts the searchable chunks indexed in this run.
	// Hierarchical parent windows are stored but not counted.
	TotalChunks int

	// FilesLoaded counts files whose text was extracted successfully.
	FilesLoaded int

	// Files holds the per-file outcome for every directory entry.
	Files []document.FileResult
}

// Ingestor is the document ingestion pipeline: load, chunk, index, record.
type Ingestor struct {
	loader       DocumentLoader
	chunker      Chunker
	index        Indexer
	activity     IngestionRecorder
	hierarchical bool
	logger       log.Logger
}

// NewIngestor creates the ingestion pipeline. hierarchical selects
// parent/child chunking over flat chunking.
func NewIngestor(loader DocumentLoader, chunker Chunker, index Indexer, act IngestionRecorder, hierarchical bool, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{
		loader:       loader,
		chunker:      chunker,
		index:        index,
		activity:     act,
		hierarchical: hierarchical,
		logger:       logger,
	}
}

// Ingest processes every supported file under dir and indexes the resulting
// chunks. A file that fails to load or chunk is reported in the Report and
// skipped; only an unreadable directory or a failing index write abort the
// run. Chunk IDs are deterministic, so re-ingesting an unchanged folder
// overwrites rather than duplicates.
func (ing *Ingestor) Ingest(ctx context.Context, dir string) (Report, error) {
	docs, files, err := ing.loader.LoadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("loading documents from %s: %w", dir, err)
	}

	var all []chunk.Chunk
	for _, doc := range docs {
		var chunks []chunk.Chunk
		var err error
		if ing.hierarchical {
			chunks, err = ing.chunker.ChunkHierarchical(ctx, doc)
		} else {
			chunks, err = ing.chunker.ChunkFlat(ctx, doc)
		}
		if err != nil {
			ing.logger.Warn("chunking failed, skipping file",
				"file", doc.SourcePath, "error", err)
			markFailed(files, doc.SourcePath, err)
			continue
		}
		all = append(all, chunks...)
	}

	report := Report{
		Files:       files,
		FilesLoaded: countLoaded(files),
	}

	searchable := searchableChunks(all)
	if len(searchable) == 0 {
		report.Summary = noDocumentsMessage
		return report, nil
	}

	if err := ing.index.Upsert(ctx, all); err != nil {
		return Report{}, fmt.Errorf("indexing chunks: %w", err)
	}

	metric := chunkMetric(searchable, report.FilesLoaded)
	if err := ing.activity.RecordIngestion(metric); err != nil {
		// Metrics are advisory; the run already succeeded.
		ing.logger.Error("recording ingestion metric failed", "error", err)
	}

	report.TotalChunks = len(searchable)
	report.Summary = fmt.Sprintf("Ingested %d chunks from %d files!", len(searchable), len(files))

	ing.logger.Info("ingestion complete",
		"chunks", report.TotalChunks,
		"files_loaded", report.FilesLoaded,
		"files_seen", len(files),
		"hierarchical", ing.hierarchical)
	return report, nil
}

// markFailed downgrades the load result for path after a chunking failure.
func markFailed(files []document.FileResult, path string, err error) {
	for i := range files {
		if files[i].Path == path {
			files[i].Status = document.StatusFailed
			files[i].Error = err.Error()
			return
		}
	}
}

func countLoaded(files []document.FileResult) int {
	n := 0
	for _, f := range files {
		if f.Status == document.StatusLoaded {
			n++
		}
	}
	return n
}

// searchableChunks filters out parent windows, which are stored as context
// but never embedded or matched.
func searchableChunks(chunks []chunk.Chunk) []chunk.Chunk {
	out := make([]chunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Tier != chunk.TierParent {
			out = append(out, c)
		}
	}
	return out
}

// chunkMetric computes the per-run size statistics over searchable chunks.
func chunkMetric(chunks []chunk.Chunk, filesLoaded int) activity.IngestionMetric {
	total := 0
	maxSize := 0
	for _, c := range chunks {
		size := len(c.Text)
		total += size
		if size > maxSize {
			maxSize = size
		}
	}
	avg := 0.0
	if len(chunks) > 0 {
		avg = float64(total) / float64(len(chunks))
	}
	return activity.IngestionMetric{
		TotalChunks:       len(chunks),
		AvgChunkSizeChars: avg,
		MaxChunkSizeChars: maxSize,
		FilesProcessed:    filesLoaded,
	}
}
