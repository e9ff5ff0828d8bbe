// Package document loads raw text from source files for ingestion.
//
// Files are routed by extension: plain text is read directly, PDF goes
// through a PDF text extractor, and the zip-based office formats (DOCX, ODT,
// RTF, PPTX) through format-specific extraction. Unrecognized extensions are
// skipped, and a failure on one file never aborts the rest of the folder;
// per-file outcomes are reported as structured results.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Metadata keys attached to loaded documents.
const (
	MetaSourcePath = "source_path"
	MetaFileName   = "file_name"
	MetaFileExt    = "file_ext"
	MetaLoadedAt   = "loaded_at"
)

// Document is a loaded source file: raw text plus source metadata.
// Ephemeral — produced by the Loader, consumed by the chunking engine.
type Document struct {
	SourcePath string
	Text       string
	Metadata   map[string]string
}

// FileStatus classifies the outcome of loading one file.
type FileStatus string

const (
	StatusLoaded  FileStatus = "loaded"
	StatusSkipped FileStatus = "skipped"
	StatusFailed  FileStatus = "failed"
)

// FileResult is the per-file outcome of a folder load. Failures carry the
// error text so callers and tests can inspect them instead of scraping
// console output.
type FileResult struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Loader reads documents from a folder.
type Loader struct{}

// NewLoader returns a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads every supported file directly inside dir. It returns the
// loaded documents, one FileResult per entry examined, and an error only if
// the directory itself cannot be read. Subdirectories are not descended.
func (l *Loader) LoadDir(dir string) ([]Document, []FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	// Deterministic processing order regardless of filesystem.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []Document
	var results []FileResult

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		doc, err := l.LoadFile(path)
		switch {
		case err == nil:
			docs = append(docs, doc)
			results = append(results, FileResult{Path: path, Status: StatusLoaded})
		case isUnsupported(err):
			results = append(results, FileResult{Path: path, Status: StatusSkipped})
		default:
			results = append(results, FileResult{Path: path, Status: StatusFailed, Error: err.Error()})
		}
	}

	return docs, results, nil
}

// LoadFile loads a single file, routed by extension.
func (l *Loader) LoadFile(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	extract, ok := extractors[ext]
	if !ok {
		return Document{}, &unsupportedError{ext: ext}
	}

	text, err := extract(path)
	if err != nil {
		return Document{}, fmt.Errorf("extracting %s: %w", path, err)
	}

	return Document{
		SourcePath: path,
		Text:       text,
		Metadata: map[string]string{
			MetaSourcePath: path,
			MetaFileName:   filepath.Base(path),
			MetaFileExt:    ext,
			MetaLoadedAt:   time.Now().Format(time.RFC3339),
		},
	}, nil
}

// SupportedExtensions returns the recognized extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// unsupportedError marks an extension the loader does not recognize.
// Unsupported files are skipped, not failed.
type unsupportedError struct {
	ext string
}

func (e *unsupportedError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.ext)
}

func isUnsupported(err error) bool {
	var ue *unsupportedError
	return errors.As(err, &ue)
}

// extractPlain reads a file as UTF-8 text.
func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}
