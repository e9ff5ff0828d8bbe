// Package activity provides the append-only audit trail for queries and
// admin actions, plus the per-run ingestion metrics series.
//
// All three stores are JSON-array files in the data directory. Entries are
// immutable once written. A corrupt store reads as empty and is overwritten
// by the next append, so logging never becomes fatal — the audit trail is
// best-effort durable but must never take a query down with it.
package activity

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/store"
)

// File names inside the data directory.
const (
	queryLogFileName = "chat_logs.json"
	adminLogFileName = "admin_logs.json"
	metricsFileName  = "metrics.json"
)

// Admin action names recorded by the admin surfaces.
const (
	ActionUpdateBlockedTerms = "update_blocked_terms"
	ActionUpdateModels       = "update_models"
	ActionIngestDocuments    = "ingest_documents"
)

// QueryEntry records one query and the response returned for it, whether the
// query was answered, blocked, or failed.
type QueryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
}

// AdminEntry records one administrative action.
type AdminEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Details   string    `json:"details"`
}

// IngestionMetric is one row of the per-ingestion-run metrics series. The
// series is consumed by an external dashboard, never read back by the core.
type IngestionMetric struct {
	Timestamp         time.Time `json:"timestamp"`
	TotalChunks       int       `json:"total_chunks"`
	AvgChunkSizeChars float64   `json:"avg_chunk_size_chars"`
	MaxChunkSizeChars int       `json:"max_chunk_size_chars"`
	FilesProcessed    int       `json:"files_processed"`
}

// Log is the activity logger. Safe for concurrent use within one process.
type Log struct {
	queries *store.JSONFile[QueryEntry]
	admin   *store.JSONFile[AdminEntry]
	metrics *store.JSONFile[IngestionMetric]
	logger  log.Logger
}

// New creates a Log with its stores in dataDir.
func New(dataDir string, logger log.Logger) *Log {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Log{
		queries: store.NewJSONFile[QueryEntry](filepath.Join(dataDir, queryLogFileName)),
		admin:   store.NewJSONFile[AdminEntry](filepath.Join(dataDir, adminLogFileName)),
		metrics: store.NewJSONFile[IngestionMetric](filepath.Join(dataDir, metricsFileName)),
		logger:  logger,
	}
}

// LogQuery appends one query-log entry.
func (l *Log) LogQuery(query, response, sessionID string) error {
	entry := QueryEntry{
		Timestamp: time.Now(),
		Query:     query,
		Response:  response,
		SessionID: sessionID,
	}
	if err := l.queries.Append(entry); err != nil {
		return fmt.Errorf("appending query log entry: %w", err)
	}
	l.logger.Debug("query logged", "session_id", sessionID, "query_length", len(query))
	return nil
}

// LogAdmin appends one admin-log entry.
func (l *Log) LogAdmin(action, username, details string) error {
	entry := AdminEntry{
		Timestamp: time.Now(),
		Action:    action,
		Username:  username,
		Details:   details,
	}
	if err := l.admin.Append(entry); err != nil {
		return fmt.Errorf("appending admin log entry: %w", err)
	}
	l.logger.Debug("admin action logged", "action", action, "username", username)
	return nil
}

// RecordIngestion appends one metric row for an ingestion run.
func (l *Log) RecordIngestion(m IngestionMetric) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	if err := l.metrics.Append(m); err != nil {
		return fmt.Errorf("appending ingestion metric: %w", err)
	}
	return nil
}

// Queries returns all query-log entries, oldest first.
func (l *Log) Queries() []QueryEntry {
	return l.queries.Load()
}

// Admin returns all admin-log entries, oldest first.
func (l *Log) Admin() []AdminEntry {
	return l.admin.Load()
}

// Metrics returns the full ingestion metrics series, oldest first.
func (l *Log) Metrics() []IngestionMetric {
	return l.metrics.Load()
}
