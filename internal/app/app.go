// Package app assembles the application: configuration, the AI backend, the
// vector index, the file-backed stores, and the two pipelines built on top
// of them. Setup wires everything once; the rest of the program only talks
// to the App.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/gofrs/flock"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/blocklist"
	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/knowledge"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/rag"
)

// App holds the wired application.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// Stores
	Models    *config.Models
	Blocklist *blocklist.Filter
	Activity  *activity.Log
	Knowledge *knowledge.Store

	// Pipelines
	Chunker  *chunk.Engine
	Service  *rag.Service
	Ingestor *rag.Ingestor

	// Lifecycle management
	lock *flock.Flock
}

// Close releases the data directory lock.
// Safe to call on a partially initialized App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down")
	}

	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil && a.Logger != nil {
			a.Logger.Warn("releasing data directory lock", "error", err)
		}
	}

	return nil
}
