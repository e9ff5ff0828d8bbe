package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/gofrs/flock"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/blocklist"
	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/knowledge"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/rag"
)

// Files inside the data directory owned by Setup.
const (
	lockFileName  = "docsage.lock"
	vectorDirName = "vector"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	lock, err := provideLock(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	a.lock = lock

	a.Models = config.NewModels(cfg.DataDir)
	mc, err := a.Models.Load()
	if err != nil {
		return nil, fmt.Errorf("loading model configuration: %w", err)
	}

	g, plugin, embedder, err := provideGenkit(ctx, cfg, mc)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = embedder

	embedFunc := knowledge.NewEmbeddingFunc(embedder)

	store, err := knowledge.NewStore(filepath.Join(cfg.DataDir, vectorDirName), embedFunc, logger)
	if err != nil {
		return nil, err
	}
	a.Knowledge = store

	a.Blocklist = blocklist.New(cfg.DataDir)
	a.Activity = activity.New(cfg.DataDir, logger)
	a.Chunker = chunk.NewEngine(chunk.EmbedFunc(embedFunc), logger)

	generator := rag.NewGenerator(g, plugin, a.Models, logger)
	a.Service = rag.NewService(a.Blocklist, store, generator, a.Activity, logger)
	a.Ingestor = rag.NewIngestor(document.NewLoader(), a.Chunker, store, a.Activity, cfg.Hierarchical, logger)

	logger.Info("application ready",
		"data_dir", cfg.DataDir,
		"ollama_host", cfg.OllamaHost,
		"generation_model", mc.GenerationModel,
		"embedding_model", mc.EmbeddingModel,
		"hierarchical", cfg.Hierarchical)
	return a, nil
}

// provideLock acquires the single-writer lock on the data directory. The
// JSON stores and the vector index assume one process owns the directory.
func provideLock(dataDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring data directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("data directory %s is locked by another process", dataDir)
	}
	return lock, nil
}

// provideGenkit initializes Genkit with the Ollama plugin and registers the
// configured embedding model. Generation models are registered lazily on the
// query path because the active model can change at runtime.
func provideGenkit(ctx context.Context, cfg *config.Config, mc config.ModelConfig) (*genkit.Genkit, *ollama.Ollama, ai.Embedder, error) {
	plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
	g := genkit.Init(ctx, genkit.WithPlugins(plugin))
	if g == nil {
		return nil, nil, nil, errors.New("initializing genkit with ollama provider")
	}

	// Ollama requires explicit registration (no auto-discovery).
	plugin.DefineEmbedder(g, cfg.OllamaHost, mc.EmbeddingModel, nil)
	embedder := ollama.Embedder(g, cfg.OllamaHost)
	if embedder == nil {
		return nil, nil, nil, fmt.Errorf("embedder %q not found", mc.EmbeddingModel)
	}

	return g, plugin, embedder, nil
}
