package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrModelsCorrupt indicates models.json exists but cannot be parsed.
	// This is fatal and never auto-recovered: a corrupt model selection file
	// means something outside the process modified it, and silently reverting
	// to defaults could switch the embedding model under an existing index.
	ErrModelsCorrupt = errors.New("models file corrupt")
)

// Default model identifiers, matching a stock Ollama install.
const (
	DefaultGenerationModel = "gemma2:9b"
	DefaultEmbeddingModel  = "nomic-embed-text"
)

// modelsFileName is the file inside the data directory holding the selection.
const modelsFileName = "models.json"

// ModelConfig is the persisted model selection. It is the single source of
// truth: every pipeline run re-reads it, so an update takes effect on the
// next invocation.
type ModelConfig struct {
	GenerationModel string `json:"generation_model"`
	EmbeddingModel  string `json:"embedding_model"`
}

// ModelUpdate is a partial update to the model selection. Nil fields keep
// the current value.
type ModelUpdate struct {
	GenerationModel *string `json:"generation_model,omitempty"`
	EmbeddingModel  *string `json:"embedding_model,omitempty"`
}

// Models is a file-backed repository for the model selection. Safe for
// concurrent use within one process; cross-process writers are not supported.
type Models struct {
	mu   sync.Mutex
	path string
}

// NewModels creates a Models repository storing its file in dataDir.
func NewModels(dataDir string) *Models {
	return &Models{path: filepath.Join(dataDir, modelsFileName)}
}

// Load returns the persisted model selection. If the file does not exist it
// is created with defaults; exactly one file is written, and repeated calls
// return identical values. A file that exists but cannot be parsed returns
// ErrModelsCorrupt.
func (m *Models) Load() (ModelConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

func (m *Models) loadLocked() (ModelConfig, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := ModelConfig{
			GenerationModel: DefaultGenerationModel,
			EmbeddingModel:  DefaultEmbeddingModel,
		}
		if err := m.saveLocked(cfg); err != nil {
			return ModelConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return ModelConfig{}, fmt.Errorf("reading %s: %w", m.path, err)
	}

	var cfg ModelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ModelConfig{}, fmt.Errorf("%w: %s: %v", ErrModelsCorrupt, m.path, err)
	}
	if cfg.GenerationModel == "" || cfg.EmbeddingModel == "" {
		return ModelConfig{}, fmt.Errorf("%w: %s: missing model fields", ErrModelsCorrupt, m.path)
	}
	return cfg, nil
}

// Update merges the partial update into the persisted selection and saves it.
// No validation against installed models happens here; restricting choices to
// what the model server actually has is an admin-surface concern.
func (m *Models) Update(upd ModelUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.loadLocked()
	if err != nil {
		return err
	}

	if upd.GenerationModel != nil && *upd.GenerationModel != "" {
		cfg.GenerationModel = *upd.GenerationModel
	}
	if upd.EmbeddingModel != nil && *upd.EmbeddingModel != "" {
		cfg.EmbeddingModel = *upd.EmbeddingModel
	}

	return m.saveLocked(cfg)
}

func (m *Models) saveLocked(cfg ModelConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling model config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", m.path, err)
	}
	return nil
}
