package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/log"
)

// answerSystemPrompt grounds the model on retrieved context only.
const answerSystemPrompt = `You are a helpful assistant answering questions about a document collection.
Use only the provided context to answer the question. If the context does not
contain the answer, say that you don't know instead of guessing.`

// contextSeparator joins retrieved passages in the prompt.
const contextSeparator = "\n\n---\n\n"

// ModelSource supplies the current model configuration. The generation model
// is re-read on every call so admin updates apply to the next query without
// a restart.
type ModelSource interface {
	Load() (config.ModelConfig, error)
}

// Generator produces grounded answers through a Genkit-registered chat model.
//
// Ollama models need explicit registration before first use, and the active
// model name can change at runtime, so registration happens lazily on the
// generation path, once per model name.
type Generator struct {
	g        *genkit.Genkit
	plugin   *ollama.Ollama
	models   ModelSource
	provider string
	logger   log.Logger

	mu      sync.Mutex
	defined map[string]struct{}
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithProvider overrides the model name prefix (default "ollama"). Tests use
// this to route generation to a mock provider.
func WithProvider(prefix string) GeneratorOption {
	return func(g *Generator) {
		g.provider = prefix
	}
}

// NewGenerator creates a Generator. plugin may be nil, in which case models
// are assumed to be registered by the caller.
func NewGenerator(g *genkit.Genkit, plugin *ollama.Ollama, models ModelSource, logger log.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	gen := &Generator{
		g:        g,
		plugin:   plugin,
		models:   models,
		provider: "ollama",
		logger:   logger,
		defined:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(gen)
	}
	return gen
}

// Generate answers query using the given context passages. The model name is
// read from the model configuration on every call.
func (gen *Generator) Generate(ctx context.Context, query string, contexts []string) (string, error) {
	mc, err := gen.models.Load()
	if err != nil {
		return "", fmt.Errorf("loading model configuration: %w", err)
	}

	gen.ensureDefined(mc.GenerationModel)

	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.provider+"/"+mc.GenerationModel),
		ai.WithSystem(answerSystemPrompt),
		ai.WithMessages(ai.NewUserTextMessage(buildPrompt(query, contexts))),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer with %s: %w", mc.GenerationModel, err)
	}

	answer := strings.TrimSpace(resp.Text())
	gen.logger.Debug("generated answer",
		"model", mc.GenerationModel,
		"context_passages", len(contexts),
		"answer_length", len(answer))
	return answer, nil
}

// ensureDefined registers model with the Ollama plugin on first use.
func (gen *Generator) ensureDefined(model string) {
	if gen.plugin == nil {
		return
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	if _, ok := gen.defined[model]; ok {
		return
	}
	gen.plugin.DefineModel(gen.g, ollama.ModelDefinition{
		Name: model,
		Type: "chat",
	}, nil)
	gen.defined[model] = struct{}{}
	gen.logger.Info("registered generation model", "model", model)
}

func buildPrompt(query string, contexts []string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	if len(contexts) == 0 {
		sb.WriteString("(no matching documents)")
	} else {
		sb.WriteString(strings.Join(contexts, contextSeparator))
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	return sb.String()
}
