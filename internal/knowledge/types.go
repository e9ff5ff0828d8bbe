package knowledge

// Result is a single search hit.
type Result struct {
	// ID is the matched chunk's identifier.
	ID string

	// Content is the matched chunk text.
	Content string

	// Context is the text handed to the generator. For hierarchical chunks
	// this is the enclosing parent window; otherwise it equals Content.
	Context string

	// Metadata carries the chunk's stored metadata (source file, tier, ...).
	Metadata map[string]string

	// Similarity is the cosine similarity score (0-1).
	Similarity float32
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK   int
	filter map[string]string
}

// WithTopK sets the maximum number of results to return. Default is 5.
// The effective value is clamped to the number of indexed chunks.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFilter adds an exact-match metadata filter. Multiple calls add
// additional filters (AND logic).
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
