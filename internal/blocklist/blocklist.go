// Package blocklist implements the query content filter.
//
// The filter is a persisted set of blocked terms matched case-insensitively
// as substrings of incoming queries. Substring matching is deliberately
// permissive: it catches obfuscated variants at the cost of false positives
// on terms embedded in legitimate words. That tradeoff is accepted.
//
// Expected scale is tens of terms, so the linear scan per query is fine.
package blocklist

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docsage/docsage/internal/store"
)

// fileName is the blocklist file inside the data directory.
const fileName = "blocked_terms.json"

// Filter is the file-backed blocked-term filter. Terms are re-read from disk
// on every check so admin updates apply to the next query without a restart.
type Filter struct {
	file *store.JSONFile[string]
}

// New creates a Filter storing its terms in dataDir.
func New(dataDir string) *Filter {
	return &Filter{
		file: store.NewJSONFile[string](filepath.Join(dataDir, fileName)),
	}
}

// IsBlocked reports whether any blocked term occurs in query,
// case-insensitively. An empty blocklist blocks nothing.
func (f *Filter) IsBlocked(query string) bool {
	lower := strings.ToLower(query)
	for _, term := range f.file.Load() {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Terms returns the current blocked terms in persisted order.
func (f *Filter) Terms() []string {
	return f.file.Load()
}

// SetTerms replaces the entire blocklist. Terms are trimmed of surrounding
// whitespace; empty entries are dropped; an empty input clears the list.
func (f *Filter) SetTerms(terms []string) error {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			cleaned = append(cleaned, term)
		}
	}

	if err := f.file.Replace(cleaned); err != nil {
		return fmt.Errorf("saving blocked terms: %w", err)
	}
	return nil
}
