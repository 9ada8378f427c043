package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
	"github.com/aide-oss/aide/internal/provider"
)

// Result is one document returned by a search provider.
type Result struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Searcher is an external search provider the router can invoke.
type Searcher interface {
	// Name returns the tool name bound to the model (e.g. "web_search").
	Name() string

	// Description returns a description for the LLM.
	Description() string

	// ResultKey returns the provider-specific payload key (e.g. "web_results").
	ResultKey() string

	// Search executes the query and returns ordered results.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Registry holds the available search providers by tool name.
type Registry struct {
	searchers map[string]Searcher
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{searchers: make(map[string]Searcher)}
}

// Register adds a searcher to the registry.
func (r *Registry) Register(s Searcher) {
	if _, ok := r.searchers[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.searchers[s.Name()] = s
}

// Get retrieves a searcher by tool name.
func (r *Registry) Get(name string) (Searcher, error) {
	s, ok := r.searchers[name]
	if !ok {
		available := make([]string, 0, len(r.searchers))
		for _, n := range r.order {
			available = append(available, n)
		}
		return nil, aideErrors.New(aideErrors.CodeSearchError,
			fmt.Sprintf("search provider not found: %s", name)).
			WithSuggestion(fmt.Sprintf("Available providers: %s", strings.Join(available, ", ")))
	}
	return s, nil
}

// Has checks whether a tool name belongs to a registered searcher.
func (r *Registry) Has(name string) bool {
	_, ok := r.searchers[name]
	return ok
}

// ToolDefs returns provider tool definitions for every registered searcher,
// in registration order.
func (r *Registry) ToolDefs() []provider.Tool {
	defs := make([]provider.Tool, 0, len(r.order))
	for _, name := range r.order {
		s := r.searchers[name]
		defs = append(defs, provider.Tool{
			Name:        s.Name(),
			Description: s.Description(),
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		})
	}
	return defs
}

// DefaultRegistry builds a registry with the three standard providers.
func DefaultRegistry(tavilyAPIKey string, timeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(NewWebSearcher(tavilyAPIKey, timeout))
	r.Register(NewWikiSearcher(timeout))
	r.Register(NewArxivSearcher(timeout))
	return r
}
