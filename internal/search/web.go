package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	webMaxResults  = 3
)

// WebSearcher queries the Tavily web search API.
type WebSearcher struct {
	apiKey     string
	httpClient *http.Client
}

// NewWebSearcher creates a Tavily-backed web searcher.
func NewWebSearcher(apiKey string, timeout time.Duration) *WebSearcher {
	return &WebSearcher{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (w *WebSearcher) Name() string { return "web_search" }

func (w *WebSearcher) Description() string {
	return "Search the web for current information, news, and general knowledge."
}

func (w *WebSearcher) ResultKey() string { return "web_results" }

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs the query against Tavily and returns at most three results.
func (w *WebSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	if w.apiKey == "" {
		return nil, aideErrors.New(aideErrors.CodeAPIKeyMissing, "Tavily API key not configured").
			WithSuggestion("Set TAVILY_API_KEY or search.tavily_api_key in aide.yaml")
	}

	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: webMaxResults})
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to create search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "web search request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to read search response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, aideErrors.New(aideErrors.CodeSearchError,
			fmt.Sprintf("web search returned status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to parse search response", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{Source: r.URL, Content: r.Content})
		if len(results) >= webMaxResults {
			break
		}
	}
	return results, nil
}
