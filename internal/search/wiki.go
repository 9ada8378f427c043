package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
)

const (
	wikiEndpoint   = "https://en.wikipedia.org/w/api.php"
	wikiMaxResults = 2
)

// WikiSearcher queries the Wikipedia API for article extracts.
type WikiSearcher struct {
	httpClient *http.Client
}

// NewWikiSearcher creates a Wikipedia searcher.
func NewWikiSearcher(timeout time.Duration) *WikiSearcher {
	return &WikiSearcher{httpClient: &http.Client{Timeout: timeout}}
}

func (w *WikiSearcher) Name() string { return "wiki_search" }

func (w *WikiSearcher) Description() string {
	return "Search Wikipedia for encyclopedic background on people, places, and concepts."
}

func (w *WikiSearcher) ResultKey() string { return "wiki_results" }

type wikiResponse struct {
	Query struct {
		Pages map[string]struct {
			Index   int    `json:"index"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Search runs an article search and returns at most two extracts.
func (w *WikiSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", fmt.Sprintf("%d", wikiMaxResults))
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("exintro", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikiEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to create wiki request", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "wiki search request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to read wiki response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, aideErrors.New(aideErrors.CodeSearchError,
			fmt.Sprintf("wiki search returned status %d", resp.StatusCode))
	}

	var parsed wikiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to parse wiki response", err)
	}

	type page struct {
		index   int
		title   string
		extract string
	}
	pages := make([]page, 0, len(parsed.Query.Pages))
	for _, p := range parsed.Query.Pages {
		pages = append(pages, page{index: p.Index, title: p.Title, extract: p.Extract})
	}
	// The pages map is unordered; the index field carries search rank.
	sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })

	results := make([]Result, 0, wikiMaxResults)
	for _, p := range pages {
		results = append(results, Result{Source: p.title, Content: p.extract})
		if len(results) >= wikiMaxResults {
			break
		}
	}
	return results, nil
}
