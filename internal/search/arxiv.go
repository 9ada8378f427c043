package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	aideErrors "github.com/aide-oss/aide/internal/errors"
)

const (
	arxivEndpoint     = "https://export.arxiv.org/api/query"
	arxivMaxResults   = 3
	arxivContentLimit = 2000
)

// ArxivSearcher queries the arXiv Atom API for paper abstracts.
type ArxivSearcher struct {
	httpClient *http.Client
}

// NewArxivSearcher creates an arXiv searcher.
func NewArxivSearcher(timeout time.Duration) *ArxivSearcher {
	return &ArxivSearcher{httpClient: &http.Client{Timeout: timeout}}
}

func (a *ArxivSearcher) Name() string { return "arxiv_search" }

func (a *ArxivSearcher) Description() string {
	return "Search arXiv for academic papers and research abstracts."
}

func (a *ArxivSearcher) ResultKey() string { return "arxiv_results" }

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// Search runs the query and returns at most three abstracts, each
// truncated to keep prompt size bounded.
func (a *ArxivSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", arxivMaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to create arxiv request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "arxiv search request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to read arxiv response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, aideErrors.New(aideErrors.CodeSearchError,
			fmt.Sprintf("arxiv search returned status %d", resp.StatusCode))
	}

	var feed arxivFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil, aideErrors.Wrap(aideErrors.CodeSearchError, "failed to parse arxiv feed", err)
	}

	results := make([]Result, 0, arxivMaxResults)
	for _, entry := range feed.Entries {
		content := fmt.Sprintf("%s\n%s",
			strings.TrimSpace(entry.Title),
			strings.TrimSpace(entry.Summary))
		if len(content) > arxivContentLimit {
			content = content[:arxivContentLimit]
		}
		results = append(results, Result{Source: entry.ID, Content: content})
		if len(results) >= arxivMaxResults {
			break
		}
	}
	return results, nil
}
