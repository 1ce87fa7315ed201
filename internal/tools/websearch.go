package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// webSearchTimeout bounds the SearXNG round trip; it is tighter than the
// shared client timeout.
const webSearchTimeout = 10 * time.Second

// maxWebResults caps how many results are formatted for the model.
const maxWebResults = 5

type searxResponse struct {
	Results []searxResult `json:"results"`
}

type searxResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// webSearch queries the configured SearXNG instance and formats the top
// results as title/URL/snippet blocks. Network and decode failures come
// back as textual results, never as errors.
func (r *Registry) webSearch(ctx context.Context, query string) (string, error) {
	result, err := r.searx(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	return result, nil
}

func (r *Registry) searx(ctx context.Context, query string) (string, error) {
	if r.searxURL == "" {
		return "", fmt.Errorf("no search endpoint configured")
	}

	cctx, cancel := context.WithTimeout(ctx, webSearchTimeout)
	defer cancel()

	u, err := url.Parse(r.searxURL + "/search")
	if err != nil {
		return "", fmt.Errorf("parse search URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search error: status %d", resp.StatusCode)
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	results := parsed.Results
	if len(results) > maxWebResults {
		results = results[:maxWebResults]
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	blocks := make([]string, 0, len(results))
	for _, res := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nSnippet: %s\n", res.Title, res.URL, res.Content))
	}
	return strings.Join(blocks, "\n"), nil
}
