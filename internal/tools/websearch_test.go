package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func searchRegistry(t *testing.T, handler http.HandlerFunc) *Registry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r, err := NewRegistry(t.TempDir(), Options{SearxURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestWebSearchFormatsResults(t *testing.T) {
	r := searchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/search" {
			t.Errorf("expected path '/search', got %q", req.URL.Path)
		}
		if req.URL.Query().Get("format") != "json" {
			t.Error("expected format=json")
		}
		if req.URL.Query().Get("q") != "golang" {
			t.Errorf("unexpected query: %q", req.URL.Query().Get("q"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Go", "url": "https://go.dev", "content": "The Go programming language"},
			},
		})
	})

	out, err := r.webSearch(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Title: Go") || !strings.Contains(out, "URL: https://go.dev") || !strings.Contains(out, "Snippet: The Go programming language") {
		t.Errorf("unexpected formatting: %q", out)
	}
}

func TestWebSearchCapsResults(t *testing.T) {
	r := searchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		results := make([]map[string]string, 8)
		for i := range results {
			results[i] = map[string]string{"title": "t", "url": "u", "content": "c"}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	out, err := r.webSearch(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "Title: "); got != maxWebResults {
		t.Errorf("expected %d results, got %d", maxWebResults, got)
	}
}

func TestWebSearchNoResults(t *testing.T) {
	r := searchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})

	out, err := r.webSearch(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if out != "No results found." {
		t.Errorf("expected no-results message, got %q", out)
	}
}

func TestWebSearchNetworkFailureIsTextual(t *testing.T) {
	r, err := NewRegistry(t.TempDir(), Options{SearxURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.webSearch(context.Background(), "q")
	if err != nil {
		t.Fatal("network failure must not be an error")
	}
	if !strings.HasPrefix(out, "Error performing web search:") {
		t.Errorf("expected textual error, got %q", out)
	}
}

func TestWebSearchUnconfigured(t *testing.T) {
	r := newTestRegistry(t)
	out, err := r.webSearch(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Error performing web search:") {
		t.Errorf("expected textual error, got %q", out)
	}
}
