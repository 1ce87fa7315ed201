package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fetchRegistry(t *testing.T, handler http.HandlerFunc) (*Registry, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r, err := NewRegistry(t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	return r, server.URL
}

func TestFetchURLConvertsToMarkdown(t *testing.T) {
	r, url := fetchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		if ua := req.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Tracegen/") {
			t.Errorf("unexpected user agent: %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>"))
	})

	out, err := r.fetchURL(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "# Title") {
		t.Errorf("heading not converted: %q", out)
	}
	if !strings.Contains(out, "**bold**") {
		t.Errorf("emphasis not converted: %q", out)
	}
}

func TestFetchURLTruncatesLargePages(t *testing.T) {
	r, url := fetchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("<p>" + strings.Repeat("x", maxFetchURLChars+1000) + "</p>"))
	})

	out, err := r.fetchURL(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "[Content truncated]") {
		t.Error("expected truncation marker")
	}
	if len(out) > maxFetchURLChars+len("\n\n[Content truncated]") {
		t.Errorf("content not truncated: %d chars", len(out))
	}
}

func TestFetchURLHTTPError(t *testing.T) {
	r, url := fetchRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := r.fetchURL(context.Background(), url); err == nil {
		t.Fatal("expected error for 404")
	} else if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetchURLEmptyURL(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.fetchURL(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
