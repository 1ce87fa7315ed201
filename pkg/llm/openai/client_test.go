package openai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/tracegen/pkg/llm"
)

func newTestClient(baseURL string) *Client {
	c := New(&llm.Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = 10 * time.Millisecond
	return c
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1},
	}
}

func TestCompleteRequestShape(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path '/chat/completions', got %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		json.NewEncoder(w).Encode(chatReply("hi"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	tools := []llm.Tool{{Type: "function", Function: llm.Function{Name: "read_file", Parameters: json.RawMessage(`{"type":"object"}`)}}}
	resp, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hello"}}, tools)
	if err != nil {
		t.Fatal(err)
	}

	if got.Model != "test-model" {
		t.Errorf("unexpected model: %q", got.Model)
	}
	if got.ToolChoice != "auto" {
		t.Errorf("expected tool_choice auto with tools present, got %q", got.ToolChoice)
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "read_file" {
		t.Errorf("tools not forwarded: %+v", got.Tools)
	}
	if got.Reasoning != nil {
		t.Error("reasoning must be omitted when effort is unset")
	}
	if resp.Message.Content != "hi" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
}

func TestCompleteOmitsToolChoiceWithoutTools(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil); err != nil {
		t.Fatal(err)
	}
	if _, present := raw["tool_choice"]; present {
		t.Error("tool_choice must be absent without tools")
	}
	if _, present := raw["tools"]; present {
		t.Error("tools must be absent when none are enabled")
	}
}

func TestCompleteReasoningEffort(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer server.Close()

	c := New(&llm.Config{BaseURL: server.URL, APIKey: "k", Model: "m", ReasoningEffort: "high"})
	if _, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil); err != nil {
		t.Fatal(err)
	}
	if got.Reasoning == nil || got.Reasoning.Effort != "high" {
		t.Errorf("reasoning effort not forwarded: %+v", got.Reasoning)
	}
}

func TestCompleteAPIErrorTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "API error 401: ") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(err.Error()) > len("API error 401: ")+errorBodyLimit {
		t.Errorf("error body not truncated: %d chars", len(err.Error()))
	}
}

func TestCompleteRetriesTransientStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(chatReply("recovered"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	resp, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if resp.Message.Content != "recovered" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
}

func TestCompleteRetryExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != c.retry.MaxAttempts {
		t.Errorf("expected %d attempts, got %d", c.retry.MaxAttempts, calls)
	}
	if !strings.Contains(err.Error(), "API error 429") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("400 must not be retried, got %d attempts", calls)
	}
}

func TestCompleteNoChoicesYieldsEmptyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	resp, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message.Role != "" || resp.Message.Content != "" {
		t.Errorf("expected zero-valued message, got %+v", resp.Message)
	}
}

func TestCompleteUsageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "ok"}}},
			"usage":   map[string]any{"prompt_tokens": 100, "completion_tokens": 40, "cost": 0.0125},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	resp, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	u := resp.Usage
	if u.PromptTokens != 100 || u.CompletionTokens != 40 || u.TotalTokens != 140 {
		t.Errorf("unexpected tokens: %+v", u)
	}
	if math.Abs(u.Cost-0.0125) > 1e-9 {
		t.Errorf("unexpected cost: %v", u.Cost)
	}
}

func TestCompleteUsageHeaderFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-openrouter-usage", `{"prompt_tokens":20,"completion_tokens":5,"cost":0.03}`)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "ok"}}},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	resp, err := c.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	u := resp.Usage
	if u.PromptTokens != 20 || u.CompletionTokens != 5 || u.TotalTokens != 25 {
		t.Errorf("unexpected tokens: %+v", u)
	}
	if math.Abs(u.Cost-0.03) > 1e-9 {
		t.Errorf("unexpected cost: %v", u.Cost)
	}
}
