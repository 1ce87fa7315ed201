package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/tracegen/pkg/llm"
)

const defaultTimeout = 120 * time.Second

// Maximum response body length included in API error messages.
const errorBodyLimit = 500

// Client implements the llm.Provider interface for OpenAI-compatible chat
// completions APIs, including OpenRouter. Each client owns its HTTP client
// and retry policy; there is no shared global transport state.
type Client struct {
	config     *llm.Config
	httpClient *http.Client
	retry      *RetryPolicy
}

// New creates a new OpenAI-compatible client with the given configuration.
func New(config *llm.Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retry := DefaultRetryPolicy()
	if config.MaxRetries > 0 {
		retry.MaxAttempts = config.MaxRetries
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []llm.Message `json:"messages"`
	Tools      []llm.Tool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
	Reasoning  *reasoning    `json:"reasoning,omitempty"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

// chatResponse is the chat completions response body. Cost fields may appear
// at the top level or inside usage depending on the upstream provider.
type chatResponse struct {
	Choices   []choice       `json:"choices"`
	Usage     *responseUsage `json:"usage"`
	Cost      *float64       `json:"cost"`
	TotalCost *float64       `json:"total_cost"`
}

// choice represents a single completion choice.
type choice struct {
	Message llm.Message `json:"message"`
}

// Complete sends a chat completion request and returns the full response.
// Transient HTTP status codes (429, 500, 502, 503, 504) are retried with
// backoff per the client's retry policy; any other failure is returned
// immediately. A response with no choices yields a zero-valued message.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Response, error) {
	reqBody := chatRequest{
		Model:    c.config.Model,
		Messages: messages,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}
	if c.config.ReasoningEffort != "" {
		reqBody.Reasoning = &reasoning{Effort: c.config.ReasoningEffort}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"

	var resp *http.Response
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("sending request: %w", err)
		}
		if !c.retry.ShouldRetry(resp.StatusCode, attempt) {
			break
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		select {
		case <-time.After(c.retry.NextDelay(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(respBody, errorBodyLimit))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	out := &llm.Response{Usage: extractUsage(&chatResp, resp.Header)}
	if len(chatResp.Choices) > 0 {
		out.Message = chatResp.Choices[0].Message
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
