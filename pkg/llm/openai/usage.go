package openai

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/tracegen/pkg/llm"
)

// Response headers OpenRouter sets when usage accounting is enabled. They
// serve as a fallback when the body omits token counts or cost.
const (
	usageHeader = "x-openrouter-usage"
	costHeader  = "x-openrouter-cost"
)

// responseUsage is the usage sub-object of a chat completions response.
// Both OpenAI (prompt/completion) and Anthropic-style (input/output) token
// field names are accepted.
type responseUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	InputTokens      int      `json:"input_tokens"`
	OutputTokens     int      `json:"output_tokens"`
	Cost             *float64 `json:"cost"`
	TotalCost        *float64 `json:"total_cost"`
	TotalPrice       *float64 `json:"total_price"`
}

// costSource is one named strategy for locating the per-turn cost figure.
type costSource struct {
	name string
	pick func(r *chatResponse) *float64
}

// costSources is the ordered fallback chain; the first non-nil value wins.
var costSources = []costSource{
	{"cost", func(r *chatResponse) *float64 { return r.Cost }},
	{"total_cost", func(r *chatResponse) *float64 { return r.TotalCost }},
	{"usage.cost", func(r *chatResponse) *float64 {
		if r.Usage == nil {
			return nil
		}
		return r.Usage.Cost
	}},
	{"usage.total_cost", func(r *chatResponse) *float64 {
		if r.Usage == nil {
			return nil
		}
		return r.Usage.TotalCost
	}},
	{"usage.total_price", func(r *chatResponse) *float64 {
		if r.Usage == nil {
			return nil
		}
		return r.Usage.TotalPrice
	}},
}

func bodyCost(r *chatResponse) float64 {
	for _, s := range costSources {
		if v := s.pick(r); v != nil {
			return *v
		}
	}
	return 0
}

// headerUsage is the JSON payload of the x-openrouter-usage header.
type headerUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	Cost             *float64 `json:"cost"`
	TotalCost        *float64 `json:"total_cost"`
}

// extractUsage pulls token counts and cost out of a response body, falling
// back to the OpenRouter response headers when the body reports zero tokens
// or zero cost. Header values only fill zero-valued fields; they never
// override nonzero body values. Missing usage data degrades to zeros.
func extractUsage(r *chatResponse, hdr http.Header) llm.Usage {
	var prompt, completion int
	if u := r.Usage; u != nil {
		prompt = u.PromptTokens
		if prompt == 0 {
			prompt = u.InputTokens
		}
		completion = u.CompletionTokens
		if completion == 0 {
			completion = u.OutputTokens
		}
	}
	cost := bodyCost(r)

	if (prompt == 0 && completion == 0) || cost == 0 {
		if raw := hdr.Get(usageHeader); raw != "" {
			var h headerUsage
			if err := json.Unmarshal([]byte(raw), &h); err == nil {
				if prompt == 0 {
					prompt = h.PromptTokens
				}
				if completion == 0 {
					completion = h.CompletionTokens
				}
				if cost == 0 {
					// A zero header cost counts as missing; total_cost is
					// the fallback.
					switch {
					case h.Cost != nil && *h.Cost != 0:
						cost = *h.Cost
					case h.TotalCost != nil:
						cost = *h.TotalCost
					}
				}
			}
		}
		if cost == 0 {
			if raw := hdr.Get(costHeader); raw != "" {
				if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
					cost = v
				}
			}
		}
	}

	return llm.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Cost:             cost,
	}
}
