package session

import (
	"github.com/user/tracegen/internal/tools"
	"github.com/user/tracegen/pkg/llm"
)

// Result is the terminal artifact of one session. It is constructed once at
// loop exit and handed off immutably; a fatal model failure sets Error and
// leaves Completed false, while a benign early stop leaves both unset.
type Result struct {
	SessionID     string           `json:"session_id"`
	Prompt        string           `json:"prompt"`
	Error         string           `json:"error,omitempty"`
	Turns         int              `json:"turns"`
	Conversation  []llm.Message    `json:"conversation"`
	ToolCalls     []ToolCallRecord `json:"tool_calls"`
	FinalResponse *string          `json:"final_response"`
	Completed     bool             `json:"completed"`
	Usage         Totals           `json:"usage"`
}

// ToolCallRecord is one audit entry in the session's tool-invocation log.
// Turn is 1-indexed. The list is append-only.
type ToolCallRecord struct {
	Turn      int            `json:"turn"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    tools.Outcome  `json:"result"`
}

// Totals accumulates token and cost counters across the turns of one
// session. Totals are owned by a single session and reset per session.
type Totals struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// Add folds one turn's usage into the running totals.
func (t *Totals) Add(u llm.Usage) {
	t.PromptTokens += u.PromptTokens
	t.CompletionTokens += u.CompletionTokens
	t.TotalTokens = t.PromptTokens + t.CompletionTokens
	t.Cost += u.Cost
}
