package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/user/tracegen/internal/session"
	"github.com/user/tracegen/pkg/llm"
)

// Entry is one serialized dataset record: the formatted conversation plus
// session metadata, the tool definitions the model saw, and usage totals.
type Entry struct {
	Messages []Message      `json:"messages"`
	Metadata Metadata       `json:"metadata"`
	Tools    []llm.Tool     `json:"tools,omitempty"`
	Usage    session.Totals `json:"usage"`
}

// Message is one formatted conversation turn.
type Message struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

// Metadata describes the session that produced an entry.
type Metadata struct {
	SessionID      string `json:"session_id"`
	RunID          string `json:"run_id,omitempty"`
	Prompt         string `json:"prompt"`
	Turns          int    `json:"turns"`
	Completed      bool   `json:"completed"`
	ToolCallsCount int    `json:"tool_calls_count"`
	Error          string `json:"error,omitempty"`
}

// FormatSession converts a session result into a dataset entry. Formatting
// is deterministic: the same result always yields byte-identical JSON.
func FormatSession(res *session.Result) *Entry {
	messages := make([]Message, 0, len(res.Conversation))
	for _, msg := range res.Conversation {
		formatted := Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.Role == "assistant" && len(msg.ToolCalls) > 0 {
			formatted.ToolCalls = msg.ToolCalls
		}
		if msg.Role == "tool" {
			formatted.ToolCallID = msg.ToolCallID
			formatted.Name = msg.Name
		}
		messages = append(messages, formatted)
	}

	return &Entry{
		Messages: messages,
		Metadata: Metadata{
			SessionID:      res.SessionID,
			Prompt:         res.Prompt,
			Turns:          res.Turns,
			Completed:      res.Completed,
			ToolCallsCount: len(res.ToolCalls),
			Error:          res.Error,
		},
		Usage: res.Usage,
	}
}

// Validate checks that an entry has the structure downstream consumers
// require: at least one message, each carrying a role.
func Validate(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("nil entry")
	}
	if len(entry.Messages) == 0 {
		return fmt.Errorf("entry has no messages")
	}
	for i, msg := range entry.Messages {
		if msg.Role == "" {
			return fmt.Errorf("message %d has no role", i)
		}
	}
	return nil
}

// MarshalLine serializes an entry as a single JSONL line without the
// trailing newline.
func MarshalLine(entry *Entry) ([]byte, error) {
	return json.Marshal(entry)
}
