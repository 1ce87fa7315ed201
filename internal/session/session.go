package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/tracegen/internal/tools"
	"github.com/user/tracegen/pkg/llm"
)

// defaultMaxTurns bounds the turn loop when the config leaves MaxTurns unset.
const defaultMaxTurns = 50

// defaultSystemPrompt is used when the agent config does not override it.
const defaultSystemPrompt = "You are a helpful coding assistant with access to file operations and code analysis tools.\n" +
	"Complete the user's task thoroughly and efficiently.\n" +
	"When given a coding task, create working code files in the workspace."

// Config holds the agent-side knobs for one session.
type Config struct {
	SystemPrompt string
	MaxTurns     int
	EnabledTools []string
}

// Session drives one agentic conversation for a single prompt. Turns run
// sequentially: a turn's tool executions complete before the next model
// call, and tool calls within a turn execute in request order.
type Session struct {
	id       string
	prompt   string
	provider llm.Provider
	registry *tools.Registry
	cfg      Config
	log      *slog.Logger
}

// New creates a session. The registry must be rooted at a workspace
// dedicated to this session.
func New(id, prompt string, provider llm.Provider, registry *tools.Registry, cfg Config) *Session {
	return &Session{
		id:       id,
		prompt:   prompt,
		provider: provider,
		registry: registry,
		cfg:      cfg,
		log:      slog.With("session_id", id),
	}
}

// Run executes the turn loop and returns the complete trajectory. It never
// returns an error: fatal API failures are reported in Result.Error
// alongside the partial transcript and accumulated usage.
func (s *Session) Run(ctx context.Context) *Result {
	systemPrompt := s.cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	maxTurns := s.cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: s.prompt},
	}
	defs := tools.Definitions(s.cfg.EnabledTools)

	records := make([]ToolCallRecord, 0)
	var totals Totals
	var final *string
	turn := 0

	for turn < maxTurns {
		turn++

		resp, err := s.provider.Complete(ctx, messages, defs)
		if err != nil {
			s.log.Error("model call failed", "turn", turn, "error", err)
			return &Result{
				SessionID:     s.id,
				Prompt:        s.prompt,
				Error:         fmt.Sprintf("LLM call failed: %v", err),
				Turns:         turn,
				Conversation:  messages,
				ToolCalls:     records,
				FinalResponse: nil,
				Completed:     false,
				Usage:         totals,
			}
		}
		totals.Add(resp.Usage)

		msg := resp.Message
		if msg.Role == "" {
			// Absent reply: soft stop, no final answer.
			break
		}
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			content := msg.Content
			final = &content
			break
		}

		s.log.Debug("executing tool calls", "turn", turn, "count", len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", turn)
			}

			args := map[string]any{}
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}

			outcome := s.registry.Execute(ctx, tc.Function.Name, args)
			records = append(records, ToolCallRecord{
				Turn:      turn,
				Tool:      tc.Function.Name,
				Arguments: args,
				Result:    outcome,
			})

			payload, _ := json.Marshal(outcome)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    string(payload),
				ToolCallID: id,
				Name:       tc.Function.Name,
			})
		}
	}

	return &Result{
		SessionID:     s.id,
		Prompt:        s.prompt,
		Turns:         turn,
		Conversation:  messages,
		ToolCalls:     records,
		FinalResponse: final,
		Completed:     final != nil,
		Usage:         totals,
	}
}
