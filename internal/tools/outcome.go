package tools

import (
	"encoding/json"
	"fmt"
)

// Outcome is the uniform envelope returned by every tool execution. It
// serializes to {"success": true, "result": ...} on success,
// {"success": false, "error": ...} on failure, and {"error": "Unknown
// tool: <name>"} when the tool name is not registered, so the model always
// receives well-formed JSON.
type Outcome struct {
	Success bool
	Result  any
	Error   string
	Unknown bool
}

// OK wraps a successful tool result.
func OK(result any) Outcome {
	return Outcome{Success: true, Result: result}
}

// Fail wraps a tool execution failure.
func Fail(err error) Outcome {
	return Outcome{Error: err.Error()}
}

// UnknownToolOutcome reports a dispatch to an unregistered tool name.
func UnknownToolOutcome(name string) Outcome {
	return Outcome{Error: fmt.Sprintf("Unknown tool: %s", name), Unknown: true}
}

// MarshalJSON implements json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Unknown {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{o.Error})
	}
	if o.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Result  any  `json:"result"`
		}{true, o.Result})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, o.Error})
}
