package prompts

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for prompt filtering and reporting.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a token counter for the given model, falling back to
// the cl100k_base encoding for unknown models.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Counter{enc: enc}, nil
}

// Count returns the token count for a string.
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
