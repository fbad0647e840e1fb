package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// DatetimeTool describes the datetime builtin.
var DatetimeTool = protocol.Tool{
	Name:        "datetime",
	Description: "Returns the current date and time in RFC3339 format.",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	},
}

// Datetime returns a handler reporting the time given by now. Pass time.Now
// outside of tests.
func Datetime(now func() time.Time) Handler {
	return func(_ context.Context, _ json.RawMessage) (Result, error) {
		return Result{Content: now().Format(time.RFC3339)}, nil
	}
}
