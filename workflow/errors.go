package workflow

import (
	"errors"

	"github.com/tailored-agentic-units/chatgraph/compaction"
	"github.com/tailored-agentic-units/chatgraph/graph"
)

// Turn failure taxonomy. A MalformedToolCall is always reported together
// with ToolFailure, so errors.Is(err, ErrToolFailure) covers both.
var (
	ErrGatewayFailure    = errors.New("model gateway failure")
	ErrToolFailure       = errors.New("tool failure")
	ErrMalformedToolCall = errors.New("malformed tool call")

	// ErrSummarizationFailure never surfaces from Advance; background
	// compaction failures are logged and discarded.
	ErrSummarizationFailure = compaction.ErrSummarizationFailure

	// ErrMaxIterations is returned when a turn exhausts its agent-call budget.
	ErrMaxIterations = graph.ErrMaxIterations

	ErrEmptyInput = errors.New("user input is empty")
)
