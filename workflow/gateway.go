package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/core/response"
	"github.com/tailored-agentic-units/chatgraph/tools"
)

// SessionConfig scopes a gateway call to one conversation thread.
type SessionConfig struct {
	ThreadID string
}

// ModelGateway produces agent responses. Both calls receive the full request
// (leading instruction message included) and the tools the agent may call.
type ModelGateway interface {
	// Invoke returns one complete agent message.
	Invoke(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, cfg SessionConfig) (protocol.Message, error)

	// Stream returns the response incrementally. The sequence is finite and
	// not restartable; an error ends it.
	Stream(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, cfg SessionConfig) iter.Seq2[response.Chunk, error]
}

// ToolExecutor lists and runs the tools available to the agent.
// *tools.Registry satisfies it.
type ToolExecutor interface {
	List() []protocol.Tool
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

type noTools struct{}

func (noTools) List() []protocol.Tool { return nil }

func (noTools) Execute(_ context.Context, name string, _ json.RawMessage) (tools.Result, error) {
	return tools.Result{}, fmt.Errorf("%w: %s", tools.ErrNotFound, name)
}
