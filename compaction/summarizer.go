package compaction

import (
	"context"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// Summarizer condenses a message log. prior is the current running summary,
// empty before the first compaction; the returned text replaces it and is
// expected to carry its content forward.
type Summarizer interface {
	Summarize(ctx context.Context, messages []protocol.Message, prior string) (string, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, messages []protocol.Message, prior string) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, messages []protocol.Message, prior string) (string, error) {
	return f(ctx, messages, prior)
}
