package workflow

import (
	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/graph"
)

// Node names of the turn graph.
const (
	NodeDispatch = "dispatch"
	NodeAgent    = "agent"
	NodeTools    = "tools"
	NodeCompact  = "compact"
	NodeDone     = "done"
)

// turn is the value threaded through the graph. Nodes never modify the
// backing array of the messages they receive, so the value held by a failed
// node's caller still describes the state before that step.
type turn struct {
	threadID string
	summary  string
	input    string
	messages []protocol.Message

	// answer holds the tokens of the terminal agent response.
	answer []string

	// compact is set when the run exits through the compact node.
	compact bool
}

func (t turn) last() (protocol.Message, bool) {
	if len(t.messages) == 0 {
		return protocol.Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

func hasToolCalls(t turn) bool {
	msg, ok := t.last()
	return ok && msg.HasToolCalls()
}

func exceeds(threshold int) graph.Predicate[turn] {
	return func(t turn) bool {
		return len(t.messages) > threshold
	}
}
