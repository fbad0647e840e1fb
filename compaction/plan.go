// Package compaction bounds a session's message log by folding older
// messages into its running summary.
//
// A pass runs in three steps:
//  1. NewPlan picks the summarization input and the messages to discard from
//     a snapshot of the Turn State.
//  2. The Summarizer condenses the input under the process-wide Summary Lock.
//  3. The result is written back under the session's turn lock, so a turn
//     that started during summarization is never lost.
package compaction

import (
	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// Plan is the outcome of inspecting a Turn State snapshot.
type Plan struct {
	// Input is the eligible prefix: every message before the first agent
	// message that still has an unanswered tool call.
	Input []protocol.Message

	// Prior is the summary the Summarizer extends.
	Prior string

	// Remove holds the ids of messages to discard, in log order.
	Remove []string
}

// NewPlan computes the compaction plan for messages.
//
// All but the last keep messages are discarded, subject to two limits: no
// message at or after the first unresolved agent message is discarded, and
// an agent message is never separated from the tool results that answer it.
// Pending tool calls are therefore identical before and after the pass.
func NewPlan(messages []protocol.Message, summary string, keep int) Plan {
	plan := Plan{Prior: summary}

	prefix := eligiblePrefix(messages)
	plan.Input = protocol.CloneMessages(messages[:prefix])

	boundary := max(min(len(messages)-keep, prefix), 0)
	boundary = keepPairs(messages, boundary)

	for _, msg := range messages[:boundary] {
		plan.Remove = append(plan.Remove, msg.ID)
	}
	return plan
}

// Empty reports whether the pass has nothing to do. An empty plan must not
// reach the Summarizer.
func (p Plan) Empty() bool {
	return len(p.Input) == 0 || len(p.Remove) == 0
}

func eligiblePrefix(messages []protocol.Message) int {
	resolved := protocol.ResolvedToolCalls(messages)
	for i, msg := range messages {
		if protocol.Unresolved(msg, resolved) {
			return i
		}
	}
	return len(messages)
}

// keepPairs lowers boundary until no kept tool result answers a call issued
// by a discarded agent message.
func keepPairs(messages []protocol.Message, boundary int) int {
	issuer := make(map[string]int)
	for i, msg := range messages {
		for _, call := range msg.ToolCalls {
			issuer[call.ID] = i
		}
	}

	for {
		lowered := boundary
		for _, msg := range messages[boundary:] {
			if msg.Role != protocol.RoleTool {
				continue
			}
			if i, ok := issuer[msg.ToolCallID]; ok && i < lowered {
				lowered = i
			}
		}
		if lowered == boundary {
			return boundary
		}
		boundary = lowered
	}
}
