// Package response defines the incremental results produced by a model
// gateway and folds them into conversation messages.
package response

import (
	"iter"
	"strings"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// Chunk is one increment of a model response. Content arrives as Tokens;
// tool-call requests arrive complete, usually on the final chunk.
type Chunk struct {
	Token        string
	ToolCalls    []protocol.ToolCall
	FinishReason string
	Usage        *TokenUsage
}

// TokenUsage reports token consumption for one model call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Collected is a fully drained response.
type Collected struct {
	Message protocol.Message
	Tokens  []string
	Usage   *TokenUsage
}

// Collect drains seq and assembles the agent message it describes. Tokens
// keeps the content increments in arrival order so callers can replay them.
// On error nothing is assembled.
func Collect(seq iter.Seq2[Chunk, error]) (Collected, error) {
	var (
		content strings.Builder
		tokens  []string
		calls   []protocol.ToolCall
		usage   *TokenUsage
	)

	for chunk, err := range seq {
		if err != nil {
			return Collected{}, err
		}
		if chunk.Token != "" {
			content.WriteString(chunk.Token)
			tokens = append(tokens, chunk.Token)
		}
		calls = append(calls, chunk.ToolCalls...)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	return Collected{
		Message: protocol.NewAgentMessage(content.String(), calls...),
		Tokens:  tokens,
		Usage:   usage,
	}, nil
}

// Single wraps a complete agent message as a one-chunk sequence.
func Single(msg protocol.Message) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		yield(Chunk{Token: msg.Content, ToolCalls: msg.ToolCalls, FinishReason: "stop"}, nil)
	}
}
