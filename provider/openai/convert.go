package openai

import (
	"fmt"
	"slices"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/core/response"
)

func convertMessages(messages []protocol.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		switch msg.Role {
		case protocol.RoleAssistant:
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		case protocol.RoleTool:
			m.ToolCallID = msg.ToolCallID
		}
		out = append(out, m)
	}
	return out
}

func convertTools(tools []protocol.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func convertUsage(u openai.Usage) *response.TokenUsage {
	return &response.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// toolCallAccumulator joins streamed tool-call fragments. Fragments carry an
// index; the id and name arrive on the first fragment of a call and the
// arguments are split across the rest.
type toolCallAccumulator struct {
	byIndex map[int]*protocol.ToolCall
	order   []int
}

func (a *toolCallAccumulator) add(tc openai.ToolCall) {
	if a.byIndex == nil {
		a.byIndex = make(map[int]*protocol.ToolCall)
	}

	var idx int
	switch {
	case tc.Index != nil:
		idx = *tc.Index
	case tc.ID != "":
		idx = len(a.order)
	case len(a.order) > 0:
		idx = a.order[len(a.order)-1]
	}

	call, ok := a.byIndex[idx]
	if !ok {
		call = &protocol.ToolCall{}
		a.byIndex[idx] = call
		a.order = append(a.order, idx)
	}

	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Function.Name != "" {
		call.Name = tc.Function.Name
	}
	call.Arguments += tc.Function.Arguments
}

func (a *toolCallAccumulator) calls() []protocol.ToolCall {
	if len(a.order) == 0 {
		return nil
	}

	indexes := slices.Sorted(slices.Values(a.order))
	out := make([]protocol.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		call := *a.byIndex[idx]
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", idx)
		}
		out = append(out, call)
	}
	return out
}
