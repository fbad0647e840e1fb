package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/core/response"
	"github.com/tailored-agentic-units/chatgraph/observability"
	"github.com/tailored-agentic-units/chatgraph/tools"
)

func (e *Engine) dispatch(_ context.Context, t turn) (turn, error) {
	t.messages = append(slices.Clip(t.messages), protocol.NewUserMessage(t.input))
	return t, nil
}

func (e *Engine) agent(ctx context.Context, t turn) (turn, error) {
	collected, err := e.callGateway(ctx, t.threadID, e.request(t))
	if err != nil {
		return t, err
	}

	msg := collected.Message
	t.messages = append(slices.Clip(t.messages), msg)
	t.answer = nil
	if !msg.HasToolCalls() {
		t.answer = collected.Tokens
	}

	data := map[string]any{
		"thread_id":  t.threadID,
		"tool_calls": len(msg.ToolCalls),
		"length":     len(msg.Content),
	}
	if u := collected.Usage; u != nil {
		data[observability.PromptTokensKey] = u.PromptTokens
		data[observability.CompletionTokensKey] = u.CompletionTokens
	}
	observability.Emit(ctx, e.observer, EventAgentResponse, observability.LevelVerbose, "workflow", data)
	return t, nil
}

// request builds the gateway input: the instruction message, extended with
// the running summary, followed by the full message log.
func (e *Engine) request(t turn) []protocol.Message {
	instruction := e.cfg.SystemPrompt
	if t.summary != "" {
		instruction = strings.TrimSpace(instruction + "\n\nSummary of the conversation so far: " + t.summary)
	}

	messages := make([]protocol.Message, 0, len(t.messages)+1)
	if instruction != "" {
		messages = append(messages, protocol.NewMessage(protocol.RoleSystem, instruction))
	}
	return append(messages, t.messages...)
}

// callGateway holds the Agent Lock for exactly one gateway call. The response
// is drained before the lock is released so that no caller-side consumer can
// extend the critical section.
func (e *Engine) callGateway(ctx context.Context, threadID string, messages []protocol.Message) (response.Collected, error) {
	wait := time.Now()
	if err := e.locks.Agent.Acquire(ctx); err != nil {
		return response.Collected{}, fmt.Errorf("%w: acquire agent lock: %w", ErrGatewayFailure, err)
	}
	defer e.locks.Agent.Release()

	start := time.Now()
	observability.Emit(ctx, e.observer, EventAgentCall, observability.LevelVerbose, "workflow", map[string]any{
		"thread_id":         threadID,
		"messages":          len(messages),
		"lock_wait_seconds": start.Sub(wait).Seconds(),
	})

	if e.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.GatewayTimeout)
		defer cancel()
	}

	cfg := SessionConfig{ThreadID: threadID}
	available := e.tools.List()

	var seq iter.Seq2[response.Chunk, error]
	if e.cfg.DisableStreaming {
		msg, err := e.gateway.Invoke(ctx, messages, available, cfg)
		if err != nil {
			return response.Collected{}, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
		}
		seq = response.Single(msg)
	} else {
		seq = e.gateway.Stream(ctx, messages, available, cfg)
	}

	collected, err := response.Collect(seq)
	if err != nil {
		return response.Collected{}, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
	}
	return collected, nil
}

// invokeTools runs the pending calls of the latest agent message in request
// order. Results are appended only when every call succeeds.
func (e *Engine) invokeTools(ctx context.Context, t turn) (turn, error) {
	msg, _ := t.last()
	resolved := protocol.ResolvedToolCalls(t.messages)

	var results []protocol.Message
	for _, call := range msg.ToolCalls {
		if _, done := resolved[call.ID]; done {
			continue
		}
		result, err := e.execute(ctx, t.threadID, call)
		if err != nil {
			return t, err
		}
		results = append(results, result)
	}

	t.messages = append(slices.Clip(t.messages), results...)
	return t, nil
}

func (e *Engine) execute(ctx context.Context, threadID string, call protocol.ToolCall) (protocol.Message, error) {
	args := json.RawMessage(call.Arguments)
	if len(args) > 0 && !json.Valid(args) {
		return protocol.Message{}, fmt.Errorf("%w: %w: %s: arguments are not valid JSON", ErrToolFailure, ErrMalformedToolCall, call.Name)
	}

	observability.Emit(ctx, e.observer, EventToolCall, observability.LevelVerbose, "workflow", map[string]any{
		"thread_id": threadID,
		"name":      call.Name,
		"call_id":   call.ID,
	})

	if e.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ToolTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.tools.Execute(ctx, call.Name, args)

	observability.Emit(ctx, e.observer, EventToolComplete, observability.LevelVerbose, "workflow", map[string]any{
		"thread_id": threadID,
		"name":      call.Name,
		"error":     err != nil || result.IsError,
		observability.DurationKey: observability.Since(start),
	})

	switch {
	case errors.Is(err, tools.ErrNotFound), errors.Is(err, tools.ErrInvalidArguments):
		return protocol.Message{}, fmt.Errorf("%w: %w: %w", ErrToolFailure, ErrMalformedToolCall, err)
	case err != nil:
		return protocol.Message{}, fmt.Errorf("%w: %s: %w", ErrToolFailure, call.Name, err)
	}

	content := result.Content
	if result.IsError {
		content = "error: " + content
	}
	return protocol.NewToolResult(call.ID, content), nil
}

func (e *Engine) compact(_ context.Context, t turn) (turn, error) {
	t.compact = true
	return t, nil
}

func (e *Engine) done(_ context.Context, t turn) (turn, error) {
	return t, nil
}
