// Package openai adapts an OpenAI-compatible chat completions endpoint to the
// workflow's model gateway and the compactor's summarizer.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/core/response"
	"github.com/tailored-agentic-units/chatgraph/workflow"
)

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("openai: API key is required")

// Gateway calls chat completions. Safe for concurrent use.
type Gateway struct {
	client *openai.Client
	cfg    Config
}

// New creates a Gateway from cfg.
func New(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SummaryPrompt == "" {
		cfg.SummaryPrompt = DefaultSummaryPrompt
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Gateway{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Invoke returns the complete agent response.
func (g *Gateway) Invoke(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, cfg workflow.SessionConfig) (protocol.Message, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(g.cfg.Model, messages, tools, cfg.ThreadID))
	if err != nil {
		return protocol.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return protocol.Message{}, fmt.Errorf("openai: response has no choices")
	}

	msg := resp.Choices[0].Message
	calls := make([]protocol.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, protocol.NewToolCall(tc.ID, tc.Function.Name, tc.Function.Arguments))
	}
	return protocol.NewAgentMessage(msg.Content, calls...), nil
}

// Stream returns content deltas as they arrive. Tool-call fragments are
// accumulated and delivered whole on the final chunk.
func (g *Gateway) Stream(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, cfg workflow.SessionConfig) iter.Seq2[response.Chunk, error] {
	return func(yield func(response.Chunk, error) bool) {
		req := g.request(g.cfg.Model, messages, tools, cfg.ThreadID)
		req.Stream = true
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

		stream, err := g.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield(response.Chunk{}, fmt.Errorf("openai: open stream: %w", err))
			return
		}
		defer stream.Close()

		var (
			acc    toolCallAccumulator
			finish string
			usage  *response.TokenUsage
		)

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(response.Chunk{}, fmt.Errorf("openai: stream: %w", err))
				return
			}

			if resp.Usage != nil {
				usage = convertUsage(*resp.Usage)
			}
			if len(resp.Choices) == 0 {
				continue
			}

			choice := resp.Choices[0]
			for _, tc := range choice.Delta.ToolCalls {
				acc.add(tc)
			}
			if choice.FinishReason != "" {
				finish = string(choice.FinishReason)
			}
			if choice.Delta.Content != "" {
				if !yield(response.Chunk{Token: choice.Delta.Content}, nil) {
					return
				}
			}
		}

		yield(response.Chunk{
			ToolCalls:    acc.calls(),
			FinishReason: finish,
			Usage:        usage,
		}, nil)
	}
}

// Summarize condenses messages, extending prior when it is non-empty. Each
// call is sent under a fresh scratch user id so summarization traffic is not
// attributed to the conversation being summarized.
func (g *Gateway) Summarize(ctx context.Context, messages []protocol.Message, prior string) (string, error) {
	prompt := g.cfg.SummaryPrompt
	if prior != "" {
		prompt += fmt.Sprintf("This is the summary of the conversation to date: %s\n\n"+
			"Extend the summary by taking into account the new messages above:", prior)
	}

	input := make([]protocol.Message, 0, len(messages)+1)
	input = append(input, messages...)
	input = append(input, protocol.NewMessage(protocol.RoleSystem, prompt))

	model := g.cfg.SummaryModel
	if model == "" {
		model = g.cfg.Model
	}

	resp, err := g.client.CreateChatCompletion(ctx, g.request(model, input, nil, uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("openai: summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: summary response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Gateway) request(model string, messages []protocol.Message, tools []protocol.Tool, user string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    convertMessages(messages),
		Temperature: g.cfg.Temperature,
		User:        user,
	}
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}
	return req
}
