package server

import (
	"context"
	"iter"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/chatgraph/workflow"
)

// Client submits turns to a remote server.
type Client struct {
	submit *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		submit: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			strings.TrimRight(baseURL, "/")+SubmitProcedure,
			opts...,
		),
	}
}

// Submit runs one turn remotely and yields the displayed updates. A failed
// turn yields a single *connect.Error.
func (c *Client) Submit(ctx context.Context, threadID, text string) iter.Seq2[workflow.TextChunk, error] {
	return func(yield func(workflow.TextChunk, error) bool) {
		req, err := structpb.NewStruct(map[string]any{
			"thread_id": threadID,
			"text":      text,
		})
		if err != nil {
			yield(workflow.TextChunk{}, err)
			return
		}

		stream, err := c.submit.CallServerStream(ctx, connect.NewRequest(req))
		if err != nil {
			yield(workflow.TextChunk{}, err)
			return
		}
		defer stream.Close()

		for stream.Receive() {
			fields := stream.Msg().GetFields()
			chunk := workflow.TextChunk{
				Token: fields["token"].GetStringValue(),
				Text:  fields["text"].GetStringValue(),
			}
			if !yield(chunk, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(workflow.TextChunk{}, err)
		}
	}
}
