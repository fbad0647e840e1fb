// Package server exposes the kernel over HTTP. Turns are submitted through a
// Connect server-streaming RPC whose messages are protobuf Structs:
//
//	request:  {"thread_id": "...", "text": "..."}
//	response: {"token": "...", "text": "..."}   (one per displayed update)
package server

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/chatgraph/observability"
	"github.com/tailored-agentic-units/chatgraph/session"
	"github.com/tailored-agentic-units/chatgraph/workflow"
)

// SubmitProcedure is the Connect procedure path of the Submit RPC.
const SubmitProcedure = "/chatgraph.v1.ChatService/Submit"

// Submitter runs one turn of a thread. Both the kernel and Client satisfy it.
type Submitter interface {
	Submit(ctx context.Context, threadID, text string) iter.Seq2[workflow.TextChunk, error]
}

type submitHandler struct {
	submitter Submitter
	observer  observability.Observer
}

// NewSubmitHandler returns the procedure path and handler of the Submit RPC.
func NewSubmitHandler(submitter Submitter, observer observability.Observer, opts ...connect.HandlerOption) (string, http.Handler) {
	h := &submitHandler{
		submitter: submitter,
		observer:  observability.OrNoOp(observer),
	}
	return SubmitProcedure, connect.NewServerStreamHandler(SubmitProcedure, h.submit, opts...)
}

func (h *submitHandler) submit(ctx context.Context, req *connect.Request[structpb.Struct], stream *connect.ServerStream[structpb.Struct]) error {
	fields := req.Msg.GetFields()
	threadID := fields["thread_id"].GetStringValue()
	text := fields["text"].GetStringValue()

	if threadID == "" {
		return connect.NewError(connect.CodeInvalidArgument, session.ErrEmptyThreadID)
	}

	start := time.Now()
	observability.Emit(ctx, h.observer, EventSubmitStart, observability.LevelVerbose, "server", map[string]any{
		"thread_id": threadID,
		"peer":      req.Peer().Addr,
	})

	chunks := 0
	for chunk, err := range h.submitter.Submit(ctx, threadID, text) {
		if err != nil {
			observability.Emit(ctx, h.observer, EventSubmitFailed, observability.LevelWarning, "server", map[string]any{
				"thread_id": threadID,
				"error":     err.Error(),
				observability.DurationKey: observability.Since(start),
			})
			return connectError(err)
		}

		msg, err := structpb.NewStruct(map[string]any{
			"token": chunk.Token,
			"text":  chunk.Text,
		})
		if err != nil {
			return connect.NewError(connect.CodeInternal, err)
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
		chunks++
	}

	observability.Emit(ctx, h.observer, EventSubmitComplete, observability.LevelInfo, "server", map[string]any{
		"thread_id": threadID,
		"chunks":    chunks,
		observability.DurationKey: observability.Since(start),
	})
	return nil
}

// connectError maps a turn failure onto a Connect status code.
func connectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, workflow.ErrEmptyInput),
		errors.Is(err, session.ErrEmptyThreadID),
		errors.Is(err, workflow.ErrMalformedToolCall):
		code = connect.CodeInvalidArgument
	case errors.Is(err, workflow.ErrGatewayFailure):
		code = connect.CodeUnavailable
	case errors.Is(err, workflow.ErrMaxIterations):
		code = connect.CodeResourceExhausted
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
