package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/tools"
)

func testTool(name string) protocol.Tool {
	return protocol.Tool{
		Name:        name,
		Description: "test tool: " + name,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{"type": "string"},
			},
		},
	}
}

func echoHandler(_ context.Context, args json.RawMessage) (tools.Result, error) {
	return tools.Result{Content: string(args)}, nil
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		tool    protocol.Tool
		wantErr error
	}{
		{
			name: "valid tool",
			tool: testTool("register_valid"),
		},
		{
			name:    "empty name",
			tool:    protocol.Tool{Name: ""},
			wantErr: tools.ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tools.New().Register(tt.tool, echoHandler)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Register() unexpected error: %v", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := tools.New()
	tool := testTool("register_duplicate")

	if err := r.Register(tool, echoHandler); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	err := r.Register(tool, echoHandler)
	if !errors.Is(err, tools.ErrAlreadyExists) {
		t.Errorf("second Register() error = %v, want %v", err, tools.ErrAlreadyExists)
	}
}

func TestRegistries_AreIndependent(t *testing.T) {
	a, b := tools.New(), tools.New()
	if err := a.Register(testTool("only_in_a"), echoHandler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if _, exists := b.Get("only_in_a"); exists {
		t.Error("tool registered in one registry leaked into another")
	}
}

func TestReplace(t *testing.T) {
	r := tools.New()
	tool := testTool("replace_existing")

	if err := r.Register(tool, echoHandler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	replacementHandler := func(_ context.Context, _ json.RawMessage) (tools.Result, error) {
		return tools.Result{Content: "replaced"}, nil
	}

	if err := r.Replace(tool, replacementHandler); err != nil {
		t.Fatalf("Replace() failed: %v", err)
	}

	result, err := r.Execute(context.Background(), "replace_existing", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() after Replace() failed: %v", err)
	}
	if result.Content != "replaced" {
		t.Errorf("Execute() content = %q, want %q", result.Content, "replaced")
	}
}

func TestReplace_Errors(t *testing.T) {
	r := tools.New()

	if err := r.Replace(testTool("replace_nonexistent"), echoHandler); !errors.Is(err, tools.ErrNotFound) {
		t.Errorf("Replace() error = %v, want %v", err, tools.ErrNotFound)
	}
	if err := r.Replace(protocol.Tool{Name: ""}, echoHandler); !errors.Is(err, tools.ErrEmptyName) {
		t.Errorf("Replace() error = %v, want %v", err, tools.ErrEmptyName)
	}
}

func TestGet(t *testing.T) {
	r := tools.New()
	if err := r.Register(testTool("get_existing"), echoHandler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler, exists := r.Get("get_existing")
	if !exists || handler == nil {
		t.Fatal("Get() did not return the registered handler")
	}

	if _, exists := r.Get("get_nonexistent"); exists {
		t.Error("Get() returned exists=true for nonexistent tool")
	}
}

func TestList_SortedByName(t *testing.T) {
	r := tools.New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(testTool(name), echoHandler); err != nil {
			t.Fatalf("Register(%q) failed: %v", name, err)
		}
	}

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}

	if want := []string{"alpha", "mid", "zeta"}; !slices.Equal(names, want) {
		t.Errorf("List() names = %v, want %v", names, want)
	}
}

func TestExecute(t *testing.T) {
	r := tools.New()
	handler := func(_ context.Context, args json.RawMessage) (tools.Result, error) {
		var params struct {
			Input string `json:"input"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Content: "echo: " + params.Input}, nil
	}

	if err := r.Register(testTool("execute_valid"), handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	result, err := r.Execute(context.Background(), "execute_valid", json.RawMessage(`{"input":"hello"}`))
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if result.Content != "echo: hello" {
		t.Errorf("Execute() content = %q, want %q", result.Content, "echo: hello")
	}
	if result.IsError {
		t.Error("Execute() IsError = true, want false")
	}
}

func TestExecute_Arguments(t *testing.T) {
	r := tools.New()
	if err := r.Register(testTool("args"), echoHandler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	tests := []struct {
		name    string
		args    json.RawMessage
		want    string
		wantErr error
	}{
		{name: "empty becomes object", args: nil, want: "{}"},
		{name: "object", args: json.RawMessage(`{"input":"x"}`), want: `{"input":"x"}`},
		{name: "truncated", args: json.RawMessage(`{"input":`), wantErr: tools.ErrInvalidArguments},
		{name: "not json", args: json.RawMessage(`paris`), wantErr: tools.ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Execute(context.Background(), "args", tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if result.Content != tt.want {
				t.Errorf("Execute() content = %q, want %q", result.Content, tt.want)
			}
		})
	}
}

func TestExecute_NotFound(t *testing.T) {
	_, err := tools.New().Execute(context.Background(), "execute_nonexistent", nil)
	if !errors.Is(err, tools.ErrNotFound) {
		t.Errorf("Execute() error = %v, want %v", err, tools.ErrNotFound)
	}
}

func TestExecute_HandlerError(t *testing.T) {
	r := tools.New()
	handlerErr := errors.New("handler failed")
	handler := func(_ context.Context, _ json.RawMessage) (tools.Result, error) {
		return tools.Result{}, handlerErr
	}

	if err := r.Register(testTool("execute_error"), handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	_, err := r.Execute(context.Background(), "execute_error", nil)
	if !errors.Is(err, handlerErr) {
		t.Errorf("Execute() error chain does not contain handler error: %v", err)
	}
}

func TestExecute_RespectsContext(t *testing.T) {
	r := tools.New()
	handler := func(ctx context.Context, _ json.RawMessage) (tools.Result, error) {
		if err := ctx.Err(); err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Content: "ok"}, nil
	}

	if err := r.Register(testTool("execute_ctx"), handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, "execute_ctx", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestDatetime(t *testing.T) {
	r := tools.New()
	fixed := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if err := r.Register(tools.DatetimeTool, tools.Datetime(func() time.Time { return fixed })); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	result, err := r.Execute(context.Background(), "datetime", nil)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if result.Content != "2024-06-01T12:30:00Z" {
		t.Errorf("Execute() content = %q", result.Content)
	}
}
