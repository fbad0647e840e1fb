// Package tools holds the functions the agent may call and dispatches tool
// calls to them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// Handler is the function signature for tool implementations.
// Handlers receive the request context and JSON-encoded arguments from the LLM.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the tool execution output that feeds back into the next LLM turn.
// IsError signals to the LLM that the tool invocation failed.
type Result struct {
	Content string
	IsError bool
}

type entry struct {
	tool    protocol.Tool
	handler Handler
}

// Registry maps tool names to handlers. Safe for concurrent use.
type Registry struct {
	entries map[string]entry
	mu      sync.RWMutex
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds a new tool.
// Returns ErrAlreadyExists if a tool with the same name is already registered.
// Use Replace to update an existing tool's handler.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Replace updates an existing tool's definition and handler.
// Returns ErrNotFound if no tool with the given name is registered.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns the definitions of all registered tools ordered by name.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]protocol.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}
	slices.SortFunc(tools, func(a, b protocol.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tools
}

// Execute dispatches a tool call to the registered handler by name.
// Returns ErrNotFound if the tool is not registered and ErrInvalidArguments
// if args is not a JSON document. Empty args are passed as "{}".
// Handler errors are wrapped with the tool name for context.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidArguments, name)
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
	}

	return result, nil
}
