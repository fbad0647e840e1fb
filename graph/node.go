package graph

import "context"

// Node is one computation step. It receives the run value and returns the
// value handed to the next node.
type Node[S any] interface {
	Execute(ctx context.Context, state S) (S, error)
}

// NodeFunc adapts a function to Node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Execute calls f.
func (f NodeFunc[S]) Execute(ctx context.Context, state S) (S, error) {
	return f(ctx, state)
}
