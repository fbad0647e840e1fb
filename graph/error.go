package graph

import (
	"errors"
	"fmt"
)

// ErrMaxIterations is wrapped by the ExecutionError returned when a run
// exceeds Config.MaxIterations.
var ErrMaxIterations = errors.New("max iterations exceeded")

// ExecutionError describes a failed run: the node that failed, the path of
// nodes executed up to and including it, and the underlying error.
type ExecutionError struct {
	Node string
	Path []string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s: %v", e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
