package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/chatgraph/observability"
)

// Graph is a workflow of named nodes connected by ordered edges. Build it
// once, then Execute it concurrently: execution never mutates the graph.
type Graph[S any] struct {
	name          string
	nodes         map[string]Node[S]
	edges         map[string][]Edge[S]
	entryPoint    string
	exitPoints    map[string]bool
	maxIterations int
	observer      observability.Observer
}

// New creates an empty graph. A nil observer discards events.
func New[S any](cfg Config, observer observability.Observer) *Graph[S] {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultConfig(cfg.Name).MaxIterations
	}

	return &Graph[S]{
		name:          cfg.Name,
		nodes:         make(map[string]Node[S]),
		edges:         make(map[string][]Edge[S]),
		exitPoints:    make(map[string]bool),
		maxIterations: maxIterations,
		observer:      observability.OrNoOp(observer),
	}
}

// Name returns the graph identifier.
func (g *Graph[S]) Name() string {
	return g.name
}

// AddNode registers a node. Names must be unique and non-empty.
func (g *Graph[S]) AddNode(name string, node Node[S]) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already exists", name)
	}

	g.nodes[name] = node
	return nil
}

// AddEdge adds an unconditional transition.
func (g *Graph[S]) AddEdge(from, to string) error {
	return g.AddConditionalEdge(from, to, "", nil)
}

// AddConditionalEdge adds a transition taken when predicate holds. The name
// labels the predicate in events.
func (g *Graph[S]) AddConditionalEdge(from, to, name string, predicate Predicate[S]) error {
	if from == "" {
		return fmt.Errorf("from node cannot be empty")
	}
	if to == "" {
		return fmt.Errorf("to node cannot be empty")
	}
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("from node %s does not exist", from)
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("to node %s does not exist", to)
	}

	g.edges[from] = append(g.edges[from], Edge[S]{
		From:      from,
		To:        to,
		Name:      name,
		Predicate: predicate,
	})
	return nil
}

// SetEntryPoint sets the first node of every run. It can be set once.
func (g *Graph[S]) SetEntryPoint(node string) error {
	if node == "" {
		return fmt.Errorf("entry point cannot be empty")
	}
	if g.entryPoint != "" {
		return fmt.Errorf("entry point already set to %s", g.entryPoint)
	}
	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("entry point node %s does not exist", node)
	}

	g.entryPoint = node
	return nil
}

// SetExitPoint marks a terminal node. Several exit points are allowed.
func (g *Graph[S]) SetExitPoint(node string) error {
	if node == "" {
		return fmt.Errorf("exit point cannot be empty")
	}
	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("exit point node %s does not exist", node)
	}

	g.exitPoints[node] = true
	return nil
}

// Validate checks that the graph has nodes, an entry point and at least one
// exit point.
func (g *Graph[S]) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("graph has no nodes")
	}
	if g.entryPoint == "" {
		return fmt.Errorf("entry point not set")
	}
	if len(g.exitPoints) == 0 {
		return fmt.Errorf("no exit points set")
	}
	return nil
}

// Execute runs the graph from the entry point until an exit point completes.
// On failure the returned value is the input of the failing node and the
// error is an *ExecutionError.
func (g *Graph[S]) Execute(ctx context.Context, initial S) (S, error) {
	if err := g.Validate(); err != nil {
		return initial, fmt.Errorf("graph validation failed: %w", err)
	}

	observability.Emit(ctx, g.observer, EventGraphStart, observability.LevelVerbose, g.name, map[string]any{
		"entry_point": g.entryPoint,
	})

	current := g.entryPoint
	state := initial
	visited := make(map[string]int)
	path := make([]string, 0, len(g.nodes))

	for iterations := 1; ; iterations++ {
		if err := ctx.Err(); err != nil {
			return state, &ExecutionError{Node: current, Path: path, Err: fmt.Errorf("execution cancelled: %w", err)}
		}

		if iterations > g.maxIterations {
			return state, &ExecutionError{
				Node: current,
				Path: path,
				Err:  fmt.Errorf("%w (%d)", ErrMaxIterations, g.maxIterations),
			}
		}

		visited[current]++
		path = append(path, current)

		if visited[current] > 1 {
			observability.Emit(ctx, g.observer, EventCycleDetected, observability.LevelVerbose, g.name, map[string]any{
				"node":        current,
				"visit_count": visited[current],
			})
		}

		node := g.nodes[current]

		observability.Emit(ctx, g.observer, EventNodeStart, observability.LevelVerbose, g.name, map[string]any{
			"node":      current,
			"iteration": iterations,
		})

		start := time.Now()
		next, err := node.Execute(ctx, state)

		observability.Emit(ctx, g.observer, EventNodeComplete, observability.LevelVerbose, g.name, map[string]any{
			"node":      current,
			"iteration": iterations,
			"error":     err != nil,
			observability.DurationKey: observability.Since(start),
		})

		if err != nil {
			return state, &ExecutionError{Node: current, Path: path, Err: err}
		}
		state = next

		if g.exitPoints[current] {
			observability.Emit(ctx, g.observer, EventGraphComplete, observability.LevelVerbose, g.name, map[string]any{
				"exit_point": current,
				"iterations": iterations,
			})
			return state, nil
		}

		to, err := g.nextNode(current, state)
		if err != nil {
			return state, &ExecutionError{Node: current, Path: path, Err: err}
		}

		observability.Emit(ctx, g.observer, EventEdgeTransition, observability.LevelVerbose, g.name, map[string]any{
			"from": current,
			"to":   to,
		})

		current = to
	}
}

func (g *Graph[S]) nextNode(from string, state S) (string, error) {
	edges, ok := g.edges[from]
	if !ok {
		return "", fmt.Errorf("node %s has no outgoing edges and is not an exit point", from)
	}

	for _, edge := range edges {
		if edge.Predicate == nil || edge.Predicate(state) {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("no valid transition from node %s", from)
}
