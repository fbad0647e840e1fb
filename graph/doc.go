// Package graph executes small directed workflows: named nodes that transform
// a run value, and edges whose predicates pick the next node.
//
// The run value S is whatever the caller threads through the nodes; for
// chat turns it is per-turn scratch state.
//
//	g := graph.New[*turn](graph.DefaultConfig("chat"), observer)
//	g.AddNode("agent", graph.NodeFunc[*turn](callModel))
//	g.AddNode("tools", graph.NodeFunc[*turn](runTools))
//	g.AddNode("done", graph.NodeFunc[*turn](finish))
//	g.AddConditionalEdge("agent", "tools", "has_tool_calls", hasToolCalls)
//	g.AddEdge("agent", "done")
//	g.AddEdge("tools", "agent")
//	g.SetEntryPoint("agent")
//	g.SetExitPoint("done")
//	result, err := g.Execute(ctx, &turn{})
//
// # Edge evaluation
//
// Edges leaving a node are evaluated in the order they were added; the first
// edge whose predicate returns true (or that has no predicate) wins. Declare
// the most specific edges first and an unconditional fallback last.
//
// # Iteration guard
//
// Config.MaxIterations bounds the number of node executions in one run.
// Exceeding it fails the run with an ExecutionError wrapping
// ErrMaxIterations.
package graph
