package graph

import "github.com/tailored-agentic-units/chatgraph/observability"

const (
	EventGraphStart     observability.EventType = "graph.start"
	EventGraphComplete  observability.EventType = "graph.complete"
	EventNodeStart      observability.EventType = "graph.node.start"
	EventNodeComplete   observability.EventType = "graph.node.complete"
	EventEdgeTransition observability.EventType = "graph.edge.transition"
	EventCycleDetected  observability.EventType = "graph.cycle.detected"
)
