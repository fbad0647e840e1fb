package kernel

import "github.com/tailored-agentic-units/chatgraph/observability"

// Kernel event types.
const (
	EventReady  observability.EventType = "kernel.ready"
	EventSubmit observability.EventType = "kernel.submit"
	EventClosed observability.EventType = "kernel.closed"
)
