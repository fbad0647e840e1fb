package server

import "github.com/tailored-agentic-units/chatgraph/observability"

const (
	EventStarted        observability.EventType = "server.started"
	EventStopped        observability.EventType = "server.stopped"
	EventSubmitStart    observability.EventType = "server.submit.start"
	EventSubmitComplete observability.EventType = "server.submit.complete"
	EventSubmitFailed   observability.EventType = "server.submit.failed"
)
