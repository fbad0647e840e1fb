package session

import "github.com/tailored-agentic-units/chatgraph/observability"

const (
	EventCreated  observability.EventType = "session.created"
	EventRestored observability.EventType = "session.restored"
	EventEvicted  observability.EventType = "session.evicted"
)
