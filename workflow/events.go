package workflow

import "github.com/tailored-agentic-units/chatgraph/observability"

// Workflow event types emitted during a turn.
const (
	EventTurnStart           observability.EventType = "workflow.turn.start"
	EventTurnComplete        observability.EventType = "workflow.turn.complete"
	EventTurnFailed          observability.EventType = "workflow.turn.failed"
	EventAgentCall           observability.EventType = "workflow.agent.call"
	EventAgentResponse       observability.EventType = "workflow.agent.response"
	EventToolCall            observability.EventType = "workflow.tool.call"
	EventToolComplete        observability.EventType = "workflow.tool.complete"
	EventCompactionScheduled observability.EventType = "workflow.compaction.scheduled"
	EventCompactionInFlight  observability.EventType = "workflow.compaction.in_flight"
	EventPersistFailed       observability.EventType = "workflow.persist.failed"
)
