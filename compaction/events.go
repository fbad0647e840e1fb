package compaction

import "github.com/tailored-agentic-units/chatgraph/observability"

const (
	EventStart    observability.EventType = "compaction.start"
	EventSkipped  observability.EventType = "compaction.skipped"
	EventComplete observability.EventType = "compaction.complete"
	EventFailed   observability.EventType = "compaction.failed"
)
