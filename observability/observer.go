// Package observability carries the event model every chatgraph subsystem
// reports through. An Event is a structured log record; observers turn it
// into slog output, Prometheus samples, or nothing at all.
//
// Level values follow OpenTelemetry SeverityNumbers so events can be
// forwarded to an OTel collector without translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level to the slog.Level used for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event. Each package declares its own constants
// ("workflow.agent.complete", "graph.node.start", ...).
type EventType string

// DurationKey is the Data key carrying an elapsed time in seconds (float64).
// PrometheusObserver records it in a histogram.
const DurationKey = "duration_seconds"

// Data keys carrying model token counts (int). PrometheusObserver adds them to
// a token counter.
const (
	PromptTokensKey     = "prompt_tokens"
	CompletionTokensKey = "completion_tokens"
)

// Event is emitted by subsystems. Fields map to OTel LogRecord fields:
// Type→EventName, Level→SeverityNumber, Timestamp→Timestamp,
// Source→InstrumentationScope, Data→Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit is a convenience for the common case of building an Event stamped
// with the current time.
func Emit(ctx context.Context, obs Observer, typ EventType, level Level, source string, data map[string]any) {
	obs.OnEvent(ctx, Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}

// Since returns the seconds elapsed since start, suitable for DurationKey.
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
