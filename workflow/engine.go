// Package workflow routes one conversation turn through the agent graph:
//
//	dispatch → agent ─┬─ tools → agent      (latest agent message requests tools)
//	                  ├─ compact            (log longer than the threshold)
//	                  └─ done
//
// Model gateway calls are serialized process-wide by the Agent Lock. A turn
// that exits through compact schedules a background compaction pass and
// returns without waiting for it.
package workflow

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/tailored-agentic-units/chatgraph/compaction"
	"github.com/tailored-agentic-units/chatgraph/graph"
	"github.com/tailored-agentic-units/chatgraph/lock"
	"github.com/tailored-agentic-units/chatgraph/observability"
	"github.com/tailored-agentic-units/chatgraph/session"
	"github.com/tailored-agentic-units/chatgraph/stream"
)

// TextChunk is one increment of the answer delivered to the caller. Text is
// the aggregated display text including Token.
type TextChunk struct {
	Token string
	Text  string
}

// Option configures an Engine before its graph is built.
type Option func(*Engine)

// WithLocks overrides the process-wide lock set. Engines serving the same
// process must share one set.
func WithLocks(locks lock.Set) Option {
	return func(e *Engine) { e.locks = locks }
}

// WithSpawner overrides the goroutine spawner used for compaction.
func WithSpawner(s Spawner) Option {
	return func(e *Engine) { e.spawner = s }
}

// WithObserver overrides the no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine runs conversation turns.
type Engine struct {
	cfg       Config
	gateway   ModelGateway
	tools     ToolExecutor
	locks     lock.Set
	spawner   Spawner
	observer  observability.Observer
	compactor *compaction.Compactor
	graph     *graph.Graph[turn]
}

// New creates an Engine. A nil executor offers no tools; a nil summarizer
// disables compaction.
func New(cfg Config, gateway ModelGateway, executor ToolExecutor, summarizer compaction.Summarizer, opts ...Option) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("model gateway is required")
	}
	if executor == nil {
		executor = noTools{}
	}

	e := &Engine{
		cfg:      cfg,
		gateway:  gateway,
		tools:    executor,
		locks:    lock.NewSet(),
		spawner:  &GoSpawner{},
		observer: observability.NoOpObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}
	e.observer = observability.OrNoOp(e.observer)

	if summarizer != nil {
		e.compactor = compaction.New(summarizer, e.locks.Summary, cfg.Compaction, e.observer)
	}

	g, err := e.build()
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow graph: %w", err)
	}
	e.graph = g

	return e, nil
}

func (e *Engine) build() (*graph.Graph[turn], error) {
	gcfg := graph.DefaultConfig("workflow")
	gcfg.MaxIterations = e.cfg.graphBudget()
	g := graph.New[turn](gcfg, e.observer)

	nodes := []struct {
		name string
		fn   graph.NodeFunc[turn]
	}{
		{NodeDispatch, e.dispatch},
		{NodeAgent, e.agent},
		{NodeTools, e.invokeTools},
		{NodeCompact, e.compact},
		{NodeDone, e.done},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.name, n.fn); err != nil {
			return nil, err
		}
	}

	steps := []error{
		g.AddEdge(NodeDispatch, NodeAgent),
		g.AddConditionalEdge(NodeAgent, NodeTools, "tool_calls", hasToolCalls),
		g.AddConditionalEdge(NodeAgent, NodeCompact, "over_threshold", exceeds(e.cfg.CompactionThreshold)),
		g.AddEdge(NodeAgent, NodeDone),
		g.AddEdge(NodeTools, NodeAgent),
		g.SetEntryPoint(NodeDispatch),
		g.SetExitPoint(NodeCompact),
		g.SetExitPoint(NodeDone),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}
	return g, g.Validate()
}

// Advance runs one turn of s with the user's input and yields the answer as
// it is displayed. The sequence is lazy: the turn starts on the first pull.
// It is not restartable; each iteration runs a new turn.
//
// The terminal answer is yielded only after the turn has been committed to
// s, so a consumer that stops early never leaves s half-updated. On failure
// a single error is yielded and no answer text is delivered; messages
// appended by steps that completed before the failure remain in s.
func (e *Engine) Advance(ctx context.Context, s *session.Session, input string) iter.Seq2[TextChunk, error] {
	return func(yield func(TextChunk, error) bool) {
		final, err := e.run(ctx, s, input)
		if err != nil {
			yield(TextChunk{}, err)
			return
		}

		if final.compact {
			e.scheduleCompaction(ctx, s)
		}

		var agg stream.Aggregator
		for _, token := range final.answer {
			if !yield(TextChunk{Token: token, Text: agg.Update(token)}, nil) {
				return
			}
		}
	}
}

func (e *Engine) run(ctx context.Context, s *session.Session, input string) (turn, error) {
	if strings.TrimSpace(input) == "" {
		return turn{}, ErrEmptyInput
	}

	if err := s.Acquire(ctx); err != nil {
		return turn{}, fmt.Errorf("acquire session %s: %w", s.ID(), err)
	}
	defer s.Release()

	snapshot := s.Snapshot()
	initial := turn{
		threadID: s.ID(),
		summary:  snapshot.Summary,
		input:    input,
		messages: snapshot.Messages,
	}

	observability.Emit(ctx, e.observer, EventTurnStart, observability.LevelInfo, "workflow", map[string]any{
		"thread_id": s.ID(),
		"messages":  len(snapshot.Messages),
	})

	start := time.Now()
	final, err := e.graph.Execute(ctx, initial)

	added := final.messages[min(len(snapshot.Messages), len(final.messages)):]
	if err != nil && len(added) > 1 {
		// A failed turn keeps only the user message so no tool call is left
		// without its results.
		added = added[:1]
	}
	if len(added) > 0 {
		s.Append(added...)
	}
	if perr := s.Persist(context.WithoutCancel(ctx)); perr != nil {
		observability.Emit(ctx, e.observer, EventPersistFailed, observability.LevelError, "workflow", map[string]any{
			"thread_id": s.ID(),
			"error":     perr.Error(),
		})
		if err == nil {
			err = fmt.Errorf("persist session %s: %w", s.ID(), perr)
		}
	}

	if err != nil {
		observability.Emit(ctx, e.observer, EventTurnFailed, observability.LevelError, "workflow", map[string]any{
			"thread_id": s.ID(),
			"error":     err.Error(),
			observability.DurationKey: observability.Since(start),
		})
		return turn{}, err
	}

	observability.Emit(ctx, e.observer, EventTurnComplete, observability.LevelInfo, "workflow", map[string]any{
		"thread_id": s.ID(),
		"messages":  len(final.messages),
		"compact":   final.compact,
		observability.DurationKey: observability.Since(start),
	})
	return final, nil
}

// scheduleCompaction hands a compaction pass to the spawner unless one is
// already in flight for s. The pass runs detached from ctx's cancellation
// and its failures never reach the caller.
func (e *Engine) scheduleCompaction(ctx context.Context, s *session.Session) {
	if e.compactor == nil {
		return
	}
	if !s.TryBeginCompaction() {
		observability.Emit(ctx, e.observer, EventCompactionInFlight, observability.LevelVerbose, "workflow", map[string]any{
			"thread_id": s.ID(),
		})
		return
	}

	observability.Emit(ctx, e.observer, EventCompactionScheduled, observability.LevelInfo, "workflow", map[string]any{
		"thread_id": s.ID(),
		"messages":  s.Len(),
	})

	detached := context.WithoutCancel(ctx)
	e.spawner.Spawn(func() {
		defer s.EndCompaction()
		// failures are reported through the compactor's events
		_ = e.compactor.Compact(detached, s)
	})
}

// Wait blocks until background compaction started by this engine finishes,
// when the spawner supports it.
func (e *Engine) Wait() {
	if w, ok := e.spawner.(interface{ Wait() }); ok {
		w.Wait()
	}
}
