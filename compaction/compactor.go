package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/chatgraph/lock"
	"github.com/tailored-agentic-units/chatgraph/observability"
	"github.com/tailored-agentic-units/chatgraph/session"
)

// Compactor runs compaction passes against sessions.
type Compactor struct {
	summarizer  Summarizer
	summaryLock lock.Lock
	cfg         Config
	observer    observability.Observer
}

// New creates a Compactor. summaryLock is shared by every Compactor in the
// process so that at most one Summarizer call runs at a time.
func New(summarizer Summarizer, summaryLock lock.Lock, cfg Config, observer observability.Observer) *Compactor {
	if summaryLock == nil {
		summaryLock = lock.Noop{}
	}
	return &Compactor{
		summarizer:  summarizer,
		summaryLock: summaryLock,
		cfg:         cfg,
		observer:    observability.OrNoOp(observer),
	}
}

// Compact runs one pass over s. It returns ErrNothingToCompact when the plan
// is empty and wraps ErrSummarizationFailure when the Summarizer fails; in
// both cases s is unchanged.
func (c *Compactor) Compact(ctx context.Context, s *session.Session) error {
	snapshot := s.Snapshot()
	plan := NewPlan(snapshot.Messages, snapshot.Summary, c.cfg.KeepMessages)

	if plan.Empty() {
		observability.Emit(ctx, c.observer, EventSkipped, observability.LevelVerbose, "compaction", map[string]any{
			"thread_id": s.ID(),
			"messages":  len(snapshot.Messages),
		})
		return ErrNothingToCompact
	}

	observability.Emit(ctx, c.observer, EventStart, observability.LevelInfo, "compaction", map[string]any{
		"thread_id": s.ID(),
		"input":     len(plan.Input),
		"remove":    len(plan.Remove),
	})

	start := time.Now()
	summary, err := c.summarize(ctx, plan)
	if err != nil {
		observability.Emit(ctx, c.observer, EventFailed, observability.LevelWarning, "compaction", map[string]any{
			"thread_id": s.ID(),
			"error":     err.Error(),
			observability.DurationKey: observability.Since(start),
		})
		return fmt.Errorf("%w: %w", ErrSummarizationFailure, err)
	}

	if err := s.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire session %s: %w", s.ID(), err)
	}
	if s.Closed() {
		s.Release()
		observability.Emit(ctx, c.observer, EventSkipped, observability.LevelVerbose, "compaction", map[string]any{
			"thread_id": s.ID(),
			"reason":    "evicted",
		})
		return nil
	}
	removed := s.ApplyCompaction(plan.Remove, summary)
	err = s.Persist(ctx, removed...)
	s.Release()

	if err != nil {
		observability.Emit(ctx, c.observer, EventFailed, observability.LevelError, "compaction", map[string]any{
			"thread_id": s.ID(),
			"error":     err.Error(),
			"removed":   len(removed),
			observability.DurationKey: observability.Since(start),
		})
		return fmt.Errorf("persist compaction of %s: %w", s.ID(), err)
	}

	observability.Emit(ctx, c.observer, EventComplete, observability.LevelInfo, "compaction", map[string]any{
		"thread_id": s.ID(),
		"removed":   len(removed),
		observability.DurationKey: observability.Since(start),
	})
	return nil
}

func (c *Compactor) summarize(ctx context.Context, plan Plan) (string, error) {
	if err := c.summaryLock.Acquire(ctx); err != nil {
		return "", err
	}
	defer c.summaryLock.Release()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	return c.summarizer.Summarize(ctx, plan.Input, plan.Prior)
}
