// Package kernel composes the chat runtime: the model gateway, the tool
// registry, the checkpoint store, sessions, and the workflow engine.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	k, err := kernel.New(&cfg)
//	defer k.Close()
//	for chunk, err := range k.Submit(ctx, "thread-1", "What's new in Go?") {
//		...
//	}
package kernel

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/chatgraph/checkpoint"
	"github.com/tailored-agentic-units/chatgraph/compaction"
	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/lock"
	"github.com/tailored-agentic-units/chatgraph/observability"
	"github.com/tailored-agentic-units/chatgraph/provider/openai"
	"github.com/tailored-agentic-units/chatgraph/session"
	"github.com/tailored-agentic-units/chatgraph/tools"
	"github.com/tailored-agentic-units/chatgraph/tools/search"
	"github.com/tailored-agentic-units/chatgraph/workflow"
)

const metricsNamespace = "chatgraph"

// Option configures a Kernel before config-driven initialization. Any
// subsystem supplied by an option replaces the one New would create.
type Option func(*Kernel)

// WithGateway overrides the config-created model gateway.
func WithGateway(g workflow.ModelGateway) Option {
	return func(k *Kernel) { k.gateway = g }
}

// WithSummarizer overrides the config-created summarizer.
func WithSummarizer(s compaction.Summarizer) Option {
	return func(k *Kernel) {
		k.summarizer = s
		k.summarizerSet = true
	}
}

// WithToolExecutor overrides the config-created tool registry.
func WithToolExecutor(e workflow.ToolExecutor) Option {
	return func(k *Kernel) { k.tools = e }
}

// WithStore overrides the config-created checkpoint store.
func WithStore(s checkpoint.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithLocks overrides the process-wide lock set.
func WithLocks(l lock.Set) Option {
	return func(k *Kernel) { k.locks = &l }
}

// WithSpawner overrides how background compaction is started.
func WithSpawner(s workflow.Spawner) Option {
	return func(k *Kernel) { k.spawner = s }
}

// WithClock overrides the time source of the datetime tool.
func WithClock(now func() time.Time) Option {
	return func(k *Kernel) { k.now = now }
}

// Kernel is the chat runtime serving any number of threads.
type Kernel struct {
	cfg Config

	gateway       workflow.ModelGateway
	summarizer    compaction.Summarizer
	summarizerSet bool
	tools         workflow.ToolExecutor
	store         checkpoint.Store
	observer      observability.Observer
	locks         *lock.Set
	spawner       workflow.Spawner
	now           func() time.Time

	metrics  *prometheus.Registry
	sessions *session.Manager
	engine   *workflow.Engine
}

// New creates a Kernel from configuration.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{cfg: *cfg, now: time.Now}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.initObserver(); err != nil {
		return nil, err
	}
	if err := k.initGateway(); err != nil {
		return nil, err
	}
	if err := k.initTools(); err != nil {
		return nil, err
	}

	if k.store == nil {
		store, err := checkpoint.Open(k.cfg.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		k.store = store
	}

	k.sessions = session.NewManager(k.store, k.observer)

	engineOpts := []workflow.Option{workflow.WithObserver(k.observer)}
	if k.locks != nil {
		engineOpts = append(engineOpts, workflow.WithLocks(*k.locks))
	}
	if k.spawner != nil {
		engineOpts = append(engineOpts, workflow.WithSpawner(k.spawner))
	}

	engine, err := workflow.New(k.cfg.Workflow, k.gateway, k.tools, k.summarizer, engineOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create workflow engine: %w", err), k.store.Close())
	}
	k.engine = engine

	observability.Emit(context.Background(), k.observer, EventReady, observability.LevelInfo, "kernel", map[string]any{
		"tools":      len(k.tools.List()),
		"checkpoint": k.cfg.Checkpoint.Store,
		"compaction": k.summarizer != nil,
	})

	return k, nil
}

func (k *Kernel) initObserver() error {
	if k.observer == nil {
		obs, err := observability.GetObserver(k.cfg.Observer)
		if err != nil {
			return fmt.Errorf("failed to resolve observer: %w", err)
		}
		k.observer = obs
	}

	if k.cfg.Metrics {
		k.metrics = prometheus.NewRegistry()
		k.observer = observability.NewMultiObserver(
			k.observer,
			observability.NewPrometheusObserver(k.metrics, metricsNamespace),
		)
	}
	return nil
}

// initGateway creates the OpenAI gateway unless one was supplied. The same
// gateway serves as the summarizer unless a summarizer option was given.
func (k *Kernel) initGateway() error {
	if k.gateway != nil {
		return nil
	}

	g, err := openai.New(k.cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to create model gateway: %w", err)
	}
	k.gateway = g
	if !k.summarizerSet {
		k.summarizer = g
	}
	return nil
}

func (k *Kernel) initTools() error {
	if k.tools != nil {
		return nil
	}

	reg := tools.New()
	if err := reg.Register(tools.DatetimeTool, tools.Datetime(k.now)); err != nil {
		return fmt.Errorf("failed to register datetime tool: %w", err)
	}

	if k.cfg.Search.Enabled() {
		searcher, err := search.New(context.Background(), k.cfg.Search)
		if err != nil {
			return fmt.Errorf("failed to create search tool: %w", err)
		}
		if err := searcher.Register(reg); err != nil {
			return fmt.Errorf("failed to register search tool: %w", err)
		}
	}

	k.tools = reg
	return nil
}

// Submit runs one turn of the thread identified by threadID, creating or
// restoring the session on first use, and yields the progressively
// aggregated answer. A failed turn yields a single error.
func (k *Kernel) Submit(ctx context.Context, threadID, text string) iter.Seq2[workflow.TextChunk, error] {
	return func(yield func(workflow.TextChunk, error) bool) {
		s, err := k.sessions.GetOrCreate(ctx, threadID)
		if err != nil {
			yield(workflow.TextChunk{}, err)
			return
		}

		observability.Emit(ctx, k.observer, EventSubmit, observability.LevelVerbose, "kernel", map[string]any{
			"thread_id": threadID,
			"messages":  s.Len(),
		})

		for chunk, err := range k.engine.Advance(ctx, s, text) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}

// State returns a snapshot of a live thread.
func (k *Kernel) State(threadID string) (session.State, bool) {
	s, ok := k.sessions.Get(threadID)
	if !ok {
		return session.State{}, false
	}
	return s.Snapshot(), true
}

// Threads lists the live thread ids.
func (k *Kernel) Threads() []string {
	return k.sessions.List()
}

// Evict drops a thread and its checkpoint.
func (k *Kernel) Evict(ctx context.Context, threadID string) error {
	return k.sessions.Evict(ctx, threadID)
}

// Tools returns the tool definitions offered to the agent.
func (k *Kernel) Tools() []protocol.Tool {
	return k.tools.List()
}

// Metrics returns the Prometheus registry, or nil when metrics are disabled.
func (k *Kernel) Metrics() *prometheus.Registry {
	return k.metrics
}

// Observer returns the kernel's observer.
func (k *Kernel) Observer() observability.Observer {
	return k.observer
}

// Close waits for background compaction and closes the checkpoint store.
func (k *Kernel) Close() error {
	k.engine.Wait()
	err := k.store.Close()
	observability.Emit(context.Background(), k.observer, EventClosed, observability.LevelInfo, "kernel", nil)
	return err
}
