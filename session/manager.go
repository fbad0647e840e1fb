package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/chatgraph/checkpoint"
	"github.com/tailored-agentic-units/chatgraph/observability"
)

// Manager maps thread ids to sessions. A session is created on first use,
// restored from the checkpoint store when one exists, and kept for the
// lifetime of the process unless evicted.
type Manager struct {
	store    checkpoint.Store
	observer observability.Observer

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A nil store keeps sessions in memory only.
func NewManager(store checkpoint.Store, observer observability.Observer) *Manager {
	return &Manager{
		store:    store,
		observer: observability.OrNoOp(observer),
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session of threadID, creating it if needed.
func (m *Manager) GetOrCreate(ctx context.Context, threadID string) (*Session, error) {
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[threadID]; ok {
		return s, nil
	}

	s, err := m.load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	m.sessions[threadID] = s
	return s, nil
}

func (m *Manager) load(ctx context.Context, threadID string) (*Session, error) {
	if m.store != nil {
		cp, err := m.store.Load(ctx, threadID)
		switch {
		case err == nil:
			observability.Emit(ctx, m.observer, EventRestored, observability.LevelInfo, "session", map[string]any{
				"thread_id": threadID,
				"messages":  len(cp.Messages),
			})
			return restore(cp, m.store), nil
		case !errors.Is(err, checkpoint.ErrNotFound):
			return nil, fmt.Errorf("restore session %s: %w", threadID, err)
		}
	}

	observability.Emit(ctx, m.observer, EventCreated, observability.LevelInfo, "session", map[string]any{
		"thread_id": threadID,
	})
	return New(threadID, m.store), nil
}

// Get returns the session of threadID if it is live in this process.
func (m *Manager) Get(threadID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[threadID]
	return s, ok
}

// Evict forgets the session of threadID and deletes its checkpoint. It waits
// for the turn lock so an in-flight turn or compaction write-back finishes
// first; the session is then closed and later writes through stale handles
// are dropped.
func (m *Manager) Evict(ctx context.Context, threadID string) error {
	s, ok := m.Get(threadID)
	if ok {
		if err := s.Acquire(ctx); err != nil {
			return fmt.Errorf("acquire session %s: %w", threadID, err)
		}
		defer s.Release()
		s.close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if live, ok := m.sessions[threadID]; ok && live == s {
		delete(m.sessions, threadID)
	}

	if m.store != nil {
		if err := m.store.Delete(ctx, threadID); err != nil {
			return fmt.Errorf("delete checkpoint of %s: %w", threadID, err)
		}
	}

	observability.Emit(ctx, m.observer, EventEvicted, observability.LevelInfo, "session", map[string]any{
		"thread_id": threadID,
	})
	return nil
}

// List returns the ids of live sessions in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
