package checkpoint

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

type memoryStore struct {
	checkpoints map[string]Checkpoint
	mu          sync.RWMutex
}

// NewMemoryStore returns a Store that keeps checkpoints in process memory.
// Checkpoints are lost when the process exits.
func NewMemoryStore() Store {
	return &memoryStore{
		checkpoints: make(map[string]Checkpoint),
	}
}

func (m *memoryStore) Save(_ context.Context, cp Checkpoint) error {
	if cp.ThreadID == "" {
		return fmt.Errorf("checkpoint has no thread id")
	}

	cp.Messages = protocol.CloneMessages(cp.Messages)
	cp.Removed = nil

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cp.ThreadID] = cp
	return nil
}

func (m *memoryStore) Load(_ context.Context, threadID string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[threadID]
	if !exists {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}

	cp.Messages = protocol.CloneMessages(cp.Messages)
	return cp, nil
}

func (m *memoryStore) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, threadID)
	return nil
}

func (m *memoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.checkpoints))
	for id := range m.checkpoints {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memoryStore) Close() error {
	return nil
}
