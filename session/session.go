// Package session holds the Turn State of each conversation thread.
//
// A Session owns the ordered message log and running summary of one thread.
// It carries a turn lock that serializes the workflow's turns and the
// compaction write-back on that thread, and an in-flight flag that keeps at
// most one background compaction scheduled per thread.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/chatgraph/checkpoint"
	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/lock"
)

// State is a point-in-time copy of a session's Turn State.
type State struct {
	Messages []protocol.Message
	Summary  string
}

// Session is one conversation thread. Safe for concurrent use; callers that
// read-modify-write the log must hold the turn lock (Acquire/Release).
type Session struct {
	id    string
	store checkpoint.Store
	turn  lock.Lock

	compacting atomic.Bool

	mu       sync.RWMutex
	messages []protocol.Message
	summary  string
	closed   bool
}

// New creates an empty session for threadID. A nil store disables
// persistence.
func New(threadID string, store checkpoint.Store) *Session {
	return &Session{
		id:    threadID,
		store: store,
		turn:  lock.New(),
	}
}

func restore(cp checkpoint.Checkpoint, store checkpoint.Store) *Session {
	s := New(cp.ThreadID, store)
	s.messages = protocol.CloneMessages(cp.Messages)
	s.summary = cp.Summary
	return s
}

// ID returns the thread id.
func (s *Session) ID() string {
	return s.id
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return protocol.CloneMessages(s.messages)
}

// Summary returns the running summary, empty before the first compaction.
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Len returns the number of messages in the log.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Snapshot returns a copy of the Turn State.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Messages: protocol.CloneMessages(s.messages),
		Summary:  s.summary,
	}
}

// Append adds messages to the end of the log.
func (s *Session) Append(msgs ...protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		s.messages = append(s.messages, msg.Clone())
	}
}

// ApplyCompaction removes the messages whose ids appear in removeIDs and
// replaces the summary. It returns the ids actually removed, in log order.
// Ids not present in the log are ignored, so messages appended after the
// compaction snapshot was taken are never touched. A closed session is left
// as is.
func (s *Session) ApplyCompaction(removeIDs []string, summary string) []string {
	drop := make(map[string]struct{}, len(removeIDs))
	for _, id := range removeIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	var removed []string
	s.messages = slices.DeleteFunc(s.messages, func(m protocol.Message) bool {
		if _, ok := drop[m.ID]; ok {
			removed = append(removed, m.ID)
			return true
		}
		return false
	})
	s.summary = summary
	return removed
}

// Persist saves the current Turn State to the checkpoint store together with
// removal markers for messages discarded since the last save. It is a no-op
// once the session is closed, so a late write never resurrects an evicted
// thread.
func (s *Session) Persist(ctx context.Context, removed ...string) error {
	if s.store == nil || s.Closed() {
		return nil
	}

	state := s.Snapshot()
	return s.store.Save(ctx, checkpoint.Checkpoint{
		ThreadID:  s.id,
		Summary:   state.Summary,
		Messages:  state.Messages,
		Removed:   removed,
		UpdatedAt: time.Now(),
	})
}

// Closed reports whether the session was evicted.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Acquire takes the turn lock, blocking until it is available or ctx is done.
func (s *Session) Acquire(ctx context.Context) error {
	return s.turn.Acquire(ctx)
}

// Release returns the turn lock.
func (s *Session) Release() {
	s.turn.Release()
}

// TryBeginCompaction marks a compaction as in flight. It returns false if one
// already is.
func (s *Session) TryBeginCompaction() bool {
	return s.compacting.CompareAndSwap(false, true)
}

// EndCompaction clears the in-flight mark set by TryBeginCompaction.
func (s *Session) EndCompaction() {
	s.compacting.Store(false)
}
