// Package checkpoint persists conversation Turn State keyed by thread id.
//
// A Checkpoint is a full snapshot of one thread (summary plus ordered
// messages) together with removal markers: the ids of messages discarded by
// compaction since the previous save. Stores that keep messages as separate
// records use the markers to drop them; snapshot stores may ignore them.
//
// Checkpoint lifecycle:
//  1. The workflow saves after every turn and after every compaction write-back.
//  2. session.Manager loads the checkpoint when a thread is first touched in
//     this process.
//  3. Evicting a thread deletes its checkpoint.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
)

// ErrNotFound is returned by Load when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a persisted Turn State snapshot.
type Checkpoint struct {
	ThreadID  string             `json:"thread_id"`
	Summary   string             `json:"summary"`
	Messages  []protocol.Message `json:"messages"`
	Removed   []string           `json:"removed,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store persists checkpoints. Implementations must be safe for concurrent use.
type Store interface {
	// Save persists cp, replacing the previous checkpoint of cp.ThreadID.
	// Messages absent from cp are dropped even when Removed does not list them.
	Save(ctx context.Context, cp Checkpoint) error

	// Load returns the checkpoint of threadID or ErrNotFound.
	Load(ctx context.Context, threadID string) (Checkpoint, error)

	// Delete removes the checkpoint of threadID. Missing threads are ignored.
	Delete(ctx context.Context, threadID string) error

	// List returns every thread id with a stored checkpoint.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
