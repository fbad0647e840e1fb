package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	thread_id  TEXT PRIMARY KEY,
	summary    TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	thread_id    TEXT NOT NULL REFERENCES threads(thread_id) ON DELETE CASCADE,
	ordinal      INTEGER NOT NULL,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL,
	tool_call_id TEXT NOT NULL DEFAULT '',
	tool_calls   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, ordinal);
`

// SQLiteStore persists checkpoints in a SQLite database. Messages are stored
// one row per message so that a save only writes rows that changed. Rows the
// checkpoint no longer carries are deleted and the survivors renumbered.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and returns a store
// backed by it. The store owns the connection and closes it on Close.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore creates the schema in db if needed and returns a store using
// it. Callers using an in-memory database must limit db to one connection.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, cp Checkpoint) error {
	if cp.ThreadID == "" {
		return fmt.Errorf("checkpoint has no thread id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint: %w", err)
	}
	defer tx.Rollback()

	updated := cp.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO threads (thread_id, summary, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`,
		cp.ThreadID, cp.Summary, updated.UnixNano(),
	); err != nil {
		return fmt.Errorf("save thread %s: %w", cp.ThreadID, err)
	}

	stale, err := staleMessages(ctx, tx, cp)
	if err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM messages WHERE thread_id = ? AND id = ?`, cp.ThreadID, id,
		); err != nil {
			return fmt.Errorf("remove message %s: %w", id, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, thread_id, ordinal, role, content, tool_call_id, tool_calls)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ordinal = excluded.ordinal`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range cp.Messages {
		calls, err := encodeToolCalls(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("encode tool calls of %s: %w", msg.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			msg.ID, cp.ThreadID, i, string(msg.Role), msg.Content, msg.ToolCallID, calls,
		); err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// staleMessages lists the stored rows of the thread that the checkpoint no
// longer carries, whether or not the caller marked them removed.
func staleMessages(ctx context.Context, tx *sql.Tx, cp Checkpoint) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM messages WHERE thread_id = ?`, cp.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", cp.ThreadID, err)
	}
	defer rows.Close()

	keep := make(map[string]struct{}, len(cp.Messages))
	for _, msg := range cp.Messages {
		keep[msg.ID] = struct{}{}
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, threadID string) (Checkpoint, error) {
	cp := Checkpoint{ThreadID: threadID}

	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, updated_at FROM threads WHERE thread_id = ?`, threadID,
	).Scan(&cp.Summary, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	cp.UpdatedAt = time.Unix(0, updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, tool_call_id, tool_calls
		FROM messages WHERE thread_id = ? ORDER BY ordinal`, threadID)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load messages of %s: %w", threadID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg   protocol.Message
			role  string
			calls string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.ToolCallID, &calls); err != nil {
			return Checkpoint{}, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = protocol.Role(role)
		if calls != "" {
			if err := json.Unmarshal([]byte(calls), &msg.ToolCalls); err != nil {
				return Checkpoint{}, fmt.Errorf("decode tool calls of %s: %w", msg.ID, err)
			}
		}
		cp.Messages = append(cp.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return Checkpoint{}, fmt.Errorf("iterate messages of %s: %w", threadID, err)
	}

	return cp, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete messages of %s: %w", threadID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT thread_id FROM threads ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeToolCalls(calls []protocol.ToolCall) (string, error) {
	if len(calls) == 0 {
		return "", nil
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
