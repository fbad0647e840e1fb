package checkpoint_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailored-agentic-units/chatgraph/checkpoint"
	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T) checkpoint.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := checkpoint.NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func stores(t *testing.T) map[string]checkpoint.Store {
	return map[string]checkpoint.Store{
		"memory": checkpoint.NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
		"file":   checkpoint.NewFileStore(filepath.Join(t.TempDir(), "threads")),
	}
}

func conversation() []protocol.Message {
	return []protocol.Message{
		protocol.NewUserMessage("weather in paris?"),
		protocol.NewAgentMessage("", protocol.NewToolCall("call_1", "google_search", `{"query":"paris weather"}`)),
		protocol.NewToolResult("call_1", "18°C and sunny"),
		protocol.NewAgentMessage("It's 18°C and sunny in Paris."),
	}
}

func TestStore_SaveLoad(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			msgs := conversation()

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{
				ThreadID: "t1",
				Summary:  "earlier talk",
				Messages: msgs,
			}))

			got, err := store.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, "t1", got.ThreadID)
			assert.Equal(t, "earlier talk", got.Summary)
			require.Len(t, got.Messages, len(msgs))
			for i := range msgs {
				assert.Equal(t, msgs[i].ID, got.Messages[i].ID)
				assert.Equal(t, msgs[i].Role, got.Messages[i].Role)
				assert.Equal(t, msgs[i].Content, got.Messages[i].Content)
				assert.Equal(t, msgs[i].ToolCallID, got.Messages[i].ToolCallID)
				assert.Equal(t, msgs[i].ToolCalls, got.Messages[i].ToolCalls)
			}
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(context.Background(), "missing")
			assert.ErrorIs(t, err, checkpoint.ErrNotFound)
		})
	}
}

func TestStore_RemovalMarkers(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			msgs := conversation()

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs}))

			kept := msgs[3:]
			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{
				ThreadID: "t1",
				Summary:  "user asked about paris",
				Messages: kept,
				Removed:  []string{msgs[0].ID, msgs[1].ID, msgs[2].ID},
			}))

			got, err := store.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, "user asked about paris", got.Summary)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, msgs[3].ID, got.Messages[0].ID)
		})
	}
}

func TestStore_SaveReplacesWithoutMarkers(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			msgs := conversation()

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs[:3]}))
			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs[2:3]}))

			got, err := store.Load(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, msgs[2].ID, got.Messages[0].ID)

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Summary: "cleared"}))
			got, err = store.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Empty(t, got.Messages)
			assert.Equal(t, "cleared", got.Summary)
		})
	}
}

func TestStore_AppendKeepsOrder(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			msgs := conversation()

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs[:2]}))
			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs}))

			got, err := store.Load(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, got.Messages, len(msgs))
			for i := range msgs {
				assert.Equal(t, msgs[i].ID, got.Messages[i].ID, "position %d", i)
			}
		})
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "b", Messages: conversation()}))
			require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "a"}))

			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids)

			require.NoError(t, store.Delete(ctx, "b"))
			require.NoError(t, store.Delete(ctx, "never-saved"))

			ids, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids)

			_, err = store.Load(ctx, "b")
			assert.ErrorIs(t, err, checkpoint.ErrNotFound)
		})
	}
}

func TestStore_RejectsEmptyThreadID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Save(context.Background(), checkpoint.Checkpoint{}))
		})
	}
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	ctx := context.Background()
	msgs := conversation()

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: msgs}))
	msgs[1].ToolCalls[0].Name = "tampered"

	got, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "google_search", got.Messages[1].ToolCalls[0].Name)
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := checkpoint.Open(checkpoint.DefaultConfig())
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("sqlite file survives reopen", func(t *testing.T) {
		cfg := checkpoint.Config{Store: "sqlite", Path: filepath.Join(t.TempDir(), "cg.db")}
		ctx := context.Background()

		store, err := checkpoint.Open(cfg)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "t1", Messages: conversation()}))
		require.NoError(t, store.Close())

		reopened, err := checkpoint.Open(cfg)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.Load(ctx, "t1")
		require.NoError(t, err)
		assert.Len(t, got.Messages, 4)
	})

	t.Run("file store survives reopen", func(t *testing.T) {
		cfg := checkpoint.Config{Store: "file", Path: t.TempDir()}
		ctx := context.Background()

		store, err := checkpoint.Open(cfg)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{ThreadID: "team/alpha", Messages: conversation()}))
		require.NoError(t, store.Close())

		reopened, err := checkpoint.Open(cfg)
		require.NoError(t, err)

		ids, err := reopened.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"team/alpha"}, ids)

		got, err := reopened.Load(ctx, "team/alpha")
		require.NoError(t, err)
		assert.Len(t, got.Messages, 4)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := checkpoint.Open(checkpoint.Config{Store: "etcd"})
		assert.Error(t, err)
	})
}

func TestConfig_Merge(t *testing.T) {
	cfg := checkpoint.DefaultConfig()
	cfg.Merge(&checkpoint.Config{Store: "sqlite"})

	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "chatgraph.db", cfg.Path)
	assert.Contains(t, checkpoint.Names(), "sqlite")
}
