package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const fileExt = ".json"

type fileStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileStore returns a Store that writes one JSON snapshot per thread
// under root. Thread ids are path-escaped into file names. Writes go through
// a temporary file and a rename, so a crash never leaves a torn checkpoint.
func NewFileStore(root string) Store {
	return &fileStore{root: root}
}

func (s *fileStore) path(threadID string) string {
	return filepath.Join(s.root, url.PathEscape(threadID)+fileExt)
}

func (s *fileStore) Save(_ context.Context, cp Checkpoint) error {
	if cp.ThreadID == "" {
		return fmt.Errorf("checkpoint has no thread id")
	}
	cp.Removed = nil

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint of %s: %w", cp.ThreadID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("save %s: %w", cp.ThreadID, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", cp.ThreadID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", cp.ThreadID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", cp.ThreadID, err)
	}
	if err := os.Rename(tmpName, s.path(cp.ThreadID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save %s: %w", cp.ThreadID, err)
	}
	return nil
}

func (s *fileStore) Load(_ context.Context, threadID string) (Checkpoint, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path(threadID))
	s.mu.RUnlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, threadID)
		}
		return Checkpoint{}, fmt.Errorf("load %s: %w", threadID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint of %s: %w", threadID, err)
	}
	return cp, nil
}

func (s *fileStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(threadID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", threadID, err)
	}
	return nil
}

func (s *fileStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.root)
	s.mu.RUnlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *fileStore) Close() error {
	return nil
}
