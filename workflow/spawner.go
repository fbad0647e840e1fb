package workflow

import "sync"

// Spawner runs detached background tasks.
type Spawner interface {
	Spawn(task func())
}

// GoSpawner runs each task on its own goroutine.
type GoSpawner struct {
	wg sync.WaitGroup
}

// Spawn starts task and returns immediately.
func (s *GoSpawner) Spawn(task func()) {
	s.wg.Go(task)
}

// Wait blocks until every spawned task has returned.
func (s *GoSpawner) Wait() {
	s.wg.Wait()
}

// InlineSpawner runs tasks synchronously on the caller's goroutine.
type InlineSpawner struct{}

// Spawn runs task before returning.
func (InlineSpawner) Spawn(task func()) {
	task()
}
