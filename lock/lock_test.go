package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tailored-agentic-units/chatgraph/lock"
)

func TestLock_MutualExclusion(t *testing.T) {
	l := lock.New()
	const n = 50

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)

	for range n {
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			cur := active.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			l.Release()
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Errorf("peak concurrent holders = %d, want 1", peak.Load())
	}
}

func TestLock_AcquireRespectsContext(t *testing.T) {
	l := lock.New()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestSet_Independent(t *testing.T) {
	set := lock.NewSet()
	ctx := context.Background()

	if err := set.Summary.Acquire(ctx); err != nil {
		t.Fatalf("Summary.Acquire failed: %v", err)
	}
	defer set.Summary.Release()

	actx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := set.Agent.Acquire(actx); err != nil {
		t.Fatalf("holding the summary lock must not block the agent lock: %v", err)
	}
	set.Agent.Release()
}

func TestNoop(t *testing.T) {
	set := lock.NoopSet()

	for range 3 {
		if err := set.Agent.Acquire(context.Background()); err != nil {
			t.Fatalf("Noop.Acquire failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := set.Agent.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Noop.Acquire with cancelled context = %v, want context.Canceled", err)
	}
}
