// internal/workflow/engine_test.go
package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vernont/internal/locking"
	"vernont/internal/pkg/apperr"
)

// memLocker 是进程内的 Locker 实现，按 key 保证互斥，等待超时后返回 LockTimeoutError。
type memLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	freed chan struct{}
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool), freed: make(chan struct{}, 64)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (locking.Handle, error) {
	deadline := time.Now().Add(wait)
	for {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			return &memHandle{locker: l, key: key}, nil
		}
		l.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, &apperr.LockTimeoutError{Key: key, Wait: wait}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (l *memLocker) holding(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type memHandle struct {
	locker *memLocker
	key    string
}

func (h *memHandle) Key() string { return h.key }

func (h *memHandle) Release(ctx context.Context) error {
	h.locker.mu.Lock()
	delete(h.locker.held, h.key)
	h.locker.mu.Unlock()
	select {
	case h.locker.freed <- struct{}{}:
	default:
	}
	return nil
}

func TestEngineRunsStepsInOrder(t *testing.T) {
	engine := NewEngine(newMemLocker())

	var executed []string
	steps := []Step{
		NewStep("first", func(ctx context.Context, run *Run) error {
			executed = append(executed, "first")
			return nil
		}),
		NewStep("second", func(ctx context.Context, run *Run) error {
			executed = append(executed, "second")
			return nil
		}),
		NewStep("third", func(ctx context.Context, run *Run) error {
			executed = append(executed, "third")
			return nil
		}),
	}

	err := engine.Run(context.Background(), "order-test", "cart:1", steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, executed)
}

func TestEngineCompensatesInReverseOrder(t *testing.T) {
	engine := NewEngine(newMemLocker())

	var compensated []string
	steps := []Step{
		NewStep("create-a", func(ctx context.Context, run *Run) error {
			run.PushCompensation("create-a", "undo a", func(ctx context.Context) error {
				compensated = append(compensated, "a")
				return nil
			})
			return nil
		}),
		NewStep("create-b", func(ctx context.Context, run *Run) error {
			run.PushCompensation("create-b", "undo b", func(ctx context.Context) error {
				compensated = append(compensated, "b")
				return nil
			})
			return nil
		}),
		NewStep("boom", func(ctx context.Context, run *Run) error {
			return errors.New("step exploded")
		}),
	}

	err := engine.Run(context.Background(), "order-test", "cart:1", steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step boom failed")
	// 补偿按注册的逆序执行
	assert.Equal(t, []string{"b", "a"}, compensated)
}

func TestEngineStopsAtFirstFailure(t *testing.T) {
	engine := NewEngine(newMemLocker())

	var executed []string
	steps := []Step{
		NewStep("first", func(ctx context.Context, run *Run) error {
			executed = append(executed, "first")
			return errors.New("fail fast")
		}),
		NewStep("second", func(ctx context.Context, run *Run) error {
			executed = append(executed, "second")
			return nil
		}),
	}

	err := engine.Run(context.Background(), "order-test", "cart:1", steps)
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, executed)
}

func TestEngineReleasesLockOnSuccess(t *testing.T) {
	locker := newMemLocker()
	engine := NewEngine(locker)

	err := engine.Run(context.Background(), "order-test", "cart:9", []Step{
		NewStep("noop", func(ctx context.Context, run *Run) error { return nil }),
	})
	require.NoError(t, err)
	assert.False(t, locker.holding("cart:9"))
}

func TestEngineReleasesLockOnFailure(t *testing.T) {
	locker := newMemLocker()
	engine := NewEngine(locker)

	err := engine.Run(context.Background(), "order-test", "cart:9", []Step{
		NewStep("boom", func(ctx context.Context, run *Run) error { return errors.New("nope") }),
	})
	require.Error(t, err)
	assert.False(t, locker.holding("cart:9"))
}

func TestEnginePanicUnwindsCompensationsAndReleasesLock(t *testing.T) {
	locker := newMemLocker()
	engine := NewEngine(locker)

	var compensated []string
	steps := []Step{
		NewStep("commit", func(ctx context.Context, run *Run) error {
			run.PushCompensation("commit", "undo commit", func(ctx context.Context) error {
				compensated = append(compensated, "commit")
				return nil
			})
			return nil
		}),
		NewStep("explode", func(ctx context.Context, run *Run) error {
			panic("boom")
		}),
	}

	// panic 继续向上抛，但抛出前已完成回滚并释放锁
	assert.PanicsWithValue(t, "boom", func() {
		_ = engine.Run(context.Background(), "order-test", "cart:panic", steps)
	})
	assert.Equal(t, []string{"commit"}, compensated)
	assert.False(t, locker.holding("cart:panic"))
}

func TestEngineLockTimeoutRunsNoSteps(t *testing.T) {
	locker := newMemLocker()
	// 预先占住锁
	handle, err := locker.Acquire(context.Background(), "cart:held", time.Second, time.Minute)
	require.NoError(t, err)
	defer handle.Release(context.Background())

	engine := NewEngine(locker, WithLockWait(20*time.Millisecond))

	executed := false
	err = engine.Run(context.Background(), "order-test", "cart:held", []Step{
		NewStep("never", func(ctx context.Context, run *Run) error {
			executed = true
			return nil
		}),
	})
	require.Error(t, err)
	assert.True(t, IsLockTimeout(err))
	assert.False(t, executed)
}

func TestEngineSerializesSameKey(t *testing.T) {
	locker := newMemLocker()
	engine := NewEngine(locker, WithLockWait(2*time.Second))

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	step := NewStep("critical", func(ctx context.Context, run *Run) error {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := engine.Run(context.Background(), "order-test", "cart:same", []Step{step})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight, "same lock key must never run concurrently")
}

func TestIsLockTimeout(t *testing.T) {
	err := &apperr.LockTimeoutError{Key: "cart:1", Wait: time.Second}
	assert.True(t, IsLockTimeout(err))
	assert.True(t, IsLockTimeout(errors.Wrap(err, "wrapped")))
	assert.False(t, IsLockTimeout(errors.New("other")))
}
