package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

type countingService struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func (s *countingService) Refresh(context.Context) (domain.Snapshot, error) {
	s.calls.Add(1)
	select {
	case s.ran <- struct{}{}:
	default:
	}
	return domain.Snapshot{}, s.err
}

type stubLocks struct {
	mu       sync.Mutex
	err      error
	unlocked int
}

func (l *stubLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
	}, nil
}

type skipRecorder struct{ results []string }

func (s *skipRecorder) ObserveRefresh(result string, _ time.Duration) {
	s.results = append(s.results, result)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunWrapsError(t *testing.T) {
	svc := &countingService{err: errors.New("boom")}
	err := NewRefresher(svc, quietLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunHoldsLock(t *testing.T) {
	svc := &countingService{}
	locks := &stubLocks{}
	require.NoError(t, NewRefresher(svc, quietLogger(), WithLock(locks, time.Minute)).Run(context.Background()))
	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Equal(t, 1, locks.unlocked)
}

func TestRunSkipsWhenLockHeld(t *testing.T) {
	svc := &countingService{}
	skips := &skipRecorder{}
	r := NewRefresher(svc, quietLogger(),
		WithLock(&stubLocks{err: domain.ErrLockHeld}, time.Minute),
		WithSkipObserver(skips))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, int32(0), svc.calls.Load())
	assert.Equal(t, []string{"skipped"}, skips.results)
}

func TestRunProceedsWhenLockBackendFails(t *testing.T) {
	svc := &countingService{}
	r := NewRefresher(svc, quietLogger(), WithLock(&stubLocks{err: errors.New("redis down")}, time.Minute))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestRunLoopStartupAndTrigger(t *testing.T) {
	svc := &countingService{ran: make(chan struct{}, 4)}
	trigger := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewRefresher(svc, quietLogger()).RunLoop(ctx, time.Hour, trigger) }()

	waitRun(t, svc.ran)
	trigger <- struct{}{}
	waitRun(t, svc.ran)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestRunLoopTicks(t *testing.T) {
	svc := &countingService{ran: make(chan struct{}, 8), err: errors.New("keeps failing")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = NewRefresher(svc, quietLogger()).RunLoop(ctx, 10*time.Millisecond, nil) }()

	for i := 0; i < 3; i++ {
		waitRun(t, svc.ran)
	}
}

func waitRun(t *testing.T, ran <-chan struct{}) {
	t.Helper()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
}
