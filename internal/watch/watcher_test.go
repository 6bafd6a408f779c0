package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/ignore"
)

// recorder collects handler calls.
type recorder struct {
	mu      sync.Mutex
	started [][]string
	events  []Event
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) Started(changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, changed)
}

func (r *recorder) Finished(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for evaluation")
	}
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func staticRunner(calls *int, mu *sync.Mutex) Runner {
	return func(ctx context.Context) (*gate.PhaseResult, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		return &gate.PhaseResult{Status: gate.NewGateStatus(0, 0, time.Now())}, nil
	}
}

func startWatcher(t *testing.T, opts Options, run Runner) (*recorder, context.CancelFunc) {
	t.Helper()
	w, err := New(opts, run)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, rec)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return rec, cancel
}

func TestWatcher_InitialAndChangeRuns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	var calls int
	var mu sync.Mutex
	rec, _ := startWatcher(t, Options{Root: root, Debounce: 50 * time.Millisecond}, staticRunner(&calls, &mu))

	rec.wait(t)
	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Changed)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Cart.php"), []byte("<?php\n"), 0o644))
	rec.wait(t)

	events = rec.snapshot()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Contains(t, events[1].Changed, "src/Cart.php")
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	root := t.TempDir()

	var calls int
	var mu sync.Mutex
	rec, _ := startWatcher(t, Options{Root: root, Debounce: 200 * time.Millisecond}, staticRunner(&calls, &mu))
	rec.wait(t)

	for _, name := range []string{"a.php", "b.php", "c.php"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	rec.wait(t)

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, []string{"a.php", "b.php", "c.php"}, events[1].Changed)
}

func TestWatcher_IgnoredPathsDoNotTrigger(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	var calls int
	var mu sync.Mutex
	opts := Options{
		Root:     root,
		Debounce: 20 * time.Millisecond,
		Ignore:   ignore.NewMatcher(".quality-gates-status", "vendor/**"),
	}
	rec, _ := startWatcher(t, opts, staticRunner(&calls, &mu))
	rec.wait(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".quality-gates-status"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "autoload.php"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)

	assert.Len(t, rec.snapshot(), 1)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()

	var calls int
	var mu sync.Mutex
	rec, _ := startWatcher(t, Options{Root: root, Debounce: 100 * time.Millisecond}, staticRunner(&calls, &mu))
	rec.wait(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "includes"), 0o755))
	rec.wait(t)

	// Let the new directory be registered before writing into it.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "includes", "api.php"), []byte("x"), 0o644))
	rec.wait(t)

	events := rec.snapshot()
	assert.Contains(t, events[len(events)-1].Changed, "includes/api.php")
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{Root: root}, func(ctx context.Context) (*gate.PhaseResult, error) {
		return nil, context.Canceled
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec) }()

	rec.wait(t)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Error(t, rec.snapshot()[0].Err)
}
