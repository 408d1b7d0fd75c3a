package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

const waitFor = 5 * time.Second

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := mustWriteFile(t, dir, "data.csv", "a,b\n1,2\n")

	rec := &recorder{}
	w := New([]string{file}, rec.reload, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, w)

	// the watcher may not be registered yet: keep writing until a reload is seen
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(file, []byte("a,b\n3,4\n"), 0o600)

		return rec.count() > 0
	}, waitFor, 50*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done))

	assert.Equal(t, filepath.Clean(file), rec.last())
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := mustWriteFile(t, dir, "data.csv", "a,b\n1,2\n")
	other := mustWriteFile(t, dir, "other.csv", "a,b\n1,2\n")

	rec := &recorder{}
	w := New([]string{file}, rec.reload, WithDebounce(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, w)

	assert.Never(t, func() bool {
		_ = os.WriteFile(other, []byte("x\n"), 0o600)

		return rec.count() > 0
	}, 300*time.Millisecond, 50*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done))
}

func TestWatchReloadErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	file := mustWriteFile(t, dir, "data.csv", "a\n")

	rec := &recorder{err: errors.New("broken input")}
	w := New([]string{file}, rec.reload, WithDebounce(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, w)

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(file, []byte("b\n"), 0o600)

		return rec.count() > 1
	}, waitFor, 50*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done))
}

func TestWatchErrors(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		err := New(nil, (&recorder{}).reload).Run(context.Background())
		require.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nowhere", "data.csv")

		err := New([]string{missing}, (&recorder{}).reload).Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nowhere")
	})
}

func TestOptions(t *testing.T) {
	w := New([]string{"a"}, nil, WithDebounce(-1), WithLogger(nil))
	assert.Equal(t, defaultDebounce, w.debounce)
	assert.NotNil(t, w.l)

	w = New([]string{"./x/../a", "a"}, nil, WithDebounce(time.Second))
	assert.Equal(t, time.Second, w.debounce)
	assert.Len(t, w.files, 1)
}

// helpers

type recorder struct {
	mu      sync.Mutex
	changed []string
	err     error
}

func (r *recorder) reload(_ context.Context, changed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.changed = append(r.changed, changed)

	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.changed)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.changed) == 0 {
		return ""
	}

	return r.changed[len(r.changed)-1]
}

func mustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	return file
}

func runAsync(ctx context.Context, w *Watcher) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		require.Fail(t, "watcher did not stop")

		return nil
	}
}
