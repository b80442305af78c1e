package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runWatcher(t *testing.T, w *Watcher) (<-chan struct{}, func()) {
	t.Helper()
	changes := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func() { changes <- struct{}{} })
	}()
	return changes, func() {
		cancel()
		<-done
	}
}

func TestWatcherDebouncesDirectoryWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 100*time.Millisecond)
	require.NoError(t, err)
	changes, stop := runWatcher(t, w)
	defer stop()

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changes:
		t.Fatal("burst should collapse into one notification")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherFiltersByFilePrefix(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "termcal.db")
	w, err := New(db, 50*time.Millisecond)
	require.NoError(t, err)
	changes, stop := runWatcher(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("x"), 0600))
	select {
	case <-changes:
		t.Fatal("unrelated file should be ignored")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(db+"-wal", []byte("x"), 0600))
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change for the wal file")
	}
}

func TestRelevant(t *testing.T) {
	w := &Watcher{prefix: "termcal.db"}
	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/termcal.db", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/termcal.db", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/.termcal.db123", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/other", Op: fsnotify.Create}))
}
