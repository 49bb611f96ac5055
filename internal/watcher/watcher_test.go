package watcher

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string) <-chan string {
	t.Helper()
	changed := make(chan string, 16)
	w := New(dir, func(p string) bool { return strings.HasSuffix(p, ".ttl") }, func(p string) {
		changed <- p
	}).WithDebounce(50 * time.Millisecond).
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// let the watcher register its directories
	time.Sleep(100 * time.Millisecond)
	return changed
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", want)
		}
	}
}

func TestWatchReportsMatchingFiles(t *testing.T) {
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	changed := startWatcher(t, dir)

	path := filepath.Join(dir, "rocks.ttl")
	require.NoError(t, os.WriteFile(path, []byte("# v1"), 0644))
	waitFor(t, changed, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	select {
	case got := <-changed:
		t.Fatalf("unexpected change for %s", got)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.Remove(path))
	waitFor(t, changed, path)
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	changed := startWatcher(t, dir)

	path := filepath.Join(dir, "rocks.ttl")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i)), 0644))
	}
	waitFor(t, changed, path)

	select {
	case <-changed:
		t.Fatal("burst of writes should be reported once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	changed := startWatcher(t, dir)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "minerals.ttl")
	require.NoError(t, os.WriteFile(path, []byte("# v1"), 0644))
	waitFor(t, changed, path)
	assert.FileExists(t, path)
}
