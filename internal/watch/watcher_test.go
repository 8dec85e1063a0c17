package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilters(t *testing.T) {
	assert.True(t, NoGitFilter("src/a.txt"))
	assert.False(t, NoGitFilter(filepath.Join("project", ".git", "HEAD")))
	assert.False(t, NoGitFilter(".git"))

	assert.True(t, NoInternalFilter("src/a.txt"))
	assert.False(t, NoInternalFilter(filepath.Join(".ginjarator", "main.ninja")))
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	watcher, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, watcher.AddPath(dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batches := make(chan []Event, 1)
	go func() {
		_ = watcher.Watch(ctx, func(events []Event) {
			select {
			case batches <- events:
				cancel()
			default:
			}
		})
	}()

	// A burst of writes should produce a single batch.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "a.txt"), []byte("x"), 0o644,
		))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case events := <-batches:
		require.NotEmpty(t, events)
		assert.Contains(t, events[0].Path, "a.txt")
	case <-ctx.Done():
		t.Fatal("no debounced batch arrived")
	}
}

func TestWatchRespectsFilters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".ginjarator"), 0o755))

	watcher, err := New(20 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Close()
	watcher.AddFilter(NoInternalFilter)
	require.NoError(t, watcher.AddPath(dir))
	require.NoError(t, watcher.AddPath(filepath.Join(dir, ".ginjarator")))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	got := make(chan []Event, 1)
	go func() {
		_ = watcher.Watch(ctx, func(events []Event) {
			select {
			case got <- events:
			default:
			}
		})
	}()

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ".ginjarator", "state.txt"), []byte("x"), 0o644,
	))

	select {
	case events := <-got:
		t.Fatalf("filtered events were delivered: %v", events)
	case <-ctx.Done():
		// Nothing arrived, as expected.
	}
}
