package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "watcher channel closed")
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestStartWatcher_InitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.pdf")
	writeFile(t, existing, "%PDF-1.4 old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, existing, next(t, events))

	fresh := filepath.Join(root, "fresh.pdf")
	writeFile(t, fresh, "%PDF-1.4 new")
	writeFile(t, filepath.Join(root, "ignored.txt"), "text")

	assert.Equal(t, fresh, next(t, events))

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestStartWatcher_MissingRoot(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{Roots: []string{filepath.Join(t.TempDir(), "nope")}})
	assert.Error(t, err)
}
