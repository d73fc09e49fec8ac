package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	for _, p := range []string{"/a/.hidden", "/a/file.go~", "/a/.x.swp", "/a/#tmp#", "/a/Thumbs.db"} {
		require.True(t, shouldIgnore(p), p)
	}
	require.False(t, shouldIgnore("/a/Button.stories.js"))
}

func TestRunDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{Roots: []string{root, filepath.Join(root, "missing")}, QuietWindow: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var calls [][]string
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx, func(_ context.Context, changed []string) {
			mu.Lock()
			calls = append(calls, changed)
			mu.Unlock()
		})
		close(done)
	}()
	<-w.Ready()

	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte{byte('a' + i)}, 0o600))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	require.Contains(t, calls[0], filepath.Join(root, "a.js"))
	mu.Unlock()

	cancel()
	<-done
}
