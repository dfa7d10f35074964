package monitoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArtifactWatcherReportsReplacement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	changes := make(chan fsnotify.Op, 16)
	watcher, err := NewArtifactWatcher(path, zap.NewNop(), func(op fsnotify.Op) { changes <- op })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metrics.json"), []byte(`{}`), 0o644))

	tmp := filepath.Join(dir, "model.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"format_version":1}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for replaced artifact")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewArtifactWatcherMissingDirectory(t *testing.T) {
	_, err := NewArtifactWatcher(filepath.Join(t.TempDir(), "absent", "model.json"), zap.NewNop(), nil)
	require.Error(t, err)
}
