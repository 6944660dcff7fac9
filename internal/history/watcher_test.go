package history

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/lookviz/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, path string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+path)
	r.mu.Unlock()
}

func (r *recorder) has(want string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == want {
			return true
		}
	}
	return false
}

// startWatcher runs Watch on a fresh directory and stops it on cleanup.
func startWatcher(t *testing.T, seed map[string]string) (string, *recorder) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range seed {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	store, err := storage.NewFS(dir)
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, dir, store, logger, rec.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return dir, rec
}

func TestWatcher_NewFileReported(t *testing.T) {
	dir, rec := startWatcher(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.dashboard.lookml"), []byte("- dashboard: new\n"), 0o644))

	require.Eventually(t, func() bool { return rec.has("created:new.dashboard.lookml") },
		5*time.Second, 50*time.Millisecond, "expected created callback")
}

func TestWatcher_UpdateReported(t *testing.T) {
	dir, rec := startWatcher(t, map[string]string{"ops.yml": "- dashboard: ops\n"})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops.yml"), []byte("- dashboard: ops2\n"), 0o644))

	require.Eventually(t, func() bool { return rec.has("updated:ops.yml") },
		5*time.Second, 50*time.Millisecond, "expected updated callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, rec := startWatcher(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.lookml"), []byte("[]"), 0o644))

	require.Eventually(t, func() bool { return rec.has("created:z.lookml") },
		5*time.Second, 50*time.Millisecond)
	require.False(t, rec.has("created:notes.txt"))
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, rec := startWatcher(t, nil)

	sub := filepath.Join(dir, "team")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.lookml"), []byte("[]"), 0o644))

	require.Eventually(t, func() bool { return rec.has("created:team/deep.lookml") },
		5*time.Second, 50*time.Millisecond, "file in new subdir not reported")
}

func TestWatcher_DeleteReported(t *testing.T) {
	dir, rec := startWatcher(t, map[string]string{"del.lookml": "[]"})

	require.NoError(t, os.Remove(filepath.Join(dir, "del.lookml")))

	require.Eventually(t, func() bool { return rec.has("deleted:del.lookml") },
		5*time.Second, 50*time.Millisecond, "expected deleted callback")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, rec := startWatcher(t, map[string]string{"old.lookml": "[]"})

	require.NoError(t, os.Rename(filepath.Join(dir, "old.lookml"), filepath.Join(dir, "renamed.lookml")))

	require.Eventually(t, func() bool {
		return rec.has("deleted:old.lookml") && rec.has("created:renamed.lookml")
	}, 5*time.Second, 50*time.Millisecond, "rename should report old removal and new file")
}
