package content

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type changeLog struct {
	mu      sync.Mutex
	batches [][]string
}

func (c *changeLog) record(changed []string) {
	c.mu.Lock()
	c.batches = append(c.batches, changed)
	c.mu.Unlock()
}

func (c *changeLog) seen(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.batches {
		if slices.Contains(b, path) {
			return true
		}
	}
	return false
}

func (c *changeLog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func startWatch(t *testing.T, dir string, cl *changeLog) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, dir, 50*time.Millisecond, logger, cl.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_NewFileReported(t *testing.T) {
	dir := t.TempDir()
	cl := &changeLog{}
	startWatch(t, dir, cl)

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return cl.seen("new.md")
	}, "new.md not reported by watcher")
}

func TestWatch_NewDirWatched(t *testing.T) {
	dir := t.TempDir()
	cl := &changeLog{}
	startWatch(t, dir, cl)

	subDir := filepath.Join(dir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(150 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return cl.seen("subdir/deep.md")
	}, "file in new subdir not reported by watcher")
}

func TestWatch_DeleteReported(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "del.md"), []byte("# Delete Me"), 0o644)
	cl := &changeLog{}
	startWatch(t, dir, cl)

	_ = os.Remove(filepath.Join(dir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return cl.seen("del.md")
	}, "delete not reported by watcher")
}

func TestWatch_BurstDebounced(t *testing.T) {
	dir := t.TempDir()
	cl := &changeLog{}
	startWatch(t, dir, cl)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		_ = os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return cl.seen("a.md") && cl.seen("b.md") && cl.seen("c.md")
	}, "burst not reported")
	if n := cl.count(); n > 2 {
		t.Errorf("got %d batches for one burst, want at most 2", n)
	}
}

func TestWatch_HiddenIgnored(t *testing.T) {
	dir := t.TempDir()
	cl := &changeLog{}
	startWatch(t, dir, cl)

	_ = os.WriteFile(filepath.Join(dir, ".swp"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "visible.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return cl.seen("visible.md")
	}, "visible.md not reported")
	if cl.seen(".swp") {
		t.Error("hidden file reported")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, 20*time.Millisecond, logger, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestHidden(t *testing.T) {
	cases := map[string]bool{
		"a.md":             false,
		".git/config":      true,
		"posts/.draft.md":  true,
		"posts/ok/file.md": false,
		".":                false,
	}
	for in, want := range cases {
		if got := hidden(in); got != want {
			t.Errorf("hidden(%q) = %v, want %v", in, got, want)
		}
	}
}
