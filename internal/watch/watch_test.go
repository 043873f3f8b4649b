package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestDefaultDebounce(t *testing.T) {
	if DefaultDebounce != 500*time.Millisecond {
		t.Errorf("DefaultDebounce = %v, want 500ms", DefaultDebounce)
	}
}

func TestWatchTriggersExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "albedo.png")
	writeFile(t, src, "v1")

	var exports atomic.Int32
	c, err := Start([]string{src}, func() { exports.Add(1) }, &Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	writeFile(t, src, "v2")

	if !waitFor(t, 2*time.Second, func() bool { return exports.Load() == 1 }) {
		t.Fatalf("exports = %d, want 1", exports.Load())
	}
}

func TestWatchCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rough.png")
	writeFile(t, src, "v1")

	var exports atomic.Int32
	c, err := Start([]string{src}, func() { exports.Add(1) }, &Options{Debounce: 150 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, src, "burst")
		time.Sleep(20 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return exports.Load() >= 1 }) {
		t.Fatal("export never ran")
	}
	// Let another full window pass; the burst must have collapsed into a
	// single run.
	time.Sleep(300 * time.Millisecond)
	if got := exports.Load(); got != 1 {
		t.Errorf("exports = %d, want 1 for a single burst", got)
	}
}

func TestWatchChangeDuringExportNotRequeued(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "metal.png")
	writeFile(t, src, "v1")

	var exports atomic.Int32
	block := make(chan struct{})
	entered := make(chan struct{})
	unblock := sync.OnceFunc(func() { close(block) })

	c, err := Start([]string{src}, func() {
		if exports.Add(1) == 1 {
			close(entered)
			<-block
		}
	}, &Options{Debounce: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()
	defer unblock()

	writeFile(t, src, "v2")
	<-entered

	// This change lands while the export callback is still running. It must
	// be drained afterwards, not queued as another export.
	writeFile(t, src, "v3")
	time.Sleep(50 * time.Millisecond)
	unblock()

	time.Sleep(200 * time.Millisecond)
	if got := exports.Load(); got != 1 {
		t.Errorf("exports = %d, want 1 (mid-export change must not re-trigger)", got)
	}
}

func TestWatchSetPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeFile(t, a, "1")
	writeFile(t, b, "1")

	var exports atomic.Int32
	c, err := Start([]string{a}, func() { exports.Add(1) }, &Options{Debounce: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	c.SetPaths([]string{b})
	if !waitFor(t, time.Second, func() bool {
		ps := c.Paths()
		return len(ps) == 1 && ps[0] == b
	}) {
		t.Fatalf("Paths() = %v, want [%s]", c.Paths(), b)
	}

	writeFile(t, a, "2")
	time.Sleep(150 * time.Millisecond)
	if exports.Load() != 0 {
		t.Fatal("export ran for a path no longer watched")
	}

	writeFile(t, b, "2")
	if !waitFor(t, 2*time.Second, func() bool { return exports.Load() == 1 }) {
		t.Errorf("exports = %d, want 1 after watched change", exports.Load())
	}
}

func TestWatchStop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x.png")
	writeFile(t, src, "1")

	var exports atomic.Int32
	c, err := Start([]string{src}, func() { exports.Add(1) }, &Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c.Stop()
	c.Stop() // second call is a no-op

	writeFile(t, src, "2")
	time.Sleep(100 * time.Millisecond)
	if exports.Load() != 0 {
		t.Error("export ran after Stop")
	}
}

func TestWatchStopCancelsPendingWindow(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "y.png")
	writeFile(t, src, "1")

	var exports atomic.Int32
	c, err := Start([]string{src}, func() { exports.Add(1) }, &Options{Debounce: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	writeFile(t, src, "2")
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	time.Sleep(300 * time.Millisecond)
	if exports.Load() != 0 {
		t.Error("export ran despite Stop inside the debounce window")
	}
}

func TestWatchMissingPath(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.png")

	c, err := Start([]string{missing}, func() {}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if got := len(c.Paths()); got != 0 {
		t.Errorf("Paths() has %d entries, want 0 for an unwatchable file", got)
	}
}

func TestWatchSetPathsAfterStop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "z.png")
	writeFile(t, src, "1")

	c, err := Start([]string{src}, func() {}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Stop()

	// Must not block once the loop is gone.
	done := make(chan struct{})
	go func() {
		c.SetPaths([]string{src})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetPaths blocked after Stop")
	}
}
