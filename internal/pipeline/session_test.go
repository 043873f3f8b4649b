package pipeline

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/internal/preset"
)

// writePNG writes a uniform size×size image and returns its path.
func writePNG(t *testing.T, dir, name string, c color.RGBA, size int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestSession returns a session with albedo and roughness picked from
// files in the returned directory.
func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	s := New()
	if _, err := s.Pick(material.RoleAlbedo, writePNG(t, dir, "albedo.png", color.RGBA{200, 150, 100, 255}, 4)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Pick(material.RoleRoughness, writePNG(t, dir, "rough.png", color.RGBA{64, 64, 64, 255}, 4)); err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func TestExportWritesMaterial(t *testing.T) {
	s, _ := newTestSession(t)
	out := t.TempDir()

	var milestones []int
	s.Progress = func(p int) { milestones = append(milestones, p) }
	exported := false
	s.Exported = func() { exported = true }

	s.SetTarget(filepath.Join(out, "crate.vmt"))
	if err := s.Export(); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	for _, name := range []string{"crate.vmt", "crate_albedo.vtf", "crate_mrao.vtf", "crate_bump.vtf"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if !exported {
		t.Error("Exported callback did not run")
	}

	want := []int{ProgressStart, ProgressAssembled, ProgressDone}
	if len(milestones) != len(want) {
		t.Fatalf("milestones = %v, want %v", milestones, want)
	}
	for i := range want {
		if milestones[i] != want[i] {
			t.Fatalf("milestones = %v, want %v", milestones, want)
		}
	}
}

func TestExportPromptsOnce(t *testing.T) {
	s, _ := newTestSession(t)
	out := t.TempDir()

	prompts := 0
	s.PromptTarget = func() (string, error) {
		prompts++
		return filepath.Join(out, "wall.vmt"), nil
	}

	if err := s.Export(); err != nil {
		t.Fatalf("first Export() error = %v", err)
	}
	if err := s.Export(); err != nil {
		t.Fatalf("second Export() error = %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompt ran %d times, want 1 (target is kept)", prompts)
	}
}

func TestExportAsRePrompts(t *testing.T) {
	s, _ := newTestSession(t)
	out1 := t.TempDir()
	out2 := t.TempDir()

	outs := []string{filepath.Join(out1, "a.vmt"), filepath.Join(out2, "b.vmt")}
	prompts := 0
	s.PromptTarget = func() (string, error) {
		p := outs[prompts]
		prompts++
		return p, nil
	}

	if err := s.Export(); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := s.ExportAs(); err != nil {
		t.Fatalf("ExportAs() error = %v", err)
	}
	if prompts != 2 {
		t.Errorf("prompt ran %d times, want 2", prompts)
	}
	if _, err := os.Stat(filepath.Join(out2, "b.vmt")); err != nil {
		t.Errorf("second destination missing descriptor: %v", err)
	}
}

func TestExportCancelled(t *testing.T) {
	s, _ := newTestSession(t)
	out := t.TempDir()

	s.PromptTarget = func() (string, error) { return "", nil }
	var milestones []int
	s.Progress = func(p int) { milestones = append(milestones, p) }

	if err := s.Export(); err != nil {
		t.Fatalf("cancelled export must not error, got %v", err)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cancelled export wrote %d files", len(entries))
	}
	if len(milestones) != 2 || milestones[0] != ProgressStart || milestones[1] != ProgressStart {
		t.Errorf("milestones = %v, want progress reset to start", milestones)
	}
}

func TestExportNoPromptCancels(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.Export(); err != nil {
		t.Fatalf("export without prompt or target must cancel quietly, got %v", err)
	}
	if _, ok := s.Target(); ok {
		t.Error("target set after cancelled export")
	}
}

func TestExportMissingRoughness(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	s := New()
	if _, err := s.Pick(material.RoleAlbedo, writePNG(t, dir, "albedo.png", color.RGBA{1, 2, 3, 255}, 4)); err != nil {
		t.Fatal(err)
	}
	s.SetTarget(filepath.Join(out, "broken.vmt"))

	err := s.Export()
	var missing *material.MissingChannelError
	if !errors.As(err, &missing) {
		t.Fatalf("Export() error = %v, want MissingChannelError", err)
	}
	if missing.Role != material.RoleRoughness {
		t.Errorf("missing role = %v, want roughness", missing.Role)
	}

	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("failed export wrote %d files", len(entries))
	}
}

func TestExportDropsConcurrentCall(t *testing.T) {
	s, _ := newTestSession(t)
	out := t.TempDir()

	block := make(chan struct{})
	entered := make(chan struct{})
	prompts := 0
	s.PromptTarget = func() (string, error) {
		prompts++
		close(entered)
		<-block
		return filepath.Join(out, "one.vmt"), nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Export() }()
	<-entered

	// The first export is parked in the prompt; this call must be dropped,
	// not queued behind it.
	if err := s.Export(); err != nil {
		t.Fatalf("concurrent Export() error = %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("blocked Export() error = %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompt ran %d times, want 1", prompts)
	}
	if _, err := os.Stat(filepath.Join(out, "one.vmt")); err != nil {
		t.Errorf("descriptor missing: %v", err)
	}
}

func TestWatchReExports(t *testing.T) {
	s, dir := newTestSession(t)
	out := t.TempDir()

	var exports atomic.Int32
	s.Exported = func() { exports.Add(1) }
	s.Reload = true
	s.Debounce = 50 * time.Millisecond
	s.SetTarget(filepath.Join(out, "live.vmt"))

	if err := s.StartWatch(); err != nil {
		t.Fatalf("StartWatch() error = %v", err)
	}
	defer s.StopWatch()

	if !s.Watching() {
		t.Fatal("Watching() = false after StartWatch")
	}

	// Overwrite a source; the watch must push a fresh export.
	writePNG(t, dir, "albedo.png", color.RGBA{200, 200, 200, 255}, 4)

	deadline := time.Now().Add(2 * time.Second)
	for exports.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if exports.Load() == 0 {
		t.Fatal("no export after watched file changed")
	}
	if _, err := os.Stat(filepath.Join(out, "live.vmt")); err != nil {
		t.Errorf("descriptor missing: %v", err)
	}
}

func TestWatchSetFollowsPicks(t *testing.T) {
	s, dir := newTestSession(t)
	s.SetTarget(filepath.Join(t.TempDir(), "m.vmt"))

	if err := s.StartWatch(); err != nil {
		t.Fatalf("StartWatch() error = %v", err)
	}
	defer s.StopWatch()

	if got := len(s.WatchedPaths()); got != 2 {
		t.Fatalf("WatchedPaths() has %d entries, want 2", got)
	}

	// The swap lands on the watch loop; poll until the set catches up.
	waitForPaths := func(want int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if len(s.WatchedPaths()) == want {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("WatchedPaths() has %d entries, want %d", len(s.WatchedPaths()), want)
	}

	if _, err := s.Pick(material.RoleNormal, writePNG(t, dir, "normal.png", color.RGBA{128, 128, 255, 255}, 4)); err != nil {
		t.Fatal(err)
	}
	waitForPaths(3)

	s.Clear(material.RoleNormal)
	waitForPaths(2)
}

func TestApplyPreset(t *testing.T) {
	s, dir := newTestSession(t)
	s.SetTarget(filepath.Join(t.TempDir(), "old.vmt"))

	p := &preset.Preset{
		Channels: preset.ChannelPaths{
			Albedo:    filepath.Join(dir, "albedo.png"),
			Roughness: filepath.Join(dir, "rough.png"),
			Metallic:  filepath.Join(dir, "metal.png"),
		},
	}
	s.ApplyPreset(p)

	if _, ok := s.Target(); ok {
		t.Error("target survived preset application")
	}
	if got := len(s.Store.Paths()); got != 3 {
		t.Errorf("store has %d paths after preset, want 3", got)
	}
	if s.Store.Path(material.RoleMetallic) != filepath.Join(dir, "metal.png") {
		t.Error("preset metallic path not applied")
	}
}

func TestWatchRequiresTarget(t *testing.T) {
	s, _ := newTestSession(t)

	// No target and no prompt: watch cannot start.
	if err := s.StartWatch(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("StartWatch() error = %v, want ErrCancelled", err)
	}
	if s.Watching() {
		t.Error("Watching() = true after refused start")
	}
}

func TestStopWatchIdle(t *testing.T) {
	s := New()
	s.StopWatch() // no-op without an active watch
	if s.Watching() {
		t.Error("Watching() = true on a fresh session")
	}
}
