// Package pipeline drives a material from picked source textures to
// exported game assets, optionally re-running the export when a source
// file changes.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sourcetex/matforge/internal/export"
	"github.com/sourcetex/matforge/internal/logger"
	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/internal/preset"
	"github.com/sourcetex/matforge/internal/store"
	"github.com/sourcetex/matforge/internal/watch"
)

// ErrCancelled reports that no output target was chosen. It is a quiet
// abort, not a failure.
var ErrCancelled = errors.New("export cancelled")

// Progress milestones passed to the Progress callback.
const (
	ProgressStart     = 0
	ProgressAssembled = 50
	ProgressDone      = 100
)

// Session holds the state of one material being authored: the picked
// source textures, the shading mode and game target, and the export
// destination once chosen.
//
// Export may be called from any goroutine; a call arriving while another
// export is in flight is dropped silently. StartWatch and StopWatch are
// meant to be driven from a single goroutine.
type Session struct {
	// Store holds the picked source textures.
	Store *store.Store

	// Mode selects the descriptor recipe; Game selects texture versions.
	Mode material.Mode
	Game material.GameTarget

	// Reload re-decodes every source file from disk on export instead of
	// using the images cached at pick time.
	Reload bool
	// Mipmaps enables mipmap chains in exported textures.
	Mipmaps bool
	// Debounce overrides the watch debounce window when positive.
	Debounce time.Duration

	// PromptTarget supplies an output file path when no target is set.
	// An empty path cancels the export.
	PromptTarget func() (string, error)
	// Progress, when set, receives milestone percentages during an export.
	Progress func(percent int)
	// Exported, when set, runs after all output files hit disk.
	Exported func()

	mu      sync.Mutex
	target  *export.Target
	watcher *watch.Controller

	exporting atomic.Bool
}

// New returns a session with an empty store and mipmaps enabled.
func New() *Session {
	return &Session{
		Store:   store.New(),
		Mipmaps: true,
	}
}

// Pick decodes path into role's slot and realigns the watch set. The
// decoded image is returned for preview use.
func (s *Session) Pick(role material.Role, path string) (image.Image, error) {
	img, err := s.Store.Pick(role, path)
	if err != nil {
		return nil, err
	}
	s.resetWatch()
	return img, nil
}

// SetPath assigns path to role without decoding it, realigning the watch
// set. Decoding happens lazily on the next export.
func (s *Session) SetPath(role material.Role, path string) {
	s.Store.SetPath(role, path)
	s.resetWatch()
}

// Clear removes the texture assigned to role and realigns the watch set.
func (s *Session) Clear(role material.Role) {
	s.Store.Clear(role)
	s.resetWatch()
}

// ApplyPreset assigns every channel path the preset names, without
// decoding, and forgets the export destination: a preset describes a
// different material, so a previously chosen destination no longer
// applies. Parsing the preset's game and mode names is the caller's job.
func (s *Session) ApplyPreset(p *preset.Preset) {
	for _, role := range material.Roles() {
		if path := p.Channels.PathFor(role); path != "" {
			s.SetPath(role, path)
		}
	}
	s.ClearTarget()
}

// SetTarget fixes the export destination derived from outputPath.
func (s *Session) SetTarget(outputPath string) {
	t := export.ResolveTarget(outputPath)
	s.mu.Lock()
	s.target = &t
	s.mu.Unlock()
}

// ClearTarget forgets the destination; the next export prompts again.
func (s *Session) ClearTarget() {
	s.mu.Lock()
	s.target = nil
	s.mu.Unlock()
}

// Target returns the current destination and whether one is set.
func (s *Session) Target() (export.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return export.Target{}, false
	}
	return *s.target, true
}

// Export runs the pipeline once: gather channels, normalize, prompt for a
// target if none is set, assemble, build, persist. A call arriving while
// another export is in flight is dropped silently; a cancelled target
// prompt aborts without error. Progress resets to the start milestone on
// any abort.
func (s *Session) Export() error {
	if !s.exporting.CompareAndSwap(false, true) {
		logger.Debug("export already running, request dropped")
		return nil
	}
	defer s.exporting.Store(false)

	s.progress(ProgressStart)
	if err := s.export(); err != nil {
		s.progress(ProgressStart)
		if errors.Is(err, ErrCancelled) {
			logger.Info("export cancelled")
			return nil
		}
		return err
	}
	return nil
}

// ExportAs discards the stored destination before exporting, forcing the
// target prompt to run again.
func (s *Session) ExportAs() error {
	s.ClearTarget()
	return s.Export()
}

func (s *Session) export() error {
	channels, err := s.Store.Channels(!s.Reload)
	if err != nil {
		return err
	}
	n, err := material.Normalize(channels)
	if err != nil {
		return err
	}

	t, err := s.resolveTarget()
	if err != nil {
		return err
	}

	m, err := material.Assemble(s.Mode, s.Game, t.Name, n)
	if err != nil {
		return err
	}
	s.progress(ProgressAssembled)

	descriptor, artifacts, err := export.Build(m, &export.Options{Mipmaps: s.Mipmaps})
	if err != nil {
		return err
	}
	if err := export.Persist(t, descriptor, artifacts); err != nil {
		return err
	}
	s.progress(ProgressDone)

	if s.Exported != nil {
		s.Exported()
	}
	logger.Info("material exported",
		zap.String("name", m.Name),
		zap.String("dir", t.Dir),
		zap.Int("textures", len(artifacts)))
	return nil
}

// resolveTarget returns the stored destination, prompting for one first
// when none is set. A chosen destination is kept for later exports.
func (s *Session) resolveTarget() (export.Target, error) {
	if t, ok := s.Target(); ok {
		return t, nil
	}
	if s.PromptTarget == nil {
		return export.Target{}, ErrCancelled
	}
	path, err := s.PromptTarget()
	if err != nil {
		return export.Target{}, fmt.Errorf("target prompt: %w", err)
	}
	if path == "" {
		return export.Target{}, ErrCancelled
	}

	t := export.ResolveTarget(path)
	s.mu.Lock()
	s.target = &t
	s.mu.Unlock()
	return t, nil
}

func (s *Session) progress(percent int) {
	if s.Progress != nil {
		s.Progress(percent)
	}
}

// StartWatch begins re-exporting whenever a picked source file changes.
// When no destination is set the target prompt runs first, so the watch
// loop itself never blocks on user input. Watching while already watching
// is a no-op.
func (s *Session) StartWatch() error {
	if s.Watching() {
		return nil
	}
	if _, err := s.resolveTarget(); err != nil {
		return err
	}

	var opt *watch.Options
	if s.Debounce > 0 {
		opt = &watch.Options{Debounce: s.Debounce}
	}
	w, err := watch.Start(s.Store.Paths(), s.watchExport, opt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	logger.Info("watching source files", zap.Int("count", len(w.Paths())))
	return nil
}

// StopWatch ends watching. Safe to call when no watch is active.
func (s *Session) StopWatch() {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Stop()
		logger.Info("stopped watching source files")
	}
}

// Watching reports whether a watch loop is active.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil
}

// WatchedPaths returns the paths the active watch covers, nil when idle.
func (s *Session) WatchedPaths() []string {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Paths()
}

// resetWatch realigns the watch set with the store's current paths.
// SetPaths can block until the watch loop finishes an in-flight export,
// and that export takes s.mu, so the call happens outside the lock.
func (s *Session) resetWatch() {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w != nil {
		w.SetPaths(s.Store.Paths())
	}
}

// watchExport runs on the watch goroutine. Errors are logged, not
// returned; the watch stays alive for the next change.
func (s *Session) watchExport() {
	if err := s.Export(); err != nil {
		logger.Error("export after file change failed", zap.Error(err))
	}
}
