// Package watch re-runs an export whenever a watched source file changes,
// debouncing bursts of filesystem events.
package watch

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sourcetex/matforge/internal/logger"
)

// DefaultDebounce is the quiet window after the last change before the
// export callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Controller.
type Options struct {
	// Debounce overrides the debounce window (default DefaultDebounce).
	Debounce time.Duration
}

// Controller re-exports a material when its source files change. All
// watcher and timer state is owned by a single event-loop goroutine; the
// export callback runs on that goroutine, so changes arriving mid-export
// queue in the watcher channel instead of running concurrently.
type Controller struct {
	fw       *fsnotify.Watcher
	export   func()
	debounce time.Duration

	setc     chan []string
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Start watches paths and arranges for export to run once changes settle.
func Start(paths []string, export func(), opt *Options) (*Controller, error) {
	debounce := DefaultDebounce
	if opt != nil && opt.Debounce > 0 {
		debounce = opt.Debounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		fw:       fw,
		export:   export,
		debounce: debounce,
		setc:     make(chan []string),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	c.addAll(paths)

	go c.run()
	return c, nil
}

// SetPaths replaces the watch set. Safe to call from any goroutine; the
// swap happens on the event loop. A pending debounce window is unaffected.
func (c *Controller) SetPaths(paths []string) {
	ps := make([]string, len(paths))
	copy(ps, paths)
	select {
	case c.setc <- ps:
	case <-c.quit:
	}
}

// Paths returns the currently watched paths.
func (c *Controller) Paths() []string {
	return c.fw.WatchList()
}

// Stop ends watching and waits for the event loop to exit. An export
// already in flight finishes; a pending debounce window is cancelled.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
	<-c.stopped
}

// addAll watches every path. A file that cannot be watched is logged and
// skipped so the rest of the set stays alive.
func (c *Controller) addAll(paths []string) {
	for _, p := range paths {
		if err := c.fw.Add(p); err != nil {
			logger.Warn("cannot watch source file", zap.String("path", p), zap.Error(err))
		}
	}
}

// relevantOps are the event kinds that mean file content may have changed.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// run is the event loop. It owns the fsnotify watcher and the one-shot
// debounce timer.
func (c *Controller) run() {
	defer close(c.stopped)
	defer c.fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-c.fw.Events:
			if !ok {
				return
			}
			if ev.Op&relevantOps == 0 {
				continue
			}
			logger.Debug("source file changed",
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()))
			c.readd(ev)

			if timer == nil {
				timer = time.NewTimer(c.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(c.debounce)
			}

		case err, ok := <-c.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			timer = nil
			fire = nil
			c.export()
			c.reconcile()

		case paths := <-c.setc:
			for _, p := range c.fw.WatchList() {
				if err := c.fw.Remove(p); err != nil {
					logger.Debug("removing watch failed", zap.String("path", p), zap.Error(err))
				}
			}
			c.addAll(paths)

		case <-c.quit:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// readd restores the watch on a file that an editor replaced. Remove and
// Rename drop the underlying watch even though the path usually exists
// again right after the save.
func (c *Controller) readd(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if err := c.fw.Add(ev.Name); err != nil {
		logger.Debug("re-adding watch failed", zap.String("path", ev.Name), zap.Error(err))
	}
}

// reconcile drains events that piled up during an export. They restore
// dropped watches but never start a new debounce window; an export is not
// its own change trigger.
func (c *Controller) reconcile() {
	for {
		select {
		case ev, ok := <-c.fw.Events:
			if !ok {
				return
			}
			c.readd(ev)
		default:
			return
		}
	}
}
