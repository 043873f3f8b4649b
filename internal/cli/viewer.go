package cli

import (
	"os/exec"

	"go.uber.org/zap"

	"github.com/sourcetex/matforge/internal/logger"
	"github.com/sourcetex/matforge/internal/pipeline"
)

// reloadViewer asks a running model viewer to re-read the exported
// material. Failures are logged and swallowed; the export itself already
// succeeded.
func reloadViewer(s *pipeline.Session) {
	if cfg.Viewer.Command == "" || !cfg.Viewer.Reload {
		return
	}
	t, ok := s.Target()
	if !ok {
		return
	}

	c := exec.Command(cfg.Viewer.Command, "-hijack", "+mat_reloadmaterial "+t.Name)
	if err := c.Start(); err != nil {
		logger.Warn("viewer reload failed",
			zap.String("command", cfg.Viewer.Command),
			zap.Error(err))
		return
	}
	// Detached; the viewer outlives this process.
	if err := c.Process.Release(); err != nil {
		logger.Debug("viewer process release failed", zap.Error(err))
	}
	logger.Info("viewer reload requested", zap.String("material", t.Name))
}
