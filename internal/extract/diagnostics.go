package extract

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/memdex/merchpipe/internal/browser"
)

// Diagnostics captures page state for manual inspection when an
// extraction comes up empty. It is a side channel: every capture is
// best-effort and silently tolerates failure.
type Diagnostics struct {
	dir    string
	logger *slog.Logger
}

// NewDiagnostics creates a capture sink rooted at dir.
func NewDiagnostics(dir string, logger *slog.Logger) *Diagnostics {
	return &Diagnostics{
		dir:    dir,
		logger: logger.With("component", "diagnostics"),
	}
}

// Screenshot saves a full-page screenshot under the diagnostics dir.
func (d *Diagnostics) Screenshot(sess *browser.Session, name string) {
	if d == nil {
		return
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Debug("diagnostics dir unavailable", "error", err)
		return
	}
	sess.Screenshot(filepath.Join(d.dir, name+".png"))
}

// PageDump saves the current page markup under the diagnostics dir.
func (d *Diagnostics) PageDump(sess *browser.Session, name string) {
	if d == nil {
		return
	}
	markup, err := sess.HTML()
	if err != nil {
		d.logger.Debug("page dump skipped", "name", name, "error", err)
		return
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return
	}
	path := filepath.Join(d.dir, name+".html")
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		d.logger.Debug("page dump write failed", "path", path, "error", err)
		return
	}
	d.logger.Info("diagnostic page dump saved", "path", path)
}
