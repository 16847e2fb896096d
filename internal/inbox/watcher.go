package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last event
// before processing.
const DefaultDebounce = 500 * time.Millisecond

// Watcher runs a Processor whenever files land in the import directory.
type Watcher struct {
	proc     *Processor
	debounce time.Duration
	logger   *zap.Logger

	// OnPass, when set, is called after every processing pass.
	OnPass func(Report)
}

// NewWatcher creates a Watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(proc *Processor, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{proc: proc, debounce: debounce, logger: logger}
}

// Run processes the current backlog, then watches import/ until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	dir := ImportDir(w.proc.Root())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating import dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching inbox", zap.String("dir", dir))

	w.pass(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("inbox event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			w.pass(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return w.proc.pipeline.Codecs().Supported(name)
}

func (w *Watcher) pass(ctx context.Context) {
	rep, err := w.proc.ProcessAll(ctx)
	if err != nil && ctx.Err() == nil {
		w.logger.Error("inbox pass failed", zap.Error(err))
	}
	if len(rep.Processed)+len(rep.Failed) > 0 {
		w.logger.Info("inbox pass complete",
			zap.Int("processed", len(rep.Processed)), zap.Int("failed", len(rep.Failed)))
	}
	if w.OnPass != nil {
		w.OnPass(rep)
	}
}
