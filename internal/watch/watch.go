// Package watch reacts to changes in the data directory while serving.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/ingest"
	"github.com/oukeidos/iconic/internal/logger"
)

const (
	DefaultQuiet = time.Second
	DefaultPoll  = 250 * time.Millisecond
)

type Target int

const (
	TargetDrop Target = iota + 1
	TargetIcons
	TargetConfig
)

func (t Target) String() string {
	switch t {
	case TargetDrop:
		return "drop"
	case TargetIcons:
		return "icons"
	case TargetConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Handlers are called from the watcher goroutine, one at a time.
type Handlers struct {
	Drop   func(ctx context.Context)
	Icons  func(ctx context.Context)
	Config func(ctx context.Context)
}

type Watcher struct {
	paths    config.Paths
	handlers Handlers
	// Quiet is how long a target must see no events before its handler runs.
	Quiet time.Duration
	Poll  time.Duration
}

func New(paths config.Paths, h Handlers) *Watcher {
	return &Watcher{paths: paths, handlers: h, Quiet: DefaultQuiet, Poll: DefaultPoll}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{w.paths.Input, w.paths.Icons, filepath.Dir(w.paths.Config)} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Debug("Watching data directory", "root", w.paths.Root)

	pending := make(map[Target]time.Time)
	ticker := time.NewTicker(w.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if target, ok := w.classify(event); ok {
				pending[target] = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		case <-ticker.C:
			now := time.Now()
			// Drop before icons so an ingest and its refresh coalesce.
			for _, target := range []Target{TargetConfig, TargetDrop, TargetIcons} {
				last, ok := pending[target]
				if !ok || now.Sub(last) < w.Quiet {
					continue
				}
				delete(pending, target)
				w.dispatch(ctx, target)
			}
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, target Target) {
	var fn func(context.Context)
	switch target {
	case TargetDrop:
		fn = w.handlers.Drop
	case TargetIcons:
		fn = w.handlers.Icons
	case TargetConfig:
		fn = w.handlers.Config
	}
	if fn == nil {
		return
	}
	logger.Debug("Change detected", "target", target.String())
	fn(ctx)
}

// classify maps an event to the target it affects.
func (w *Watcher) classify(event fsnotify.Event) (Target, bool) {
	dir := filepath.Dir(event.Name)
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return 0, false
	}
	switch {
	case sameDir(dir, w.paths.Input):
		if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && ingest.IsDropFile(base) {
			return TargetDrop, true
		}
	case sameDir(dir, w.paths.Icons):
		if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 && catalog.IsCatalogFile(base) {
			return TargetIcons, true
		}
	case sameDir(dir, filepath.Dir(w.paths.Config)):
		if base == filepath.Base(w.paths.Config) && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
			return TargetConfig, true
		}
	}
	return 0, false
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
