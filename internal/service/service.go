// Package service owns the live icon state and exposes the operations the
// CLI and host surfaces call. All state lives on a single dispatch loop;
// public methods are safe to call from any goroutine except that loop.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/dispatch"
	"github.com/oukeidos/iconic/internal/ingest"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/overrides"
	"github.com/oukeidos/iconic/internal/remote"
	"github.com/oukeidos/iconic/internal/rotation"
	"github.com/oukeidos/iconic/internal/selection"
)

// Fetcher downloads an image body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (remote.Download, error)
}

type Options struct {
	Paths    config.Paths
	Fetcher  Fetcher
	Selector *selection.Selector
	Now      func() time.Time
	// QueueSize bounds the dispatch queue; zero uses the default.
	QueueSize int
	// SkipDropFolder leaves the drop folder alone during Open.
	SkipDropFolder bool
}

type Service struct {
	paths     config.Paths
	loop      *dispatch.Loop
	pipeline  *ingest.Pipeline
	fetcher   Fetcher
	selector  *selection.Selector
	scheduler *rotation.Scheduler
	now       func() time.Time

	// Owned by the loop.
	cfg          config.Config
	mode         selection.Mode
	snapshot     *catalog.Snapshot
	cursor       int
	current      *catalog.Icon
	defaultIcon  *catalog.Icon
	overrides    *overrides.Map
	rotating     bool
	appliedScans uint64

	scans  atomic.Uint64
	saveMu sync.Mutex
	closed atomic.Bool
}

// Open loads configuration, ingests pending drop-folder images and builds
// the first catalog snapshot. Rotation is not started; see StartRotation.
func Open(ctx context.Context, opts Options) (*Service, error) {
	if err := opts.Paths.Ensure(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.Paths.Config)
	if err != nil {
		return nil, err
	}
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config adjusted", "note", note)
	}

	s := &Service{
		paths:    opts.Paths,
		loop:     dispatch.New(opts.QueueSize),
		pipeline: ingest.New(opts.Paths.Icons, opts.Paths.Input),
		fetcher:  opts.Fetcher,
		selector: opts.Selector,
		now:      opts.Now,
		cfg:      cfg,
		mode:     cfg.SelectionMode(),
		snapshot: catalog.Empty(),
		cursor:   rotation.Unset,
	}
	if s.fetcher == nil {
		s.fetcher = remote.NewFetcher()
	}
	if s.selector == nil {
		s.selector = selection.NewSelector()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.overrides = loadOverrides(cfg.DateIcons)
	s.scheduler = rotation.NewScheduler(s.loop.Post, s.tick)
	s.loop.Start(ctx)

	if !opts.SkipDropFolder {
		if _, err := s.pipeline.ProcessDropFolder(ctx); err != nil {
			logger.Warn("Drop folder processing failed", "error", err)
		}
	}
	if _, err := s.Refresh(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close stops rotation and the dispatch loop. It waits for background work.
func (s *Service) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	err := s.loop.Do(context.Background(), func() {
		s.rotating = false
		s.scheduler.Stop()
	})
	s.loop.Close()
	s.loop.Wait()
	if err != nil {
		// The loop is gone, so nothing else touches the scheduler.
		s.scheduler.Stop()
	}
}

// Paths reports the data layout this service manages.
func (s *Service) Paths() config.Paths {
	return s.paths
}

// Go runs fn in the background under the service's panic guard. Close waits
// for it.
func (s *Service) Go(scope string, fn func()) {
	s.loop.Go(scope, fn)
}

// StartRotation enables the rotation scheduler. It only ticks while the
// mode is cycle; later mode and interval changes start, stop or restart it.
func (s *Service) StartRotation(ctx context.Context) error {
	return s.loop.Do(ctx, func() {
		s.rotating = true
		s.syncScheduler(true)
	})
}

func loadOverrides(raw map[string]string) *overrides.Map {
	m, errs := overrides.FromConfig(raw)
	for _, err := range errs {
		logger.Warn("Ignoring date-specific icon", "error", err)
	}
	return m
}
