package service

import (
	"context"
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/rotation"
	"github.com/oukeidos/iconic/internal/selection"
)

// Everything in this file runs on the dispatch loop.

func (s *Service) tick() {
	size := s.snapshot.Len()
	s.cursor = rotation.Advance(s.cursor, size)
	s.current = s.iconAt(s.cursor)
	if s.current != nil {
		logger.Debug("Rotated icon", "index", s.cursor, "name", s.current.Name)
	}
}

func (s *Service) iconAt(i int) *catalog.Icon {
	e, ok := s.snapshot.At(i)
	if !ok {
		return nil
	}
	return e.Icon
}

// applySnapshot swaps in snap and re-resolves every filename reference.
func (s *Service) applySnapshot(snap *catalog.Snapshot) {
	prev := s.current
	s.snapshot = snap

	switch {
	case snap.Len() == 0:
		s.cursor = rotation.Unset
		s.current = nil
	case prev != nil:
		if e, ok := snap.Lookup(prev.Name); ok {
			s.cursor = e.Index
			s.current = e.Icon
		} else {
			s.cursor = rotation.Clamp(s.cursor, snap.Len())
			s.current = s.iconAt(s.cursor)
		}
	default:
		s.cursor = rotation.Clamp(s.cursor, snap.Len())
		s.current = s.iconAt(s.cursor)
	}

	s.resolveDefault()
	for _, key := range s.overrides.Keys() {
		name, _ := s.overrides.Lookup(key)
		if _, ok := snap.Lookup(name); !ok {
			logger.Warn("Date-specific icon not found", "date", key, "icon", name)
		}
	}
}

func (s *Service) resolveDefault() {
	icon, err := s.snapshot.LookupDefault(s.cfg.DefaultIcon)
	if err != nil {
		logger.Warn("Default icon not found", "icon", s.cfg.DefaultIcon)
	}
	s.defaultIcon = icon
}

// syncScheduler makes the scheduler match the mode. restart forces a new
// ticker even when one is already running in cycle mode.
func (s *Service) syncScheduler(restart bool) {
	if !s.rotating || s.mode != selection.ModeCycle {
		s.scheduler.Stop()
		return
	}
	if s.scheduler.Running() && !restart {
		return
	}
	interval, err := rotation.Interval(s.cfg.RotationInterval)
	if err != nil {
		interval = rotation.DefaultIntervalSeconds * time.Second
	}
	s.scheduler.Start(interval)
}

func (s *Service) selectionState() selection.State {
	return selection.State{
		Mode:     s.mode,
		Snapshot: s.snapshot,
		Current:  s.current,
		Default:  s.defaultIcon,
	}
}

// do runs fn on the loop and returns fn's error.
func (s *Service) do(ctx context.Context, fn func() error) error {
	var opErr error
	if err := s.loop.Do(ctx, func() { opErr = fn() }); err != nil {
		return err
	}
	return opErr
}

// persist writes the latest configuration. saveMu orders concurrent saves so
// the file always ends up with the newest state.
func (s *Service) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	var cfg config.Config
	if err := s.loop.Do(ctx, func() { cfg = s.cfg.Clone() }); err != nil {
		return err
	}
	if err := config.Save(s.paths.Config, cfg); err != nil {
		logger.Error("Failed to save config", "path", s.paths.Config, "error", err)
		return err
	}
	return nil
}

func (s *Service) resolve(identifier string) (catalog.Entry, error) {
	e, err := s.snapshot.Resolve(identifier)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			logger.Debug("Icon lookup failed", "identifier", identifier)
		}
		return catalog.Entry{}, err
	}
	return e, nil
}
