package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/files"
	"github.com/oukeidos/iconic/internal/ingest"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/overrides"
	"github.com/oukeidos/iconic/internal/rotation"
	"github.com/oukeidos/iconic/internal/selection"
)

// ListEntry is one catalog icon annotated with the references to it.
type ListEntry struct {
	Index   int
	Name    string
	Default bool
	Current bool
	Dates   []string
}

// Status summarizes the live state.
type Status struct {
	Mode             selection.Mode
	IntervalSeconds  int
	DefaultIcon      string
	DefaultAvailable bool
	Current          string
	Icons            int
	DateIcons        map[string]string
	Rotating         bool
}

// Refresh rescans the icons directory and swaps in the new snapshot. A scan
// that finishes after a newer one is discarded.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	seq := s.scans.Add(1)
	snap, err := catalog.Scan(ctx, s.paths.Icons)
	if err != nil {
		return 0, err
	}
	var live int
	stale := false
	err = s.loop.Do(ctx, func() {
		if seq < s.appliedScans {
			stale = true
		} else {
			s.appliedScans = seq
			s.applySnapshot(snap)
		}
		live = s.snapshot.Len()
	})
	if err != nil {
		return 0, err
	}
	if stale {
		logger.Debug("Discarded stale catalog scan", "scan", seq, "icons", live)
		return live, nil
	}
	logger.Info("Icon list refreshed", "icons", live)
	return live, nil
}

// Download fetches url, stores it as name and refreshes the catalog. An
// empty name picks a fresh generated one.
func (s *Service) Download(ctx context.Context, url, name string) (ingest.Result, error) {
	target, err := s.downloadName(name)
	if err != nil {
		return ingest.Result{}, err
	}
	dl, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return ingest.Result{}, err
	}
	res, err := s.pipeline.Commit(target, dl.Data)
	if err != nil {
		return ingest.Result{}, err
	}
	if _, err := s.Refresh(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// DownloadName reports the file name a download with name would be stored
// under, without touching the network.
func (s *Service) DownloadName(name string) (string, error) {
	return s.downloadName(name)
}

func (s *Service) downloadName(name string) (string, error) {
	if name == "" {
		unique, _, err := files.UniqueName(s.paths.Icons, ingest.GeneratedName(s.now()))
		return unique, err
	}
	if err := ingest.ValidateName(name); err != nil {
		return "", err
	}
	return ingest.EnsureExt(name), nil
}

// IconExists reports whether an icon file named name is on disk.
func (s *Service) IconExists(name string) bool {
	return s.pipeline.Exists(name)
}

// SetDefault makes the identified icon the default and persists it.
func (s *Service) SetDefault(ctx context.Context, identifier string) (string, error) {
	var name string
	err := s.do(ctx, func() error {
		e, err := s.resolve(identifier)
		if err != nil {
			return err
		}
		name = e.Name
		s.cfg.DefaultIcon = e.Name
		s.defaultIcon = e.Icon
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, s.persist(ctx)
}

// List returns the catalog in index order.
func (s *Service) List(ctx context.Context) ([]ListEntry, error) {
	var out []ListEntry
	err := s.loop.Do(ctx, func() {
		dates := make(map[string][]string)
		for _, key := range s.overrides.Keys() {
			name, _ := s.overrides.Lookup(key)
			dates[name] = append(dates[name], key)
		}
		for _, e := range s.snapshot.Entries() {
			out = append(out, ListEntry{
				Index:   e.Index,
				Name:    e.Name,
				Default: s.defaultIcon != nil && s.defaultIcon.Name == e.Name,
				Current: s.current != nil && s.current.Name == e.Name,
				Dates:   dates[e.Name],
			})
		}
	})
	return out, err
}

// Status reports the live state.
func (s *Service) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.loop.Do(ctx, func() {
		st = Status{
			Mode:             s.mode,
			IntervalSeconds:  s.cfg.RotationInterval,
			DefaultIcon:      s.cfg.DefaultIcon,
			DefaultAvailable: s.defaultIcon != nil,
			Icons:            s.snapshot.Len(),
			DateIcons:        s.overrides.All(),
			Rotating:         s.scheduler.Running(),
		}
		if s.current != nil {
			st.Current = s.current.Name
		}
	})
	return st, err
}

// ProcessInput ingests the drop folder and refreshes when anything landed.
func (s *Service) ProcessInput(ctx context.Context) (ingest.Report, error) {
	report, err := s.pipeline.ProcessDropFolder(ctx)
	if err != nil {
		return report, err
	}
	if report.Changed() {
		if _, err := s.Refresh(ctx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// SetInterval changes the rotation interval. A running cycle rotation is
// restarted with the new interval.
func (s *Service) SetInterval(ctx context.Context, seconds int) error {
	if _, err := rotation.Interval(seconds); err != nil {
		return err
	}
	err := s.do(ctx, func() error {
		s.cfg.RotationInterval = seconds
		if s.mode == selection.ModeCycle {
			s.syncScheduler(true)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.persist(ctx)
}

// SetMode switches the selection mode and starts or stops rotation to match.
func (s *Service) SetMode(ctx context.Context, name string) (selection.Mode, error) {
	mode, err := selection.ParseMode(name)
	if err != nil {
		return "", err
	}
	err = s.do(ctx, func() error {
		prev := s.mode
		s.mode = mode
		s.cfg.Mode = string(mode)
		s.syncScheduler(prev != mode)
		return nil
	})
	if err != nil {
		return "", err
	}
	return mode, s.persist(ctx)
}

// AddDateIcon shows the identified icon on the given day. It returns the
// normalized day key and the icon's file name.
func (s *Service) AddDateIcon(ctx context.Context, day, identifier string) (string, string, error) {
	var key, name string
	err := s.do(ctx, func() error {
		if _, err := overrides.NormalizeKey(day); err != nil {
			return err
		}
		e, err := s.resolve(identifier)
		if err != nil {
			return err
		}
		k, err := s.overrides.Add(day, e.Name)
		if err != nil {
			return err
		}
		key, name = k, e.Name
		s.cfg.DateIcons[k] = e.Name
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return key, name, s.persist(ctx)
}

// RemoveDateIcon deletes the override for day and reports whether one existed.
func (s *Service) RemoveDateIcon(ctx context.Context, day string) (bool, error) {
	var removed bool
	err := s.do(ctx, func() error {
		key, err := overrides.NormalizeKey(day)
		if err != nil {
			return err
		}
		removed, err = s.overrides.Remove(key)
		if err != nil {
			return err
		}
		delete(s.cfg.DateIcons, key)
		return nil
	})
	if err != nil || !removed {
		return removed, err
	}
	return true, s.persist(ctx)
}

// Rename moves the identified icon to newName and re-points the default and
// date-specific references that used the old name.
func (s *Service) Rename(ctx context.Context, identifier, newName string) (string, string, error) {
	if err := ingest.ValidateName(newName); err != nil {
		return "", "", err
	}
	newName = ingest.EnsureExt(newName)

	var oldName string
	err := s.do(ctx, func() error {
		e, err := s.resolve(identifier)
		if err != nil {
			return err
		}
		oldName = e.Name
		return nil
	})
	if err != nil {
		return "", "", err
	}
	if oldName == newName {
		return oldName, newName, nil
	}

	if err := files.RenameNoClobber(s.pipeline.Path(oldName), s.pipeline.Path(newName)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", "", apperrors.Newf(apperrors.KindNameConflict, err, "An icon named %s already exists.", newName)
		}
		if errors.Is(err, os.ErrNotExist) {
			return "", "", apperrors.NotFound(oldName)
		}
		return "", "", err
	}

	changed := false
	err = s.do(ctx, func() error {
		if s.cfg.DefaultIcon == oldName {
			s.cfg.DefaultIcon = newName
			changed = true
		}
		if s.overrides.Rename(oldName, newName) > 0 {
			s.cfg.DateIcons = s.overrides.All()
			changed = true
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	if changed {
		if err := s.persist(ctx); err != nil {
			return oldName, newName, err
		}
	}
	if _, err := s.Refresh(ctx); err != nil {
		return oldName, newName, err
	}
	return oldName, newName, nil
}

// Select answers a status query at now. It returns nil when no icon applies.
func (s *Service) Select(ctx context.Context, now time.Time) (*catalog.Icon, error) {
	var icon *catalog.Icon
	err := s.loop.Do(ctx, func() {
		icon = s.selector.Select(now, s.selectionState(), s.overrides)
	})
	return icon, err
}

// StatusIcon is Select at the current time.
func (s *Service) StatusIcon(ctx context.Context) (*catalog.Icon, error) {
	return s.Select(ctx, s.now())
}

// ReloadConfig re-reads the settings file and applies what changed.
func (s *Service) ReloadConfig(ctx context.Context) error {
	cfg, err := config.Load(s.paths.Config)
	if err != nil {
		return err
	}
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config adjusted", "note", note)
	}
	return s.loop.Do(ctx, func() {
		prevMode, prevInterval := s.mode, s.cfg.RotationInterval
		s.cfg = cfg
		s.mode = cfg.SelectionMode()
		s.overrides = loadOverrides(cfg.DateIcons)
		s.resolveDefault()
		s.syncScheduler(prevMode != s.mode || prevInterval != cfg.RotationInterval)
		if prevMode != s.mode || prevInterval != cfg.RotationInterval {
			logger.Info("Config reloaded", "mode", s.mode, "interval", cfg.RotationInterval)
		}
	})
}
