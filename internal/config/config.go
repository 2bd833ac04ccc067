// Package config reads and writes the persisted settings file and the
// process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/files"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/overrides"
	"github.com/oukeidos/iconic/internal/rotation"
	"github.com/oukeidos/iconic/internal/selection"
)

const fileHeader = "# iconic settings. Edits are picked up by a running `iconic serve`.\n\n"

// Config is the content of config.toml.
type Config struct {
	Mode             string            `toml:"icon-selection-mode"`
	RotationInterval int               `toml:"icon-rotation-interval"`
	DefaultIcon      string            `toml:"default-icon,omitempty"`
	DateIcons        map[string]string `toml:"date-specific-icons"`
}

func Default() Config {
	return Config{
		Mode:             string(selection.DefaultMode),
		RotationInterval: rotation.DefaultIntervalSeconds,
		DateIcons:        map[string]string{},
	}
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}
	for _, key := range meta.Undecoded() {
		logger.Warn("Unknown config key ignored", "key", key.String())
	}
	if cfg.DateIcons == nil {
		cfg.DateIcons = map[string]string{}
	}
	return cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if cfg.DateIcons == nil {
		cfg.DateIcons = map[string]string{}
	}
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := files.AtomicWrite(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.DateIcons = make(map[string]string, len(c.DateIcons))
	for k, v := range c.DateIcons {
		out.DateIcons[k] = v
	}
	return out
}

// Normalize repairs values that can be repaired and returns a note for each
// adjustment.
func (c Config) Normalize() (Config, []string) {
	c = c.Clone()
	var notes []string

	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = string(selection.DefaultMode)
	} else if mode, err := selection.ParseMode(c.Mode); err != nil {
		notes = append(notes, fmt.Sprintf("icon-selection-mode %q is unknown, using %s", c.Mode, selection.DefaultMode))
		c.Mode = string(selection.DefaultMode)
	} else if string(mode) != c.Mode {
		notes = append(notes, fmt.Sprintf("icon-selection-mode %q renamed to %s", c.Mode, mode))
		c.Mode = string(mode)
	}

	if c.RotationInterval <= 0 {
		notes = append(notes, fmt.Sprintf("icon-rotation-interval %d is not positive, using %d", c.RotationInterval, rotation.DefaultIntervalSeconds))
		c.RotationInterval = rotation.DefaultIntervalSeconds
	}

	c.DefaultIcon = strings.TrimSpace(c.DefaultIcon)

	keys := make([]string, 0, len(c.DateIcons))
	for k := range c.DateIcons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	repaired := make(map[string]string, len(c.DateIcons))
	for _, k := range keys {
		v := strings.TrimSpace(c.DateIcons[k])
		norm, err := overrides.NormalizeKey(k)
		if err != nil {
			notes = append(notes, fmt.Sprintf("date-specific-icons key %q is not a valid dd.mm date, dropped", k))
			continue
		}
		if v == "" {
			notes = append(notes, fmt.Sprintf("date-specific-icons %s has no file, dropped", k))
			continue
		}
		if norm != k {
			notes = append(notes, fmt.Sprintf("date-specific-icons key %q normalized to %s", k, norm))
		}
		repaired[norm] = v
	}
	c.DateIcons = repaired
	return c, notes
}

// Validate rejects values Normalize would have to repair.
func (c Config) Validate() error {
	mode, err := selection.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	if string(mode) != c.Mode {
		return apperrors.InvalidArgument("icon-selection-mode %q is a legacy name; use %s.", c.Mode, mode)
	}
	if _, err := rotation.Interval(c.RotationInterval); err != nil {
		return err
	}
	for k, v := range c.DateIcons {
		norm, err := overrides.NormalizeKey(k)
		if err != nil {
			return err
		}
		if norm != k {
			return apperrors.InvalidArgument("date-specific-icons key %q must be written as %s.", k, norm)
		}
		if strings.TrimSpace(v) == "" {
			return apperrors.InvalidArgument("date-specific-icons %s has no file.", k)
		}
	}
	return nil
}

// SelectionMode returns the parsed mode, falling back to the default.
func (c Config) SelectionMode() selection.Mode {
	mode, err := selection.ParseMode(c.Mode)
	if err != nil {
		return selection.DefaultMode
	}
	return mode
}
