// Package selection decides which icon answers a status query.
package selection

import (
	"math/rand/v2"
	"time"

	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/overrides"
)

// Overrides is the read side of a day override map.
type Overrides interface {
	Lookup(key string) (string, bool)
}

// State is everything a selection reads. Current is the icon published by
// the rotation scheduler and only matters in cycle mode.
type State struct {
	Mode     Mode
	Snapshot *catalog.Snapshot
	Current  *catalog.Icon
	Default  *catalog.Icon
}

// Selector is not safe for concurrent use; it lives on the dispatch loop.
type Selector struct {
	intN func(n int) int
	// warned remembers dangling overrides already reported, keyed by day
	// key, so a frequent query does not flood the log.
	warned map[string]string
}

// NewSelector returns a Selector drawing from the global random source.
func NewSelector() *Selector {
	return NewSelectorWithRand(rand.IntN)
}

// NewSelectorWithRand injects the random draw, mainly for tests. intN must
// return a value in [0, n).
func NewSelectorWithRand(intN func(n int) int) *Selector {
	return &Selector{intN: intN, warned: make(map[string]string)}
}

// Select returns the icon for a query at now, or nil to leave it unset.
func (s *Selector) Select(now time.Time, st State, ov Overrides) *catalog.Icon {
	if icon := s.override(now, st.Snapshot, ov); icon != nil {
		return icon
	}

	switch st.Mode {
	case ModeStatic:
		return st.Default
	case ModeCycle:
		if st.Current != nil {
			return st.Current
		}
		return st.Default
	case ModeRandom, ModePerQueryRandom:
		// Both draw independently on every query; see DESIGN.md.
		if n := st.Snapshot.Len(); n > 0 {
			if e, ok := st.Snapshot.At(s.draw(n)); ok {
				return e.Icon
			}
		}
		return st.Default
	default:
		return st.Default
	}
}

func (s *Selector) override(now time.Time, snap *catalog.Snapshot, ov Overrides) *catalog.Icon {
	if ov == nil {
		return nil
	}
	key := overrides.DayKey(now)
	name, ok := ov.Lookup(key)
	if !ok {
		return nil
	}
	if e, ok := snap.Lookup(name); ok {
		delete(s.warned, key)
		return e.Icon
	}
	if s.warned[key] != name {
		s.warned[key] = name
		logger.Warn("Date-specific icon does not exist", "date", key, "file", name)
	}
	return nil
}

func (s *Selector) draw(n int) int {
	i := s.intN(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}
