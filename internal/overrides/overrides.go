// Package overrides maps calendar days to catalog filenames.
package overrides

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
)

// KeyLayout formats a day key as day.month, both zero padded.
const KeyLayout = "02.01"

// DayKey returns the override key for t in t's location.
func DayKey(t time.Time) string {
	return t.Format(KeyLayout)
}

// NormalizeKey accepts d.m with or without zero padding and returns dd.mm.
// 29.02 is accepted.
func NormalizeKey(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return "", apperrors.InvalidArgument("Date %q must be in dd.mm form.", s)
	}
	day, errDay := strconv.Atoi(parts[0])
	month, errMonth := strconv.Atoi(parts[1])
	if errDay != nil || errMonth != nil || month < 1 || month > 12 || day < 1 {
		return "", apperrors.InvalidArgument("Date %q must be in dd.mm form.", s)
	}
	// 2024 is a leap year, so every real calendar day fits.
	if t := time.Date(2024, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Day() != day {
		return "", apperrors.InvalidArgument("Date %q is not a calendar day.", s)
	}
	return fmt.Sprintf("%02d.%02d", day, month), nil
}

// Map stores day key -> filename. It is not safe for concurrent use; the
// owner serializes access.
type Map struct {
	entries map[string]string
}

func New() *Map {
	return &Map{entries: make(map[string]string)}
}

// FromConfig builds a Map from persisted entries. Keys that fail to normalize
// are dropped and reported.
func FromConfig(raw map[string]string) (*Map, []error) {
	m := New()
	var errs []error
	for _, key := range sortedKeys(raw) {
		name := strings.TrimSpace(raw[key])
		if name == "" {
			continue
		}
		if _, err := m.Add(key, name); err != nil {
			errs = append(errs, err)
		}
	}
	return m, errs
}

// Add stores filename under the normalized key and returns that key.
func (m *Map) Add(key, filename string) (string, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", apperrors.InvalidArgument("Icon name is empty.")
	}
	m.entries[k] = filename
	return k, nil
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(key string) (bool, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return false, err
	}
	if _, ok := m.entries[k]; !ok {
		return false, nil
	}
	delete(m.entries, k)
	return true, nil
}

// Lookup returns the filename stored for an already normalized key.
func (m *Map) Lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.entries[key]
	return name, ok
}

// Rename re-points every entry referring to oldName and returns how many
// entries changed.
func (m *Map) Rename(oldName, newName string) int {
	n := 0
	for k, v := range m.entries {
		if v == oldName {
			m.entries[k] = newName
			n++
		}
	}
	return n
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in month, day order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return calendarOrder(keys[i]) < calendarOrder(keys[j])
	})
	return keys
}

// All returns a copy of the entries.
func (m *Map) All() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func calendarOrder(key string) string {
	if len(key) != len(KeyLayout) {
		return key
	}
	return key[3:] + key[:2]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
