// Package catalog holds the in-memory view of the icons directory.
//
// A Snapshot is built wholesale by Scan and never mutated afterwards. Indices
// handed out by a Snapshot are only meaningful for that Snapshot.
package catalog

import (
	"encoding/base64"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/oukeidos/iconic/internal/apperrors"
)

// Icon is a decoded, ready-to-serve catalog image.
type Icon struct {
	Name  string
	Image image.Image
	PNG   []byte
}

// DataURI returns the icon in the form status responses embed.
func (i *Icon) DataURI() string {
	if i == nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.PNG)
}

// Entry is one position of a Snapshot.
type Entry struct {
	Index int
	Name  string
	Icon  *Icon
}

// Snapshot is an ordered, immutable list of catalog entries.
type Snapshot struct {
	entries []Entry
	byName  map[string]int
}

// Empty returns a snapshot without entries.
func Empty() *Snapshot {
	return NewSnapshot(nil)
}

// NewSnapshot orders icons by name and assigns indices. Duplicate names keep
// the first occurrence.
func NewSnapshot(icons []*Icon) *Snapshot {
	sorted := make([]*Icon, 0, len(icons))
	for _, icon := range icons {
		if icon != nil {
			sorted = append(sorted, icon)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	s := &Snapshot{
		entries: make([]Entry, 0, len(sorted)),
		byName:  make(map[string]int, len(sorted)),
	}
	for _, icon := range sorted {
		if _, dup := s.byName[icon.Name]; dup {
			continue
		}
		idx := len(s.entries)
		s.entries = append(s.entries, Entry{Index: idx, Name: icon.Name, Icon: icon})
		s.byName[icon.Name] = idx
	}
	return s
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// At returns the entry at index i.
func (s *Snapshot) At(i int) (Entry, bool) {
	if s == nil || i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Lookup finds an entry by exact filename.
func (s *Snapshot) Lookup(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	idx, ok := s.byName[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[idx], true
}

// Names returns the filenames in index order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the ordered entries.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Resolve accepts a decimal index into this snapshot or a literal filename.
func (s *Snapshot) Resolve(identifier string) (Entry, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return Entry{}, apperrors.InvalidArgument("Icon identifier is empty.")
	}
	if n, err := strconv.Atoi(id); err == nil {
		if e, ok := s.At(n); ok {
			return e, nil
		}
		return Entry{}, apperrors.NotFound(id)
	}
	if e, ok := s.Lookup(id); ok {
		return e, nil
	}
	return Entry{}, apperrors.NotFound(id)
}

// LookupDefault resolves the configured default icon. An empty name means no
// default; a name that is not in the snapshot is reported as dangling.
func (s *Snapshot) LookupDefault(name string) (*Icon, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	e, ok := s.Lookup(name)
	if !ok {
		return nil, apperrors.Newf(apperrors.KindDangling, nil, "Default icon file %s does not exist.", name)
	}
	return e.Icon, nil
}
