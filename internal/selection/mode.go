package selection

import (
	"strings"

	"github.com/oukeidos/iconic/internal/apperrors"
)

// Mode names how an icon is chosen when no override applies.
type Mode string

const (
	ModeStatic         Mode = "static"
	ModeCycle          Mode = "cycle"
	ModeRandom         Mode = "random"
	ModePerQueryRandom Mode = "per-query-random"
)

// DefaultMode is used when configuration does not name one.
const DefaultMode = ModeCycle

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeStatic, ModeCycle, ModeRandom, ModePerQueryRandom}

// legacyAliases maps older spellings still found in configuration files.
var legacyAliases = map[string]Mode{
	"per-ping-random": ModePerQueryRandom,
}

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes {
		if string(m) == name {
			return m, nil
		}
	}
	if m, ok := legacyAliases[name]; ok {
		return m, nil
	}
	return "", apperrors.InvalidArgument("Invalid mode %q. Valid modes are: %s", s, ModeList())
}

// ModeList joins the mode names for messages and help text.
func ModeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
