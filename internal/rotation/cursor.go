// Package rotation advances the cycle-mode cursor on a timer.
package rotation

import (
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
)

// Unset is the cursor value before the first tick or while the catalog is
// empty.
const Unset = -1

// DefaultIntervalSeconds is the rotation period when none is configured.
const DefaultIntervalSeconds = 300

// Advance moves cursor one step forward in a catalog of size entries.
func Advance(cursor, size int) int {
	if size <= 0 {
		return Unset
	}
	if cursor < Unset || cursor >= size {
		cursor = Unset
	}
	return (cursor + 1) % size
}

// Clamp returns cursor if it is a valid index for size entries, Unset
// otherwise.
func Clamp(cursor, size int) int {
	if size <= 0 || cursor < 0 || cursor >= size {
		return Unset
	}
	return cursor
}

// Interval validates a period given in whole seconds.
func Interval(seconds int) (time.Duration, error) {
	if seconds <= 0 {
		return 0, apperrors.InvalidArgument("Interval must be positive.")
	}
	return time.Duration(seconds) * time.Second, nil
}
