package dispatch

import (
	"fmt"

	"github.com/oukeidos/iconic/internal/logger"
)

// WithPanicGuard runs fn and recovers any panic, logging it under scope.
// onPanic, when set, receives the recovered value.
func WithPanicGuard(scope string, onPanic func(any), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic", "scope", scope, "panic", fmt.Sprint(r))
			if onPanic != nil {
				onPanic(r)
			}
		}
	}()
	fn()
}

