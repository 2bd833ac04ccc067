package rotation

import (
	"sync/atomic"
	"time"

	"github.com/oukeidos/iconic/internal/logger"
)

// Scheduler runs at most one rotation ticker. Start and Stop must be called
// from the dispatch loop; ticks are delivered back to it through post, and
// ticks from a cancelled ticker are dropped before they reach onTick.
type Scheduler struct {
	post   func(fn func()) bool
	onTick func()

	generation atomic.Uint64
	stop       chan struct{}
	interval   time.Duration
}

// NewScheduler wires ticks to onTick via post.
func NewScheduler(post func(fn func()) bool, onTick func()) *Scheduler {
	return &Scheduler{post: post, onTick: onTick}
}

// Start cancels any running ticker and starts a new one. The first tick runs
// immediately on the caller, the next after one interval.
func (s *Scheduler) Start(interval time.Duration) {
	s.Stop()
	if interval <= 0 {
		logger.Warn("Rotation not started: interval must be positive", "interval", interval)
		return
	}
	gen := s.generation.Add(1)
	stop := make(chan struct{})
	s.stop = stop
	s.interval = interval

	s.onTick()
	go s.run(gen, interval, stop)
	logger.Debug("Rotation started", "interval", interval)
}

// Stop cancels the running ticker. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	s.generation.Add(1)
	close(s.stop)
	s.stop = nil
	s.interval = 0
	logger.Debug("Rotation stopped")
}

// Running reports whether a ticker is active.
func (s *Scheduler) Running() bool {
	return s.stop != nil
}

// Interval is the period of the active ticker, zero when stopped.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) run(gen uint64, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ok := s.post(func() {
				if s.generation.Load() != gen {
					return
				}
				s.onTick()
			})
			if !ok {
				return
			}
		}
	}
}
