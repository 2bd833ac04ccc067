// Package dispatch provides the synchronous context: a single goroutine that
// runs queued tasks one at a time. State owned by the loop needs no locking.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the task buffer used when New is given a non-positive size.
const DefaultQueueSize = 64

// ErrClosed is returned when work is submitted after the loop stopped.
var ErrClosed = errors.New("dispatch loop closed")

// PanicError reports a task that panicked inside Do.
type PanicError struct {
	Scope string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Scope, e.Value)
}

type Loop struct {
	tasks   chan func()
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	startOnce sync.Once
	started   atomic.Bool
	wg        sync.WaitGroup
}

func New(queue int) *Loop {
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &Loop{
		tasks:   make(chan func(), queue),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start runs the loop on its own goroutine until ctx is done or Close is called.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		l.started.Store(true)
		go l.run(ctx)
	})
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			WithPanicGuard("dispatch.task", nil, fn)
		}
	}
}

// Post queues fn for the loop. It blocks only while the queue is full and
// reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. A panic inside fn is
// returned as *PanicError.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	result := make(chan error, 1)
	task := func() {
		var failure error
		WithPanicGuard("dispatch.do", func(r any) {
			failure = &PanicError{Scope: "dispatch.do", Value: r}
		}, fn)
		result <- failure
	}
	if !l.Post(task) {
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Go runs fn off the loop under a panic guard. Close waits for every
// goroutine started this way.
func (l *Loop) Go(scope string, fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		WithPanicGuard(scope, nil, fn)
	}()
}

// Close stops accepting work. Tasks still queued are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Wait blocks until the loop goroutine and background work have exited.
func (l *Loop) Wait() {
	if l.started.Load() {
		<-l.stopped
	}
	l.wg.Wait()
}
