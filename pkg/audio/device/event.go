// ABOUTME: Auto-reset completion signal
// ABOUTME: Raised by a device whenever buffer space becomes available
package device

import (
	"context"
	"sync"
)

// Event is an auto-reset signal. Set marks it signaled; a single waiter
// consumes the signal. Multiple Sets before a wait collapse into one.
type Event struct {
	c         chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewEvent creates an unsignaled event
func NewEvent() *Event {
	return &Event{
		c:      make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Set signals the event. It never blocks and is a no-op after Close.
func (e *Event) Set() {
	select {
	case <-e.closed:
		return
	default:
	}
	select {
	case e.c <- struct{}{}:
	default:
	}
}

// Wait blocks until the event is signaled, closed, or ctx is done
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.c:
		return nil
	case <-e.closed:
		return ErrInvalidated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the event. It is safe to call more than once.
func (e *Event) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
	})
}
