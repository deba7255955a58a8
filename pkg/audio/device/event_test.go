package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEventSetCollapses(t *testing.T) {
	ev := NewEvent()
	ev.Set()
	ev.Set()
	ev.Set()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ev.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if err := ev.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second wait = %v, want deadline exceeded", err)
	}
}

func TestEventWakesWaiter(t *testing.T) {
	ev := NewEvent()
	done := make(chan error, 1)
	go func() {
		done <- ev.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	ev.Set()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestEventClose(t *testing.T) {
	ev := NewEvent()
	ev.Close()
	ev.Close()
	ev.Set()

	if err := ev.Wait(context.Background()); !errors.Is(err, ErrInvalidated) {
		t.Errorf("Wait() after close = %v, want ErrInvalidated", err)
	}
	select {
	case <-ev.closed:
	default:
		t.Error("closed channel not closed")
	}
}
