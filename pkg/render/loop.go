// ABOUTME: Render loop
// ABOUTME: Waits on the device completion signal and keeps the device buffer full
package render

import (
	"context"
	"errors"
	"runtime"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio/convert"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
	"github.com/decred/slog"
)

// loop is the state owned by the render goroutine
type loop struct {
	e       *Engine
	log     slog.Logger
	session *device.Session
	conv    *convert.Converter
	src     *policySource
	scratch []float32
}

func (e *Engine) run(ctx context.Context, s *device.Session) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l := &loop{
		e:   e,
		log: e.log,
		src: &policySource{ring: e.ring, policy: e.cfg.Underrun},
	}
	defer close(e.loopDone)
	defer e.closeDone()
	defer l.release()

	if err := l.attach(s); err != nil {
		s.Release()
		if !l.recoverDevice(ctx, err) {
			return
		}
	} else if err := l.prime(false); err != nil {
		if !l.recoverDevice(ctx, err) {
			return
		}
	}
	e.setState(Running)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := l.session.Event().Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if !l.recoverDevice(ctx, err) {
				return
			}
			continue
		}

		if !l.cycle(ctx) {
			return
		}
	}
}

// cycle tops up the device buffer once. It returns false when the loop
// must exit.
func (l *loop) cycle(ctx context.Context) bool {
	padding, err := l.session.Padding()
	if err != nil {
		if errors.Is(err, device.ErrInvalidated) {
			return l.recoverDevice(ctx, err)
		}
		l.skip("padding query", err)
		return true
	}

	needed := l.session.BufferFrames() - padding
	if needed <= 0 {
		return true
	}

	if err := l.submit(needed, false); err != nil {
		if errors.Is(err, device.ErrInvalidated) {
			return l.recoverDevice(ctx, err)
		}
		l.skip("buffer submission", err)
	}
	return true
}

func (l *loop) skip(what string, err error) {
	l.log.Debugf("Skipping render cycle, %s failed: %v", what, err)
	l.e.metrics.skipCycle()
}

// attach makes s the live session
func (l *loop) attach(s *device.Session) error {
	conv, err := convert.New(s.Format())
	if err != nil {
		return err
	}
	l.session = s
	l.conv = conv
	l.e.publishSession(s)
	return nil
}

// prime submits one full buffer and starts playback. Only invalidation
// fails it; other submission errors skip the buffer and playback still
// starts.
func (l *loop) prime(silent bool) error {
	if err := l.submit(l.session.BufferFrames(), silent); err != nil {
		if errors.Is(err, device.ErrInvalidated) {
			return err
		}
		l.skip("initial submission", err)
	}
	return l.session.Start()
}

func (l *loop) release() {
	if l.session == nil {
		return
	}
	l.session.Release()
	l.session = nil
	l.conv = nil
}
