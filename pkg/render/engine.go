// ABOUTME: Render engine context object
// ABOUTME: Owns the ring buffer, producer callback, device session and render loop
package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/ring"
	"github.com/decred/slog"
)

var (
	// ErrCallbackAlreadySet is returned by a second SetCallback call
	ErrCallbackAlreadySet = errors.New("render callback already set")

	// ErrAlreadyStarted is returned by a second Start call
	ErrAlreadyStarted = errors.New("render engine already started")

	// ErrEngineStopped is returned by Start after Stop
	ErrEngineStopped = errors.New("render engine stopped")
)

// FillFunc produces interleaved stereo float32 samples into dst and returns
// how many samples it actually wrote. It runs on the render goroutine and
// must not block.
type FillFunc func(dst []float32) int

// Engine streams producer audio to the default render device
type Engine struct {
	cfg      Config
	platform device.Platform
	log      slog.Logger
	metrics  *metrics

	ring     *ring.Buffer
	callback atomic.Pointer[FillFunc]
	state    atomic.Int32
	format   atomic.Pointer[audio.Format]
	endpoint atomic.Pointer[device.EndpointInfo]
	err      atomic.Pointer[error]

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

// New creates an idle engine. Nothing touches the platform until Start.
func New(cfg Config, platform device.Platform, log slog.Logger) *Engine {
	if log == nil {
		log = slog.Disabled
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:      cfg,
		platform: platform,
		log:      log,
		metrics:  newMetrics(cfg.Registerer),
		ring:     ring.New(cfg.BufferBytes),
		done:     make(chan struct{}),
	}
	e.setState(Idle)
	return e
}

// SetCallback registers the producer. It may be called once, before or
// after Start.
func (e *Engine) SetCallback(fn FillFunc) error {
	if fn == nil {
		return errors.New("nil render callback")
	}
	if !e.callback.CompareAndSwap(nil, &fn) {
		return ErrCallbackAlreadySet
	}
	return nil
}

// Start acquires the default device and launches the render loop.
//
// Device failures do not fail Start: the engine becomes Silent and Err
// reports why. Only misuse or ctx ending during acquisition is returned.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.stopped:
		e.mu.Unlock()
		return ErrEngineStopped
	case e.started:
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	e.setState(Starting)
	e.log.Infof("Starting render engine (backend %s)", e.platform.Name())

	session, err := device.AcquireAsync(ctx, e.platform, e.cfg.device(), e.log).Wait(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if session != nil {
			session.Release()
		}
		e.mu.Lock()
		e.started = false
		e.mu.Unlock()
		e.setState(Idle)
		return ctxErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		if session != nil {
			session.Release()
		}
		return ErrEngineStopped
	}

	if err != nil {
		e.silence(err)
		e.closeDone()
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.loopDone = make(chan struct{})
	go e.run(loopCtx, session)

	return nil
}

// Stop halts the render loop and releases the device. Queued audio is not
// drained. It is safe to call before Start and more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	cancel, loopDone := e.cancel, e.loopDone
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-loopDone
	}

	e.setState(Stopped)
	e.closeDone()
	e.log.Infof("Render engine stopped")
}

// SampleRate returns the negotiated device rate, or the configured rate
// while no device format is known.
func (e *Engine) SampleRate() int {
	if f := e.format.Load(); f != nil {
		return f.SampleRate
	}
	return e.cfg.SampleRate
}

// Format returns the format of the current device session
func (e *Engine) Format() (audio.Format, bool) {
	if f := e.format.Load(); f != nil {
		return *f, true
	}
	return audio.Format{}, false
}

// Device returns the endpoint of the current device session
func (e *Engine) Device() (device.EndpointInfo, bool) {
	if ep := e.endpoint.Load(); ep != nil {
		return *ep, true
	}
	return device.EndpointInfo{}, false
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Stats {
	return e.metrics.snapshot()
}

// Err returns the error that made the engine Silent
func (e *Engine) Err() error {
	if err := e.err.Load(); err != nil {
		return *err
	}
	return nil
}

// Done is closed once the engine no longer renders, either because it went
// Silent or because it was stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.metrics.state.Set(float64(s))
}

// silence records err and demotes the engine. The application is told once.
func (e *Engine) silence(err error) {
	e.err.Store(&err)
	e.setState(Silent)
	e.log.Errorf("Audio output disabled, continuing silently: %v", err)
}

func (e *Engine) closeDone() {
	e.doneOnce.Do(func() {
		close(e.done)
	})
}

func (e *Engine) publishSession(s *device.Session) {
	f, ep := s.Format(), s.Endpoint
	e.format.Store(&f)
	e.endpoint.Store(&ep)
	e.metrics.sessionAcquired(f.SampleRate)
}
