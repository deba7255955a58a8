// ABOUTME: Device session owning one activated render device binding
// ABOUTME: Acquire, negotiate, initialize, register the completion signal, release
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// DefaultLatency is the nominal shared-mode buffer latency
const DefaultLatency = 40 * time.Millisecond

// Config holds session acquisition parameters
type Config struct {
	// SampleRate is the preferred rate (default: 48000)
	SampleRate int

	// Latency is the nominal buffer latency (default: 40ms)
	Latency time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.Latency <= 0 {
		c.Latency = DefaultLatency
	}
	return c
}

// Session is one live binding to a render device. It is replaced wholesale,
// never patched, when the device is lost.
type Session struct {
	ID          uuid.UUID
	Endpoint    EndpointInfo
	Negotiation Negotiation

	endpoint     Endpoint
	client       Client
	render       RenderClient
	event        *Event
	format       audio.Format
	bufferFrames int
	started      bool
	released     bool
	log          slog.Logger
}

// Acquire binds the platform's current default render device.
//
// On any failure every partially acquired resource is released before
// returning. The error matches one of ErrNoDefaultDevice,
// ErrActivationFailed, ErrInitFailed or audio.ErrUnsupportedFormat.
func Acquire(ctx context.Context, p Platform, cfg Config, log slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Disabled
	}
	cfg = cfg.withDefaults()

	s := &Session{
		ID:  uuid.New(),
		log: log,
	}

	log.Infof("Initializing a new default audio device (backend %s)", p.Name())

	ep, err := p.DefaultEndpoint(ctx)
	if err != nil {
		if errors.Is(err, ErrNoDefaultDevice) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDefaultDevice, err)
	}
	s.endpoint = ep
	s.Endpoint = ep.Info()

	client, err := ep.Activate(ctx)
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	s.client = client

	format, negotiation, err := Negotiate(client, audio.PreferredFormat(cfg.SampleRate), log)
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	if err := format.Validate(); err != nil {
		s.Release()
		return nil, fmt.Errorf("negotiated format: %w", err)
	}

	if err := client.Initialize(format, cfg.Latency); err != nil {
		s.Release()
		return nil, newInitError(err)
	}
	s.format = format
	s.Negotiation = negotiation

	if s.bufferFrames, err = client.BufferSize(); err != nil {
		s.Release()
		return nil, newInitError(fmt.Errorf("buffer size: %w", err))
	}
	if s.bufferFrames <= 0 {
		s.Release()
		return nil, &InitError{Code: CodeInvalidArgs, Err: fmt.Errorf("device reported %d buffer frames", s.bufferFrames)}
	}

	if s.render, err = client.RenderClient(); err != nil {
		s.Release()
		return nil, newInitError(fmt.Errorf("render client: %w", err))
	}

	s.event = NewEvent()
	if err := client.SetEventHandle(s.event); err != nil {
		s.Release()
		return nil, newInitError(fmt.Errorf("set event handle: %w", err))
	}

	log.Infof("Audio device %q ready: session %s, %s (%s), %d buffer frames",
		s.Endpoint.Name, s.ID, format, negotiation, s.bufferFrames)

	return s, nil
}

// Activation is a pending asynchronous acquisition
type Activation struct {
	done    chan struct{}
	session *Session
	err     error
}

// AcquireAsync starts Acquire on its own goroutine. Platforms whose
// activation completes synchronously simply resolve right away.
func AcquireAsync(ctx context.Context, p Platform, cfg Config, log slog.Logger) *Activation {
	a := &Activation{done: make(chan struct{})}
	go func() {
		defer close(a.done)
		a.session, a.err = Acquire(ctx, p, cfg, log)
	}()
	return a
}

// Done is closed once the activation resolved
func (a *Activation) Done() <-chan struct{} {
	return a.done
}

// Wait returns the activation result. If ctx ends first, a session that
// resolves later is released.
func (a *Activation) Wait(ctx context.Context) (*Session, error) {
	if ctx.Err() == nil {
		select {
		case <-a.done:
			return a.session, a.err
		case <-ctx.Done():
		}
	}

	go func() {
		<-a.done
		if a.session != nil {
			a.session.Release()
		}
	}()
	return nil, ctx.Err()
}

// Format returns the negotiated format
func (s *Session) Format() audio.Format {
	return s.format
}

// BufferFrames returns the device buffer capacity in frames
func (s *Session) BufferFrames() int {
	return s.bufferFrames
}

// Event returns the completion signal raised when buffer space is available
func (s *Session) Event() *Event {
	return s.event
}

// Start begins playback
func (s *Session) Start() error {
	if err := s.client.Start(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Padding returns the frames queued but not yet played
func (s *Session) Padding() (int, error) {
	return s.client.CurrentPadding()
}

// GetBuffer returns a writable region for frames frames
func (s *Session) GetBuffer(frames int) ([]byte, error) {
	return s.render.GetBuffer(frames)
}

// ReleaseBuffer submits the region returned by GetBuffer
func (s *Session) ReleaseBuffer(frames int) error {
	return s.render.ReleaseBuffer(frames)
}

// Release tears the session down. The render client goes before the client,
// and the completion signal is closed last. Calling it again is a no-op.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true

	if s.client != nil && s.started {
		if err := s.client.Stop(); err != nil {
			s.log.Debugf("Stopping audio client of session %s: %v", s.ID, err)
		}
	}
	if s.render != nil {
		s.render.Release()
		s.render = nil
	}
	if s.client != nil {
		s.client.Release()
		s.client = nil
	}
	if s.event != nil {
		s.event.Close()
	}
	if s.endpoint != nil {
		s.endpoint.Release()
		s.endpoint = nil
	}
	s.log.Debugf("Released audio session %s", s.ID)
}
