//go:build cgo && !noaudio

// ABOUTME: Oto-based audio backend
// ABOUTME: Streams the event driven device buffer through a persistent oto player
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/decred/slog"
	"github.com/ebitengine/oto/v3"
)

func init() {
	Register("oto", newOtoPlatform)
}

// oto allows a single context per process and it can never be recreated
// with another format, so it lives outside any one platform value.
var otoState struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format audio.Format
}

type otoPlatform struct {
	log slog.Logger
}

func newOtoPlatform(log slog.Logger) (Platform, error) {
	return &otoPlatform{log: log}, nil
}

func (p *otoPlatform) Name() string { return "oto" }

var otoEndpointInfo = EndpointInfo{
	ID:        "oto-default",
	Name:      "oto default output",
	IsDefault: true,
}

func (p *otoPlatform) Endpoints(_ context.Context) ([]EndpointInfo, error) {
	return []EndpointInfo{otoEndpointInfo}, nil
}

func (p *otoPlatform) DefaultEndpoint(_ context.Context) (Endpoint, error) {
	return &otoEndpoint{p: p}, nil
}

func (p *otoPlatform) Close() error {
	otoState.mu.Lock()
	defer otoState.mu.Unlock()

	if otoState.ctx != nil {
		return otoState.ctx.Suspend()
	}
	return nil
}

type otoEndpoint struct {
	p *otoPlatform
}

func (e *otoEndpoint) Info() EndpointInfo { return otoEndpointInfo }

func (e *otoEndpoint) Activate(_ context.Context) (Client, error) {
	otoState.mu.Lock()
	defer otoState.mu.Unlock()

	if otoState.ctx != nil {
		if err := otoState.ctx.Err(); err != nil {
			return nil, fmt.Errorf("oto context failed: %w", err)
		}
	}
	return &otoClient{log: e.p.log}, nil
}

func (e *otoEndpoint) Release() {}

type otoClient struct {
	log    slog.Logger
	ctx    *oto.Context
	player *oto.Player
	shared *sharedBuffer
}

func (c *otoClient) IsFormatSupported(f audio.Format) (bool, *audio.Format, error) {
	otoState.mu.Lock()
	defer otoState.mu.Unlock()

	if otoState.ctx != nil {
		if f == otoState.format {
			return true, nil, nil
		}
		locked := otoState.format
		return false, &locked, nil
	}
	return f.Validate() == nil, nil, nil
}

func (c *otoClient) MixFormat() (audio.Format, error) {
	otoState.mu.Lock()
	defer otoState.mu.Unlock()

	if otoState.ctx != nil {
		return otoState.format, nil
	}
	return audio.FloatFormat(audio.DefaultSampleRate), nil
}

func (c *otoClient) Initialize(f audio.Format, latency time.Duration) error {
	var sampleFormat oto.Format
	switch {
	case f.IsInt16():
		sampleFormat = oto.FormatSignedInt16LE
	case f.IsFloat32():
		sampleFormat = oto.FormatFloat32LE
	default:
		return &InitError{Code: CodeInvalidArgs, Err: fmt.Errorf("format %s", f)}
	}

	frames := int(int64(f.SampleRate) * int64(latency) / int64(time.Second))
	if frames <= 0 {
		return &InitError{Code: CodeInvalidArgs, Err: fmt.Errorf("latency %v too small", latency)}
	}

	otoState.mu.Lock()
	defer otoState.mu.Unlock()

	if otoState.ctx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       sampleFormat,
			BufferSize:   latency,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return newInitError(fmt.Errorf("failed to create oto context: %w", err))
		}
		<-readyChan
		otoState.ctx = ctx
		otoState.format = f
	} else if otoState.format != f {
		return &InitError{
			Code: CodeFormatLocked,
			Err:  fmt.Errorf("oto context already running as %s", otoState.format),
		}
	}

	c.ctx = otoState.ctx
	c.shared = newSharedBuffer(frames, f.FrameStride())
	c.player = c.ctx.NewPlayer(c.shared)
	// Keep oto's own read-ahead to a quarter of the buffer so padding tracks
	// what the device actually consumed.
	c.player.SetBufferSize(frames / 4 * f.FrameStride())
	return nil
}

func (c *otoClient) BufferSize() (int, error) {
	if c.shared == nil {
		return 0, ErrNotInitialized
	}
	return c.shared.bufferFrames(), nil
}

func (c *otoClient) RenderClient() (RenderClient, error) {
	if c.shared == nil {
		return nil, ErrNotInitialized
	}
	return sharedRenderClient{c.shared}, nil
}

func (c *otoClient) SetEventHandle(ev *Event) error {
	if c.shared == nil {
		return ErrNotInitialized
	}
	c.shared.setEvent(ev)
	return nil
}

func (c *otoClient) CurrentPadding() (int, error) {
	if c.shared == nil {
		return 0, ErrNotInitialized
	}
	if err := c.ctx.Err(); err != nil {
		c.log.Warnf("oto context error: %v", err)
		c.shared.invalidate(ErrInvalidated)
	}
	return c.shared.padding()
}

func (c *otoClient) Start() error {
	if c.player == nil {
		return ErrNotInitialized
	}
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	c.player.Play()
	return nil
}

func (c *otoClient) Stop() error {
	if c.player == nil {
		return ErrNotInitialized
	}
	c.player.Pause()
	c.shared.reset()
	return nil
}

func (c *otoClient) Release() {
	if c.player == nil {
		return
	}
	if err := c.player.Close(); err != nil {
		c.log.Debugf("Closing oto player: %v", err)
	}
	c.player = nil
}
