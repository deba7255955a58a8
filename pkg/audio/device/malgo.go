//go:build cgo && !noaudio

// ABOUTME: Malgo (miniaudio) audio backend
// ABOUTME: Default render endpoint, native format query and event driven playback
package device

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/decred/slog"
	"github.com/gen2brain/malgo"
)

func init() {
	Register("malgo", newMalgoPlatform)
}

// malgoPlatform wraps one miniaudio context for the process
type malgoPlatform struct {
	ctx *malgo.AllocatedContext
	log slog.Logger

	closeOnce sync.Once
}

func newMalgoPlatform(log slog.Logger) (Platform, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debugf("miniaudio: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &malgoPlatform{ctx: ctx, log: log}, nil
}

func (p *malgoPlatform) Name() string { return "malgo" }

func malgoDeviceIDString(id malgo.DeviceID) string {
	b := id[:]
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return hex.EncodeToString(b[:end])
}

func (p *malgoPlatform) Endpoints(_ context.Context) ([]EndpointInfo, error) {
	devices, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, err
	}

	res := make([]EndpointInfo, 0, len(devices))
	for _, dev := range devices {
		res = append(res, EndpointInfo{
			ID:        malgoDeviceIDString(dev.ID),
			Name:      dev.Name(),
			IsDefault: dev.IsDefault == 1,
		})
	}
	return res, nil
}

func (p *malgoPlatform) DefaultEndpoint(_ context.Context) (Endpoint, error) {
	devices, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDefaultDevice, err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDefaultDevice
	}

	for _, dev := range devices {
		if dev.IsDefault != 1 {
			continue
		}
		return &malgoEndpoint{
			p:     p,
			id:    dev.ID,
			hasID: true,
			info: EndpointInfo{
				ID:        malgoDeviceIDString(dev.ID),
				Name:      dev.Name(),
				IsDefault: true,
			},
		}, nil
	}

	// Some backends never flag a default device. Leaving the id unset makes
	// miniaudio open whatever the system default is.
	return &malgoEndpoint{
		p:    p,
		info: EndpointInfo{Name: "system default", IsDefault: true},
	}, nil
}

func (p *malgoPlatform) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.ctx.Uninit()
		p.ctx.Free()
	})
	return err
}

type malgoEndpoint struct {
	p     *malgoPlatform
	id    malgo.DeviceID
	hasID bool
	info  EndpointInfo
}

func (e *malgoEndpoint) Info() EndpointInfo { return e.info }

func (e *malgoEndpoint) Activate(_ context.Context) (Client, error) {
	c := &malgoClient{endpoint: e, log: e.p.log}
	if !e.hasID {
		return c, nil
	}

	info, err := e.p.ctx.DeviceInfo(malgo.Playback, e.id, malgo.Shared)
	if err != nil {
		return nil, fmt.Errorf("device info for %q: %w", e.info.Name, err)
	}
	for i := 0; i < int(info.FormatCount) && i < len(info.Formats); i++ {
		c.native = append(c.native, info.Formats[i])
	}
	return c, nil
}

func (e *malgoEndpoint) Release() {}

// malgoClient drives one miniaudio playback device. miniaudio pulls audio
// from its own thread through the Data callback, which drains the shared
// buffer and raises the event.
type malgoClient struct {
	endpoint *malgoEndpoint
	native   []malgo.DataFormat
	log      slog.Logger

	format audio.Format
	device *malgo.Device
	shared *sharedBuffer

	stopping atomic.Bool
}

func malgoFormatOf(df malgo.DataFormat) (audio.Format, bool) {
	f := audio.Format{
		SampleRate: int(df.SampleRate),
		Channels:   int(df.Channels),
	}
	switch df.Format {
	case malgo.FormatS16:
		f.BitDepth = 16
	case malgo.FormatF32:
		f.BitDepth = 32
		f.Float = true
	case malgo.FormatS24:
		f.BitDepth = 24
	case malgo.FormatS32:
		f.BitDepth = 32
	default:
		return f, false
	}
	return f, true
}

func (c *malgoClient) IsFormatSupported(f audio.Format) (bool, *audio.Format, error) {
	// miniaudio converts anything it is handed; without a native format list
	// there is nothing better to propose.
	if len(c.native) == 0 {
		return true, nil, nil
	}

	var closest *audio.Format
	for _, df := range c.native {
		nf, ok := malgoFormatOf(df)
		if !ok {
			continue
		}
		// A native rate of zero means the device accepts any rate.
		if nf.SampleRate == 0 {
			nf.SampleRate = f.SampleRate
		}
		if nf == f {
			return true, nil, nil
		}
		if closest == nil && nf.Channels == f.Channels && nf.Validate() == nil {
			match := nf
			closest = &match
		}
	}
	return false, closest, nil
}

func (c *malgoClient) MixFormat() (audio.Format, error) {
	for _, df := range c.native {
		if df.SampleRate > 0 {
			return audio.FloatFormat(int(df.SampleRate)), nil
		}
	}
	return audio.FloatFormat(audio.DefaultSampleRate), nil
}

func (c *malgoClient) Initialize(f audio.Format, latency time.Duration) error {
	var sampleFormat malgo.FormatType
	switch {
	case f.IsInt16():
		sampleFormat = malgo.FormatS16
	case f.IsFloat32():
		sampleFormat = malgo.FormatF32
	default:
		return &InitError{Code: CodeInvalidArgs, Err: fmt.Errorf("format %s", f)}
	}

	frames := int(int64(f.SampleRate) * int64(latency) / int64(time.Second))
	if frames <= 0 {
		return &InitError{Code: CodeInvalidArgs, Err: fmt.Errorf("latency %v too small", latency)}
	}
	c.shared = newSharedBuffer(frames, f.FrameStride())

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(f.Channels)
	if c.endpoint.hasID {
		deviceConfig.Playback.DeviceID = c.endpoint.id.Pointer()
	}
	deviceConfig.SampleRate = uint32(f.SampleRate)
	// Four periods per buffer so the loop is woken well before it drains.
	deviceConfig.PeriodSizeInMilliseconds = uint32(latency.Milliseconds() / 4)
	deviceConfig.Alsa.NoMMap = 1

	stride := uint32(f.FrameStride())
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			n := frameCount * stride
			if int(n) > len(pOutput) {
				n = uint32(len(pOutput))
			}
			c.shared.pull(pOutput[:n])
		},
		Stop: func() {
			if c.stopping.Load() {
				return
			}
			c.log.Warnf("Audio device %q stopped unexpectedly", c.endpoint.info.Name)
			c.shared.invalidate(ErrInvalidated)
		},
	}

	device, err := malgo.InitDevice(c.endpoint.p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return newInitError(fmt.Errorf("failed to initialize playback device: %w", err))
	}

	c.device = device
	c.format = f
	return nil
}

func (c *malgoClient) BufferSize() (int, error) {
	if c.shared == nil {
		return 0, ErrNotInitialized
	}
	return c.shared.bufferFrames(), nil
}

func (c *malgoClient) RenderClient() (RenderClient, error) {
	if c.shared == nil {
		return nil, ErrNotInitialized
	}
	return sharedRenderClient{c.shared}, nil
}

func (c *malgoClient) SetEventHandle(ev *Event) error {
	if c.shared == nil {
		return ErrNotInitialized
	}
	c.shared.setEvent(ev)
	return nil
}

func (c *malgoClient) CurrentPadding() (int, error) {
	if c.shared == nil {
		return 0, ErrNotInitialized
	}
	return c.shared.padding()
}

func (c *malgoClient) Start() error {
	if c.device == nil {
		return ErrNotInitialized
	}
	c.stopping.Store(false)
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (c *malgoClient) Stop() error {
	if c.device == nil {
		return ErrNotInitialized
	}
	c.stopping.Store(true)
	err := c.device.Stop()
	c.shared.reset()
	return err
}

func (c *malgoClient) Release() {
	if c.device == nil {
		return
	}
	c.stopping.Store(true)
	c.device.Uninit()
	c.device = nil
}
