// ABOUTME: Background file feeder
// ABOUTME: Decodes and resamples on its own goroutine into a ring buffer drained by Fill
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/resample"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/ring"
	"github.com/decred/slog"
)

// OpenFunc opens a fresh decoder for the stream
type OpenFunc func() (decode.Decoder, error)

// FeederConfig holds feeder settings
type FeederConfig struct {
	// BufferBytes is the ring capacity (default: ring.DefaultCapacity)
	BufferBytes int

	// ChunkSamples is how many output samples each decode step aims to
	// produce (default: 2048)
	ChunkSamples int

	// Loop restarts the stream at EOF
	Loop bool

	// PollInterval is how long to wait when the ring is full (default: 5ms)
	PollInterval time.Duration
}

// Feeder streams a decoder into a ring buffer at the engine's rate
type Feeder struct {
	open OpenFunc
	rate func() int
	cfg  FeederConfig
	log  slog.Logger
	ring *ring.Buffer

	title    atomic.Pointer[string]
	finished atomic.Bool
	frames   atomic.Uint64
}

// NewFeeder creates a feeder. rate reports the output sample rate, usually
// the engine's SampleRate method.
func NewFeeder(open OpenFunc, rate func() int, cfg FeederConfig, log slog.Logger) *Feeder {
	if log == nil {
		log = slog.Disabled
	}
	if cfg.ChunkSamples <= 0 {
		cfg.ChunkSamples = 2048
	}
	cfg.ChunkSamples -= cfg.ChunkSamples % 2
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}

	return &Feeder{
		open: open,
		rate: rate,
		cfg:  cfg,
		log:  log,
		ring: ring.New(cfg.BufferBytes),
	}
}

// Fill drains buffered samples into dst. It never blocks and returns fewer
// samples than requested when the decoder falls behind.
func (f *Feeder) Fill(dst []float32) int {
	n := f.ring.ReadFloats(dst)
	f.frames.Add(uint64(n / 2))
	return n
}

// Title returns the current stream title
func (f *Feeder) Title() string {
	if t := f.title.Load(); t != nil {
		return *t
	}
	return ""
}

// Played returns the number of frames handed to the engine
func (f *Feeder) Played() uint64 {
	return f.frames.Load()
}

// Buffered returns how full the feeder's buffer is, from 0 to 1
func (f *Feeder) Buffered() float64 {
	return float64(f.ring.Available()) / float64(f.ring.Cap())
}

// Drained reports whether the stream ended and every sample was consumed
func (f *Feeder) Drained() bool {
	return f.finished.Load() && f.ring.Available() == 0
}

// Run decodes until the stream ends (without Loop) or ctx is done
func (f *Feeder) Run(ctx context.Context) error {
	defer f.finished.Store(true)

	for {
		err := f.stream(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if !f.cfg.Loop {
			f.log.Infof("Finished decoding %q", f.Title())
			return nil
		}
		f.log.Debugf("Looping %q", f.Title())
	}
}

// stream plays one pass of the decoder
func (f *Feeder) stream(ctx context.Context) error {
	dec, err := f.open()
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer dec.Close()

	title := dec.Title()
	f.title.Store(&title)

	var (
		rs      *resample.Resampler
		outRate int
		in      []float32
		out     []float32
	)

	for {
		if rate := f.rate(); rate != outRate || rs == nil {
			f.log.Infof("Streaming %q: %d Hz -> %d Hz", title, dec.SampleRate(), rate)
			rs = resample.New(dec.SampleRate(), rate, 2)
			outRate = rate
			in = make([]float32, max(rs.InputSamplesNeeded(f.cfg.ChunkSamples), 2))
		}

		n, err := dec.Read(in)
		if n > 0 {
			out = rs.Resample(in[:n], out[:0])
			if werr := f.write(ctx, out); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}
}

// write queues samples, waiting for the consumer while the ring is full
func (f *Feeder) write(ctx context.Context, samples []float32) error {
	for len(samples) > 0 {
		n := f.ring.WriteFloats(samples)
		samples = samples[n:]
		if len(samples) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.cfg.PollInterval):
		}
	}
	return nil
}
