package source

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio/decode"
)

// rampDecoder yields frames with left = i, right = -i
type rampDecoder struct {
	rate   int
	frames int
	next   int
	closed *atomic.Int32
}

func (d *rampDecoder) Read(dst []float32) (int, error) {
	n := 0
	for n+1 < len(dst) && d.next < d.frames {
		dst[n] = float32(d.next)
		dst[n+1] = -float32(d.next)
		d.next++
		n += 2
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (d *rampDecoder) SampleRate() int { return d.rate }
func (d *rampDecoder) Title() string   { return "ramp" }
func (d *rampDecoder) Close() error {
	if d.closed != nil {
		d.closed.Add(1)
	}
	return nil
}

func rampOpener(rate, frames int, opens, closes *atomic.Int32) OpenFunc {
	return func() (decode.Decoder, error) {
		opens.Add(1)
		return &rampDecoder{rate: rate, frames: frames, closed: closes}, nil
	}
}

func drain(t *testing.T, f *Feeder, want int) []float32 {
	t.Helper()

	var got []float32
	buf := make([]float32, 64)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < want {
		if time.Now().After(deadline) {
			t.Fatalf("drained %d of %d samples", len(got), want)
		}
		n := f.Fill(buf)
		got = append(got, buf[:n]...)
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return got
}

func TestFeederPassthrough(t *testing.T) {
	var opens, closes atomic.Int32
	f := NewFeeder(rampOpener(48000, 100, &opens, &closes), func() int { return 48000 },
		FeederConfig{ChunkSamples: 30}, nil)

	errc := make(chan error, 1)
	go func() { errc <- f.Run(context.Background()) }()

	got := drain(t, f, 200)
	for i := 0; i < 100; i++ {
		if got[2*i] != float32(i) || got[2*i+1] != -float32(i) {
			t.Fatalf("frame %d = %v %v", i, got[2*i], got[2*i+1])
		}
	}

	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if !f.Drained() {
		t.Error("Drained() = false after consuming everything")
	}
	if f.Played() != 100 {
		t.Errorf("Played() = %d, want 100", f.Played())
	}
	if closes.Load() != 1 {
		t.Errorf("decoder closed %d times, want 1", closes.Load())
	}
	if f.Title() != "ramp" {
		t.Errorf("Title() = %q", f.Title())
	}
}

func TestFeederResamples(t *testing.T) {
	var opens, closes atomic.Int32
	f := NewFeeder(rampOpener(24000, 101, &opens, &closes), func() int { return 48000 },
		FeederConfig{}, nil)

	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := drain(t, f, 400)
	for i := 0; i < 200; i++ {
		want := float32(i) / 2
		if got[2*i] != want || got[2*i+1] != -want {
			t.Fatalf("frame %d = %v %v, want %v", i, got[2*i], got[2*i+1], want)
		}
	}
}

func TestFeederLoops(t *testing.T) {
	var opens, closes atomic.Int32
	f := NewFeeder(rampOpener(48000, 10, &opens, &closes), func() int { return 48000 },
		FeederConfig{Loop: true, BufferBytes: 256}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.Run(ctx) }()

	got := drain(t, f, 60)
	for i := 0; i < 30; i++ {
		if want := float32(i % 10); got[2*i] != want {
			t.Fatalf("frame %d = %v, want %v", i, got[2*i], want)
		}
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if opens.Load() < 3 {
		t.Errorf("decoder opened %d times, want at least 3", opens.Load())
	}
	if opens.Load() != closes.Load() {
		t.Errorf("opened %d decoders but closed %d", opens.Load(), closes.Load())
	}
}

func TestFeederOpenError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFeeder(func() (decode.Decoder, error) { return nil, boom },
		func() int { return 48000 }, FeederConfig{}, nil)

	if err := f.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
}

func TestFeederFillNeverBlocks(t *testing.T) {
	f := NewFeeder(nil, func() int { return 48000 }, FeederConfig{}, nil)
	if n := f.Fill(make([]float32, 16)); n != 0 {
		t.Errorf("Fill() on empty feeder = %d, want 0", n)
	}
}

// sizedDecoder records the largest read request
type sizedDecoder struct {
	rampDecoder
	largest *atomic.Int32
}

func (d *sizedDecoder) Read(dst []float32) (int, error) {
	if n := int32(len(dst)); n > d.largest.Load() {
		d.largest.Store(n)
	}
	return d.rampDecoder.Read(dst)
}

func TestFeederChunkSizing(t *testing.T) {
	tests := []struct {
		name string
		rate int
		want int32
	}{
		{"passthrough", 48000, 64},
		{"upsample", 24000, 32},
		{"downsample", 96000, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var largest atomic.Int32
			open := func() (decode.Decoder, error) {
				return &sizedDecoder{rampDecoder: rampDecoder{rate: tt.rate, frames: 100}, largest: &largest}, nil
			}
			f := NewFeeder(open, func() int { return 48000 }, FeederConfig{ChunkSamples: 64}, nil)
			if err := f.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := largest.Load(); got != tt.want {
				t.Errorf("decoder read %d samples at a time, want %d", got, tt.want)
			}
		})
	}
}
