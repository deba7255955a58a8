// ABOUTME: Test tone generator
// ABOUTME: Generates a sine wave at the engine's current sample rate
package source

import (
	"math"
	"sync"
)

// DefaultFrequency is the A4 note
const DefaultFrequency = 440.0

// DefaultAmplitude is 50% volume
const DefaultAmplitude = 0.5

// Tone generates a stereo sine wave
type Tone struct {
	mu        sync.Mutex
	frequency float64
	amplitude float64
	rate      func() int
	phase     float64
}

// NewTone creates a tone generator. rate is queried on every fill so the
// pitch stays right when the device rate changes.
func NewTone(frequency, amplitude float64, rate func() int) *Tone {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	if amplitude <= 0 || amplitude > 1 {
		amplitude = DefaultAmplitude
	}
	return &Tone{
		frequency: frequency,
		amplitude: amplitude,
		rate:      rate,
	}
}

// Fill writes whole stereo frames into dst
func (t *Tone) Fill(dst []float32) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rate := t.rate()
	if rate <= 0 {
		return 0
	}
	step := 2 * math.Pi * t.frequency / float64(rate)

	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(t.phase) * t.amplitude)
		dst[i*2] = v
		dst[i*2+1] = v

		t.phase += step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return frames * 2
}

// Title returns a display name
func (t *Tone) Title() string { return "Test Tone" }
