package source

import (
	"math"
	"testing"
)

func TestToneFill(t *testing.T) {
	tone := NewTone(12000, 0.5, func() int { return 48000 })

	dst := make([]float32, 10)
	if n := tone.Fill(dst); n != 10 {
		t.Fatalf("Fill() = %d, want 10", n)
	}

	// A quarter of the sample rate gives 0, peak, 0, -peak
	want := []float32{0, 0.5, 0, -0.5, 0}
	for i, w := range want {
		l, r := dst[i*2], dst[i*2+1]
		if l != r {
			t.Errorf("frame %d channels differ: %v %v", i, l, r)
		}
		if math.Abs(float64(l-w)) > 1e-6 {
			t.Errorf("frame %d = %v, want %v", i, l, w)
		}
	}
}

func TestToneWholeFrames(t *testing.T) {
	tone := NewTone(440, 0.5, func() int { return 44100 })
	if n := tone.Fill(make([]float32, 7)); n != 6 {
		t.Errorf("Fill() of 7 samples = %d, want 6", n)
	}
}

func TestToneNoRate(t *testing.T) {
	tone := NewTone(440, 0.5, func() int { return 0 })
	if n := tone.Fill(make([]float32, 8)); n != 0 {
		t.Errorf("Fill() without a rate = %d, want 0", n)
	}
}

func TestToneDefaults(t *testing.T) {
	tone := NewTone(0, 2, func() int { return 48000 })
	if tone.frequency != DefaultFrequency || tone.amplitude != DefaultAmplitude {
		t.Errorf("defaults = %v Hz at %v", tone.frequency, tone.amplitude)
	}
}
