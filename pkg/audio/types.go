// ABOUTME: Audio type definitions
// ABOUTME: Defines the negotiated PCM wire format and float sample conversions
package audio

import (
	"errors"
	"fmt"
)

const (
	// DefaultSampleRate is the rate requested from a device before negotiation
	DefaultSampleRate = 48000

	// Channels is fixed: the render engine only produces interleaved stereo
	Channels = 2

	// FloatFrameBytes is the size of one interleaved float32 stereo frame
	FloatFrameBytes = Channels * 4

	// Int16Scale is the multiplier applied to a float sample in [-1, 1]
	Int16Scale = 32767
)

// ErrUnsupportedFormat is returned when a negotiated format is neither
// 16-bit integer nor 32-bit float stereo PCM.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes a device wire format
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Float      bool
}

// PreferredFormat returns the format requested from every device:
// stereo 16-bit signed integer PCM at the given rate.
func PreferredFormat(sampleRate int) Format {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return Format{
		SampleRate: sampleRate,
		Channels:   Channels,
		BitDepth:   16,
	}
}

// FloatFormat returns a stereo 32-bit float format at the given rate.
func FloatFormat(sampleRate int) Format {
	return Format{
		SampleRate: sampleRate,
		Channels:   Channels,
		BitDepth:   32,
		Float:      true,
	}
}

// FrameStride is the number of bytes in one interleaved frame
func (f Format) FrameStride() int {
	return f.Channels * f.BitDepth / 8
}

// IsInt16 reports whether f is 16-bit signed integer PCM
func (f Format) IsInt16() bool {
	return !f.Float && f.BitDepth == 16
}

// IsFloat32 reports whether f is 32-bit float PCM
func (f Format) IsFloat32() bool {
	return f.Float && f.BitDepth == 32
}

// Validate checks that the render engine can produce f.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.Channels != Channels {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if !f.IsInt16() && !f.IsFloat32() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.sampleName())
	}
	return nil
}

func (f Format) sampleName() string {
	if f.Float {
		return fmt.Sprintf("f%d", f.BitDepth)
	}
	return fmt.Sprintf("s%d", f.BitDepth)
}

// String returns a short human readable form such as "48000Hz 2ch s16"
func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %s", f.SampleRate, f.Channels, f.sampleName())
}

// ClampFloat limits a sample to [-1, 1]
func ClampFloat(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// FloatToInt16 converts a float sample to 16-bit PCM.
// The value is clamped, scaled by 32767 and truncated toward zero.
func FloatToInt16(v float32) int16 {
	return int16(ClampFloat(v) * Int16Scale)
}

// Int16ToFloat converts a 16-bit PCM sample to a float in [-1, 1)
func Int16ToFloat(s int16) float32 {
	return float32(s) / 32768
}

// IntToFloat converts a signed integer sample of the given bit depth
// to a float in [-1, 1)
func IntToFloat(s int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float32(float64(s) / float64(int64(1)<<(bitDepth-1)))
}
