// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and sample conversion functions
package audio

import (
	"errors"
	"testing"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16383},
		{"quarter", 0.25, 8191},
		{"full scale", 1.0, 32767},
		{"negative full scale", -1.0, -32767},
		{"negative half", -0.5, -16383},
		{"clamped positive", 1.5, 32767},
		{"clamped negative", -3, -32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloatToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestInt16ToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"min", -32768, -1},
		{"half", 16384, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Int16ToFloat(tt.input)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestIntToFloat(t *testing.T) {
	if got := IntToFloat(-8388608, 24); got != -1 {
		t.Errorf("expected -1, got %f", got)
	}
	if got := IntToFloat(4194304, 24); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
	if got := IntToFloat(100, 0); got != 0 {
		t.Errorf("expected 0 for invalid bit depth, got %f", got)
	}
}

func TestFrameStride(t *testing.T) {
	if got := PreferredFormat(48000).FrameStride(); got != 4 {
		t.Errorf("expected s16 stride 4, got %d", got)
	}
	if got := FloatFormat(44100).FrameStride(); got != 8 {
		t.Errorf("expected f32 stride 8, got %d", got)
	}
}

func TestPreferredFormatDefaultsRate(t *testing.T) {
	f := PreferredFormat(0)
	if f.SampleRate != DefaultSampleRate {
		t.Errorf("expected %d, got %d", DefaultSampleRate, f.SampleRate)
	}
	if !f.IsInt16() || f.Channels != 2 {
		t.Errorf("unexpected preferred format %s", f)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		valid  bool
	}{
		{"s16 stereo", PreferredFormat(48000), true},
		{"f32 stereo", FloatFormat(44100), true},
		{"s24", Format{SampleRate: 48000, Channels: 2, BitDepth: 24}, false},
		{"s32 int", Format{SampleRate: 48000, Channels: 2, BitDepth: 32}, false},
		{"mono", Format{SampleRate: 48000, Channels: 1, BitDepth: 16}, false},
		{"no rate", Format{Channels: 2, BitDepth: 16}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	if got := PreferredFormat(48000).String(); got != "48000Hz 2ch s16" {
		t.Errorf("unexpected string %q", got)
	}
	if got := FloatFormat(44100).String(); got != "44100Hz 2ch f32" {
		t.Errorf("unexpected string %q", got)
	}
}
