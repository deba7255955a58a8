// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the float to PCM sample conversions
// Package audio provides the fundamental types shared by the render engine.
//
// The render engine always produces interleaved stereo float32 samples.
// Devices negotiate one of two wire formats:
//   - 16-bit signed integer PCM (the preferred format)
//   - 32-bit float PCM (the usual native mix format)
//
// Example:
//
//	format := audio.PreferredFormat(48000)
//	if err := format.Validate(); err != nil {
//	    return err
//	}
//	stride := format.FrameStride() // 4 bytes
//	s := audio.FloatToInt16(0.5)    // 16383
package audio
