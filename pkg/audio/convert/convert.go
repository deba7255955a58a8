// ABOUTME: Float to device wire format conversion
// ABOUTME: Writes ring buffer stereo frames as s16 or f32 little-endian PCM
package convert

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
)

// FrameSource yields stereo float frames one at a time
type FrameSource interface {
	NextFrame() (left, right float32)
}

// Converter writes stereo float frames in a negotiated device format
type Converter struct {
	format audio.Format
	stride int
	put    func(dst []byte, left, right float32)
}

// New returns a converter for the given format. Only 16-bit integer and
// 32-bit float stereo are supported; anything else is rejected here so the
// per-frame path never has to handle it.
func New(format audio.Format) (*Converter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("no converter for %s: %w", format, err)
	}

	c := &Converter{
		format: format,
		stride: format.FrameStride(),
	}
	if format.IsInt16() {
		c.put = putInt16
	} else {
		c.put = putFloat32
	}
	return c, nil
}

// Format returns the target format
func (c *Converter) Format() audio.Format {
	return c.format
}

// Stride returns the number of bytes written per frame
func (c *Converter) Stride() int {
	return c.stride
}

// PutFrame writes one frame at the start of dst
func (c *Converter) PutFrame(dst []byte, left, right float32) {
	c.put(dst, left, right)
}

// Fill writes as many whole frames into dst as fit, pulling each from src.
// It returns the number of frames written.
func (c *Converter) Fill(dst []byte, src FrameSource) int {
	frames := len(dst) / c.stride
	for i := 0; i < frames; i++ {
		l, r := src.NextFrame()
		c.put(dst[i*c.stride:], l, r)
	}
	return frames
}

func putInt16(dst []byte, left, right float32) {
	binary.LittleEndian.PutUint16(dst[0:], uint16(audio.FloatToInt16(left)))
	binary.LittleEndian.PutUint16(dst[2:], uint16(audio.FloatToInt16(right)))
}

func putFloat32(dst []byte, left, right float32) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(left))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(right))
}
