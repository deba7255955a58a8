// ABOUTME: Byte ring buffer for interleaved float32 stereo samples
// ABOUTME: Single producer, single consumer, with explicit available tracking
package ring

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
)

// DefaultCapacity is the ring size used by the render engine (128 KiB)
const DefaultCapacity = 128 * 1024

// Buffer is a fixed capacity byte ring holding raw little-endian float32
// stereo samples. Format conversion happens when frames are read, never
// when they are written.
//
// The cursors are monotonically increasing byte counters; the position in
// the backing slice is the counter modulo capacity. The producer publishes
// data by storing writePos after copying, the consumer frees space by
// storing readPos after reading, so one producer goroutine and one consumer
// goroutine may use the buffer concurrently.
type Buffer struct {
	writePos atomic.Uint64
	_pad     [56]byte
	readPos  atomic.Uint64

	buf []byte
}

// New creates a buffer with the given capacity in bytes, rounded up to a
// whole number of stereo frames.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if rem := capacity % audio.FloatFrameBytes; rem != 0 {
		capacity += audio.FloatFrameBytes - rem
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Cap returns the capacity in bytes
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Available returns the number of bytes written but not yet read
func (b *Buffer) Available() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Free returns the number of bytes that can be written
func (b *Buffer) Free() int {
	return len(b.buf) - b.Available()
}

// Write copies raw samples at the write cursor, wrapping at capacity. Only
// whole 4-byte samples are accepted; the returned count is less than len(p)
// when the buffer does not have enough free space.
func (b *Buffer) Write(p []byte) int {
	w := b.writePos.Load()
	r := b.readPos.Load()

	free := uint64(len(b.buf)) - (w - r)
	n := uint64(len(p))
	if n > free {
		n = free
	}
	n -= n % 4
	if n == 0 {
		return 0
	}

	size := uint64(len(b.buf))
	pos := w % size
	first := size - pos
	if first >= n {
		copy(b.buf[pos:pos+n], p[:n])
	} else {
		copy(b.buf[pos:], p[:first])
		copy(b.buf[:n-first], p[first:n])
	}

	b.writePos.Store(w + n)
	return int(n)
}

// WriteFloats encodes whole samples at the write cursor and returns how many
// samples were accepted.
func (b *Buffer) WriteFloats(samples []float32) int {
	w := b.writePos.Load()
	r := b.readPos.Load()

	size := uint64(len(b.buf))
	free := size - (w - r)
	n := uint64(len(samples))
	if n > free/4 {
		n = free / 4
	}

	for i := uint64(0); i < n; i++ {
		b.putFloat((w+i*4)%size, samples[i])
	}

	b.writePos.Store(w + n*4)
	return int(n)
}

// ReadStereoFrame reads one left/right pair at the read cursor and advances
// it by 8 bytes. ok is false, and the cursor untouched, when less than one
// frame is available.
func (b *Buffer) ReadStereoFrame() (left, right float32, ok bool) {
	r := b.readPos.Load()
	w := b.writePos.Load()
	if w-r < audio.FloatFrameBytes {
		return 0, 0, false
	}

	size := uint64(len(b.buf))
	left = b.float(r % size)
	right = b.float((r + 4) % size)

	b.readPos.Store(r + audio.FloatFrameBytes)
	return left, right, true
}

// ReadFloats decodes up to len(dst) whole samples and returns how many were
// read.
func (b *Buffer) ReadFloats(dst []float32) int {
	r := b.readPos.Load()
	w := b.writePos.Load()

	size := uint64(len(b.buf))
	n := uint64(len(dst))
	if avail := (w - r) / 4; n > avail {
		n = avail
	}

	for i := uint64(0); i < n; i++ {
		dst[i] = b.float((r + i*4) % size)
	}

	b.readPos.Store(r + n*4)
	return int(n)
}

// Reset discards all buffered data. Only the consumer may call it.
func (b *Buffer) Reset() {
	b.readPos.Store(b.writePos.Load())
}

// putFloat and float rely on the capacity being a multiple of 4 so a sample
// never straddles the wrap point.
func (b *Buffer) putFloat(pos uint64, v float32) {
	binary.LittleEndian.PutUint32(b.buf[pos:pos+4], math.Float32bits(v))
}

func (b *Buffer) float(pos uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.buf[pos : pos+4]))
}
