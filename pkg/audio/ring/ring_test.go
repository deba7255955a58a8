// ABOUTME: Tests for the sample ring buffer
// ABOUTME: Tests FIFO order, wraparound, bounds and cross-goroutine use
package ring

import (
	"encoding/binary"
	"math"
	"runtime"
	"sync"
	"testing"
)

func frameBytes(l, r float32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(l))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(r))
	return b
}

func TestNewRoundsCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		expected int
	}{
		{0, DefaultCapacity},
		{-5, DefaultCapacity},
		{64, 64},
		{65, 72},
		{7, 8},
	}

	for _, tt := range tests {
		b := New(tt.capacity)
		if b.Cap() != tt.expected {
			t.Errorf("capacity=%d: expected %d, got %d", tt.capacity, tt.expected, b.Cap())
		}
	}
}

func TestReadEmpty(t *testing.T) {
	b := New(64)
	if _, _, ok := b.ReadStereoFrame(); ok {
		t.Fatal("expected no frame from an empty buffer")
	}
	if b.Available() != 0 || b.Free() != 64 {
		t.Errorf("unexpected available=%d free=%d", b.Available(), b.Free())
	}
}

func TestFramesReadInOrder(t *testing.T) {
	b := New(1024)

	for i := 0; i < 10; i++ {
		if n := b.Write(frameBytes(float32(i), -float32(i))); n != 8 {
			t.Fatalf("write %d: expected 8 bytes, got %d", i, n)
		}
	}

	for i := 0; i < 10; i++ {
		l, r, ok := b.ReadStereoFrame()
		if !ok {
			t.Fatalf("frame %d: unexpected underrun", i)
		}
		if l != float32(i) || r != -float32(i) {
			t.Errorf("frame %d: expected (%d, %d), got (%f, %f)", i, i, -i, l, r)
		}
	}

	if _, _, ok := b.ReadStereoFrame(); ok {
		t.Error("expected underrun after draining all frames")
	}
}

func TestWraparound(t *testing.T) {
	// 5 frames of capacity, written and read in uneven batches so that the
	// cursors cross the capacity boundary several times.
	b := New(40)
	next, want := 0, 0

	batches := []int{3, 2, 4, 1, 5, 3, 3}
	for _, batch := range batches {
		for i := 0; i < batch; i++ {
			v := float32(next)
			if n := b.WriteFloats([]float32{v, v + 0.5}); n != 2 {
				t.Fatalf("batch %d: expected 2 samples written, got %d", batch, n)
			}
			next++
		}
		for i := 0; i < batch; i++ {
			l, r, ok := b.ReadStereoFrame()
			if !ok {
				t.Fatalf("unexpected underrun at frame %d", want)
			}
			if l != float32(want) || r != float32(want)+0.5 {
				t.Fatalf("frame %d: got (%f, %f)", want, l, r)
			}
			want++
		}
	}
}

func TestWriteAcrossBoundary(t *testing.T) {
	b := New(24)
	b.Write(make([]byte, 16))
	b.Reset()

	// Write cursor is at 16, a 16 byte write must split 8/8.
	payload := append(frameBytes(1, 2), frameBytes(3, 4)...)
	if n := b.Write(payload); n != 16 {
		t.Fatalf("expected 16 bytes written, got %d", n)
	}

	for _, want := range [][2]float32{{1, 2}, {3, 4}} {
		l, r, ok := b.ReadStereoFrame()
		if !ok || l != want[0] || r != want[1] {
			t.Errorf("expected %v, got (%f, %f, %v)", want, l, r, ok)
		}
	}
}

func TestWriteBoundedByFreeSpace(t *testing.T) {
	b := New(16)

	if n := b.WriteFloats([]float32{1, 2, 3, 4, 5, 6}); n != 4 {
		t.Fatalf("expected 4 samples accepted, got %d", n)
	}
	if b.Free() != 0 {
		t.Errorf("expected full buffer, free=%d", b.Free())
	}
	if n := b.Write(make([]byte, 8)); n != 0 {
		t.Errorf("expected full buffer to reject write, got %d", n)
	}
}

func TestWritePartialSampleRejected(t *testing.T) {
	b := New(16)
	if n := b.Write([]byte{1, 2, 3}); n != 0 {
		t.Errorf("expected partial sample to be rejected, got %d", n)
	}
	if n := b.Write(make([]byte, 6)); n != 4 {
		t.Errorf("expected one whole sample, got %d", n)
	}
}

func TestReadFloats(t *testing.T) {
	b := New(32)
	b.WriteFloats([]float32{0.1, 0.2, 0.3})

	dst := make([]float32, 8)
	n := b.ReadFloats(dst)
	if n != 3 {
		t.Fatalf("expected 3 samples, got %d", n)
	}
	if dst[0] != 0.1 || dst[2] != 0.3 {
		t.Errorf("unexpected samples %v", dst[:n])
	}
}

func TestReset(t *testing.T) {
	b := New(32)
	b.WriteFloats([]float32{1, 2, 3, 4})
	b.Reset()

	if b.Available() != 0 {
		t.Errorf("expected empty buffer after reset, got %d", b.Available())
	}
	if _, _, ok := b.ReadStereoFrame(); ok {
		t.Error("expected underrun after reset")
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const frames = 20000
	b := New(256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < frames; {
			if b.WriteFloats([]float32{float32(i), float32(-i)}) == 2 {
				i++
			} else {
				runtime.Gosched()
			}
		}
	}()

	for i := 0; i < frames; {
		l, r, ok := b.ReadStereoFrame()
		if !ok {
			runtime.Gosched()
			continue
		}
		if l != float32(i) || r != float32(-i) {
			t.Fatalf("frame %d: got (%f, %f)", i, l, r)
		}
		i++
	}
	wg.Wait()
}
