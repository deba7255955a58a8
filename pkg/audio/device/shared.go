// ABOUTME: Event driven buffer adapter for callback (pull) audio backends
// ABOUTME: Exposes padding and submission regions over a device-paced pull callback
package device

import (
	"sync"
)

// sharedBuffer turns a backend that pulls audio from a callback into the
// padding/GetBuffer/ReleaseBuffer model used by the render loop. The backend
// calls pull from its audio thread; every pull frees space and raises the
// registered event.
type sharedBuffer struct {
	mu sync.Mutex

	stride int
	frames int
	data   []byte
	head   int // read offset into data
	queued int // bytes queued for the device

	region       []byte
	regionFrames int

	event *Event
	lost  error
}

func newSharedBuffer(frames, stride int) *sharedBuffer {
	return &sharedBuffer{
		stride: stride,
		frames: frames,
		data:   make([]byte, frames*stride),
		region: make([]byte, frames*stride),
	}
}

func (b *sharedBuffer) setEvent(ev *Event) {
	b.mu.Lock()
	b.event = ev
	b.mu.Unlock()
}

func (b *sharedBuffer) bufferFrames() int {
	return b.frames
}

// padding returns the frames queued but not yet pulled
func (b *sharedBuffer) padding() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost != nil {
		return 0, b.lost
	}
	return b.queued / b.stride, nil
}

// getBuffer hands out a scratch region that releaseBuffer copies in
func (b *sharedBuffer) getBuffer(frames int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost != nil {
		return nil, b.lost
	}
	if frames < 0 || frames*b.stride > len(b.data)-b.queued {
		return nil, ErrBufferTooLarge
	}

	b.regionFrames = frames
	return b.region[:frames*b.stride], nil
}

func (b *sharedBuffer) releaseBuffer(frames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost != nil {
		return b.lost
	}
	if frames > b.regionFrames {
		return ErrBufferTooLarge
	}

	n := frames * b.stride
	tail := (b.head + b.queued) % len(b.data)
	first := copy(b.data[tail:], b.region[:n])
	copy(b.data, b.region[first:n])
	b.queued += n
	b.regionFrames = 0
	return nil
}

// pull is called from the backend's audio thread. It fills out with queued
// audio, zero-filling whatever is missing, then signals the event.
func (b *sharedBuffer) pull(out []byte) int {
	b.mu.Lock()
	n := len(out)
	if n > b.queued {
		n = b.queued
	}
	first := copy(out[:n], b.data[b.head:])
	copy(out[first:n], b.data)
	b.head = (b.head + n) % len(b.data)
	b.queued -= n
	clear(out[n:])
	ev := b.event
	b.mu.Unlock()

	if ev != nil {
		ev.Set()
	}
	return n
}

// Read lets the buffer serve as an io.Reader for backends that stream from one
func (b *sharedBuffer) Read(p []byte) (int, error) {
	b.pull(p)
	return len(p), nil
}

// invalidate marks the device lost and wakes the render loop so it notices
func (b *sharedBuffer) invalidate(err error) {
	b.mu.Lock()
	if b.lost == nil {
		b.lost = err
	}
	ev := b.event
	b.mu.Unlock()

	if ev != nil {
		ev.Set()
	}
}

func (b *sharedBuffer) reset() {
	b.mu.Lock()
	b.head, b.queued = 0, 0
	b.mu.Unlock()
}

// sharedRenderClient exposes a sharedBuffer as a RenderClient
type sharedRenderClient struct {
	b *sharedBuffer
}

func (r sharedRenderClient) GetBuffer(frames int) ([]byte, error) { return r.b.getBuffer(frames) }
func (r sharedRenderClient) ReleaseBuffer(frames int) error       { return r.b.releaseBuffer(frames) }
func (r sharedRenderClient) Release()                             {}
