// ABOUTME: Device buffer submission
// ABOUTME: Refills the ring from the producer and converts frames into the device region
package render

import (
	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/ring"
)

// policySource reads stereo frames from the ring and fills underruns
// according to the engine's policy.
type policySource struct {
	ring      *ring.Buffer
	policy    UnderrunPolicy
	lastL     float32
	lastR     float32
	underruns int
}

func (s *policySource) NextFrame() (float32, float32) {
	l, r, ok := s.ring.ReadStereoFrame()
	if !ok {
		s.underruns++
		if s.policy == UnderrunRepeatLast {
			return s.lastL, s.lastR
		}
		return 0, 0
	}
	s.lastL, s.lastR = l, r
	return l, r
}

func (s *policySource) reset() {
	s.lastL, s.lastR = 0, 0
	s.underruns = 0
}

// submit fills and releases frames frames of the device buffer. With silent
// set, or without a producer, the region is left zeroed.
func (l *loop) submit(frames int, silent bool) error {
	region, err := l.session.GetBuffer(frames)
	if err != nil {
		return err
	}
	clear(region)

	if fn := l.e.callback.Load(); fn != nil && !silent {
		l.refill(*fn, frames)
		l.src.underruns = 0
		l.conv.Fill(region, l.src)
		l.e.metrics.addUnderrun(l.src.underruns)
	}

	if err := l.session.ReleaseBuffer(frames); err != nil {
		return err
	}
	l.e.metrics.addSubmitted(frames)
	return nil
}

// refill asks the producer for frames stereo frames, bounded by the ring's
// free space, and queues whatever it delivered.
func (l *loop) refill(fn FillFunc, frames int) {
	want := frames * audio.Channels
	free := l.e.ring.Free() / 4
	free -= free % audio.Channels
	if want > free {
		want = free
	}
	if want <= 0 {
		return
	}

	if cap(l.scratch) < want {
		l.scratch = make([]float32, want)
	}
	buf := l.scratch[:want]

	n := fn(buf)
	if n < 0 {
		n = 0
	}
	if n > want {
		n = want
	}
	n -= n % audio.Channels
	l.e.ring.WriteFloats(buf[:n])
}
