// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams float32 frames with interpolation carried across chunks
package resample

// Resampler performs linear interpolation to convert between sample rates.
// Input may arrive in chunks of any size; the last input frame of a chunk
// is kept so the next chunk interpolates across the boundary.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	pending    []float32
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels <= 0 {
		channels = 2
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample consumes interleaved input at inputRate and appends the
// interleaved output at outputRate to out.
func (r *Resampler) Resample(input, out []float32) []float32 {
	if r.Passthrough() {
		return append(out, input...)
	}

	r.pending = append(r.pending, input...)
	frames := len(r.pending) / r.channels

	for {
		idx := int(r.position)
		if idx+1 >= frames {
			break
		}

		frac := float32(r.position - float64(idx))
		a := r.pending[idx*r.channels:]
		b := r.pending[(idx+1)*r.channels:]
		for ch := 0; ch < r.channels; ch++ {
			out = append(out, a[ch]+(b[ch]-a[ch])*frac)
		}
		r.position += r.ratio
	}

	// Drop consumed frames, keeping the one still needed for interpolation
	drop := int(r.position)
	if drop > frames {
		drop = frames
	}
	n := copy(r.pending, r.pending[drop*r.channels:])
	r.pending = r.pending[:n]
	r.position -= float64(drop)

	return out
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.pending = r.pending[:0]
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded estimates how many input samples produce outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio + 0.999999)
	return inputFrames * r.channels
}
