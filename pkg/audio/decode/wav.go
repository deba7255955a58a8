// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE PCM to float32 stereo samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder decodes WAV audio
type WAVDecoder struct {
	r       io.ReadSeeker
	decoder *wav.Decoder
	title   string
	buf     *goaudio.IntBuffer
	block   blockReader
}

// NewWAV creates a WAV decoder. If r is an io.Closer it is closed with the
// decoder.
func NewWAV(r io.ReadSeeker, title string) (*WAVDecoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("failed to decode WAV: not a valid wav file")
	}
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if decoder.NumChans == 0 || decoder.SampleRate == 0 {
		return nil, fmt.Errorf("failed to decode WAV: %d channels at %d Hz", decoder.NumChans, decoder.SampleRate)
	}

	channels := int(decoder.NumChans)
	d := &WAVDecoder{
		r:       r,
		decoder: decoder,
		title:   title,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  int(decoder.SampleRate),
			},
			Data:           make([]int, 1024*channels),
			SourceBitDepth: int(decoder.BitDepth),
		},
	}
	d.block.next = d.decodeBlock
	return d, nil
}

func (d *WAVDecoder) decodeBlock() ([]float32, error) {
	n, err := d.decoder.PCMBuffer(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	channels := int(d.decoder.NumChans)
	bitDepth := int(d.decoder.BitDepth)
	frames := n / channels
	samples := make([]float32, 0, frames*audio.Channels)
	in := make([]float32, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			in[ch] = audio.IntToFloat(int32(d.buf.Data[i*channels+ch]), bitDepth)
		}
		samples = appendStereo(samples, in)
	}
	return samples, nil
}

// Read fills dst with decoded samples
func (d *WAVDecoder) Read(dst []float32) (int, error) {
	return d.block.read(dst)
}

func (d *WAVDecoder) SampleRate() int { return int(d.decoder.SampleRate) }
func (d *WAVDecoder) Title() string   { return d.title }

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
