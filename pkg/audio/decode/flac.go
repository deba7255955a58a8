// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames to float32 stereo samples
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct {
	r          io.Reader
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	block      blockReader
}

// NewFLAC creates a FLAC decoder reading from r. If r is an io.Closer it is
// closed with the decoder.
func NewFLAC(r io.Reader, title string) (*FLACDecoder, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	d := &FLACDecoder{
		r:          r,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      title,
	}
	d.block.next = d.decodeBlock
	return d, nil
}

func (d *FLACDecoder) decodeBlock() ([]float32, error) {
	frame, err := d.stream.ParseNext()
	if err != nil {
		return nil, err
	}

	channels := len(frame.Subframes)
	samples := make([]float32, 0, int(frame.BlockSize)*audio.Channels)
	in := make([]float32, channels)
	for i := 0; i < int(frame.BlockSize); i++ {
		for ch := 0; ch < channels; ch++ {
			in[ch] = audio.IntToFloat(frame.Subframes[ch].Samples[i], d.bitDepth)
		}
		samples = appendStereo(samples, in)
	}
	return samples, nil
}

// Read fills dst with decoded samples
func (d *FLACDecoder) Read(dst []float32) (int, error) {
	return d.block.read(dst)
}

func (d *FLACDecoder) SampleRate() int { return d.sampleRate }
func (d *FLACDecoder) Title() string   { return d.title }

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
