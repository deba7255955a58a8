// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 streams to float32 stereo samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio. go-mp3 always produces 16-bit stereo.
type MP3Decoder struct {
	r       io.Reader
	decoder *mp3.Decoder
	title   string
	buf     []byte
	block   blockReader
}

// NewMP3 creates an MP3 decoder reading from r. If r is an io.Closer it is
// closed with the decoder.
func NewMP3(r io.Reader, title string) (*MP3Decoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	d := &MP3Decoder{
		r:       r,
		decoder: decoder,
		title:   title,
		buf:     make([]byte, 4096),
	}
	d.block.next = d.decodeBlock
	return d, nil
}

func (d *MP3Decoder) decodeBlock() ([]float32, error) {
	n, err := io.ReadFull(d.decoder, d.buf)
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}

	samples := make([]float32, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		samples = append(samples, audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(d.buf[i:]))))
	}
	return samples, nil
}

// Read fills dst with decoded samples
func (d *MP3Decoder) Read(dst []float32) (int, error) {
	return d.block.read(dst)
}

func (d *MP3Decoder) SampleRate() int { return d.decoder.SampleRate() }
func (d *MP3Decoder) Title() string   { return d.title }

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
