// ABOUTME: Raw PCM audio decoder
// ABOUTME: Decodes headerless 16-bit and 24-bit little-endian stereo PCM
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
)

// DefaultPCMRate is assumed for raw files opened by extension
const DefaultPCMRate = 48000

// PCMDecoder decodes raw interleaved stereo PCM
type PCMDecoder struct {
	r          io.Reader
	sampleRate int
	bitDepth   int
	title      string
	buf        []byte
	block      blockReader
}

// NewPCM creates a raw PCM decoder for 16 or 24-bit stereo input
func NewPCM(r io.Reader, title string, sampleRate, bitDepth int) (*PCMDecoder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	bytesPerSample := bitDepth / 8
	d := &PCMDecoder{
		r:          r,
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		title:      title,
		buf:        make([]byte, 1024*audio.Channels*bytesPerSample),
	}
	d.block.next = d.decodeBlock
	return d, nil
}

func (d *PCMDecoder) decodeBlock() ([]float32, error) {
	n, err := io.ReadFull(d.r, d.buf)
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}

	frameBytes := audio.Channels * d.bitDepth / 8
	n -= n % frameBytes

	if d.bitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample, sign extended from the top byte
		samples := make([]float32, 0, n/3)
		for i := 0; i+2 < n; i += 3 {
			s := int32(d.buf[i]) | int32(d.buf[i+1])<<8 | int32(int8(d.buf[i+2]))<<16
			samples = append(samples, audio.IntToFloat(s, 24))
		}
		return samples, nil
	}

	samples := make([]float32, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		samples = append(samples, audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(d.buf[i:]))))
	}
	return samples, nil
}

// Read fills dst with decoded samples
func (d *PCMDecoder) Read(dst []float32) (int, error) {
	return d.block.read(dst)
}

func (d *PCMDecoder) SampleRate() int { return d.sampleRate }
func (d *PCMDecoder) Title() string   { return d.title }

// Close releases resources
func (d *PCMDecoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
