// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and file opener for all audio decoders
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned by Open for unrecognized file extensions
var ErrUnknownFormat = errors.New("unknown audio file format")

// Decoder decodes audio to interleaved stereo float32 samples
type Decoder interface {
	// Read fills dst with samples and returns how many were written. It
	// returns io.EOF once the stream is exhausted.
	Read(dst []float32) (int, error)

	// SampleRate returns the stream's native rate
	SampleRate() int

	// Title returns a display name for the stream
	Title() string

	// Close releases decoder resources
	Close() error
}

// Open picks a decoder by file extension
func Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var dec Decoder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		dec, err = NewMP3(f, title)
	case ".flac":
		dec, err = NewFLAC(f, title)
	case ".wav":
		dec, err = NewWAV(f, title)
	case ".pcm", ".raw":
		dec, err = NewPCM(f, title, DefaultPCMRate, 16)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return dec, nil
}

// blockReader serves Read calls from decoded blocks of varying size
type blockReader struct {
	pending []float32
	next    func() ([]float32, error)
}

func (b *blockReader) read(dst []float32) (int, error) {
	n := 0
	for n < len(dst) {
		if len(b.pending) == 0 {
			blk, err := b.next()
			if err != nil {
				if n > 0 && errors.Is(err, io.EOF) {
					return n, nil
				}
				return n, err
			}
			b.pending = blk
			continue
		}
		c := copy(dst[n:], b.pending)
		b.pending = b.pending[c:]
		n += c
	}
	return n, nil
}

// appendStereo appends one frame built from a frame of ch channels
func appendStereo(out []float32, frame []float32) []float32 {
	switch len(frame) {
	case 0:
		return append(out, 0, 0)
	case 1:
		return append(out, frame[0], frame[0])
	default:
		return append(out, frame[0], frame[1])
	}
}
