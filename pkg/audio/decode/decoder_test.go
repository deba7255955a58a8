// ABOUTME: Tests for audio decoders
// ABOUTME: Round-trips WAV and raw PCM files through the float32 decoders
package decode

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close wav encoder: %v", err)
	}
}

func readAll(t *testing.T, d Decoder) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, 7)
	for {
		n, err := d.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
}

func TestOpenWAVStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 2, []int{16384, -16384, 8192, -8192, 0, 32767})

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer d.Close()

	if d.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", d.SampleRate())
	}
	if d.Title() != "stereo" {
		t.Errorf("Title() = %q, want %q", d.Title(), "stereo")
	}

	got := readAll(t, d)
	want := []float32{0.5, -0.5, 0.25, -0.25, 0, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOpenWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 1, []int{16384, -8192})

	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	got := readAll(t, d)
	want := []float32{0.5, 0.5, -0.25, -0.25}
	if len(got) != len(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPCMDecode(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		data     []byte
		want     []float32
	}{
		{
			name:     "16-bit",
			bitDepth: 16,
			data:     []byte{0x00, 0x40, 0x00, 0xC0},
			want:     []float32{0.5, -0.5},
		},
		{
			name:     "24-bit",
			bitDepth: 24,
			data:     []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0},
			want:     []float32{0.5, -0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewPCM(bytes.NewReader(tt.data), "raw", 48000, tt.bitDepth)
			if err != nil {
				t.Fatal(err)
			}
			got := readAll(t, d)
			if len(got) != len(tt.want) {
				t.Fatalf("decoded %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewPCMInvalid(t *testing.T) {
	if _, err := NewPCM(bytes.NewReader(nil), "raw", 48000, 8); err == nil {
		t.Error("expected error for 8-bit PCM")
	}
	if _, err := NewPCM(bytes.NewReader(nil), "raw", 0, 16); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestOpenUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open() error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpenInvalidMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp3")
	if err := os.WriteFile(path, []byte("not an mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for invalid MP3 data")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.flac")); err == nil {
		t.Error("expected error for missing file")
	}
}
