// ABOUTME: Audio file decoders for application-side producers
// ABOUTME: MP3, FLAC, WAV and raw PCM decoded to interleaved float32 stereo
// Package decode turns audio files into interleaved stereo float32 samples.
//
// Supports: MP3, FLAC, WAV, raw 16/24-bit PCM
//
// Mono input is duplicated to both channels and extra channels are dropped,
// so every Decoder yields two samples per frame in [-1, 1].
//
// Example:
//
//	dec, err := decode.Open("track.flac")
//	n, err := dec.Read(samples)
package decode
