// ABOUTME: Producer callbacks for the render engine
// ABOUTME: Test tone generator and a background file feeder
// Package source provides producers whose Fill method matches
// render.FillFunc.
//
// Tone synthesizes a sine wave directly on the render goroutine. Feeder
// decodes and resamples a file on its own goroutine into a ring buffer, and
// its Fill only drains that buffer, so the render goroutine never blocks on
// I/O.
package source
