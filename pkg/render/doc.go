// ABOUTME: Real-time render engine package
// ABOUTME: Event driven submission loop with device recovery and silent fallback
//
// Package render streams float32 PCM from an application callback to the
// platform's default render device.
//
// An Engine owns one ring buffer and at most one device session. Its render
// loop runs on a dedicated goroutine locked to an OS thread and wakes every
// time the device signals free buffer space. When the device disappears the
// loop releases the session, acquires the new default device with
// exponential backoff, and resumes. If no device can be acquired the engine
// becomes Silent and keeps serving the application without output.
//
//	e := render.New(render.DefaultConfig(), platform, log)
//	e.SetCallback(func(dst []float32) int { ... })
//	if err := e.Start(ctx); err != nil { ... }
//	defer e.Stop()
package render
