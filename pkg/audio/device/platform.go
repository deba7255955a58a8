// ABOUTME: Platform audio service capability interfaces
// ABOUTME: The only surface through which the render engine reaches the OS
package device

import (
	"context"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
)

// Platform is a host audio service able to expose its default render endpoint.
type Platform interface {
	// Name identifies the backend ("malgo", "oto", "null", ...)
	Name() string

	// DefaultEndpoint returns the current default render endpoint or
	// ErrNoDefaultDevice.
	DefaultEndpoint(ctx context.Context) (Endpoint, error)

	// Endpoints lists the render endpoints the platform knows about.
	Endpoints(ctx context.Context) ([]EndpointInfo, error)

	// Close releases the platform. Sessions must be released first.
	Close() error
}

// EndpointInfo describes a render endpoint
type EndpointInfo struct {
	ID        string
	Name      string
	IsDefault bool
}

// Endpoint is one render device
type Endpoint interface {
	Info() EndpointInfo

	// Activate creates a client on the endpoint. Implementations that need an
	// asynchronous platform completion block until it fires or ctx is done.
	Activate(ctx context.Context) (Client, error)

	Release()
}

// Client is an activated shared-mode audio client
type Client interface {
	// IsFormatSupported reports whether f can be used in shared mode. When it
	// cannot, closest may hold the platform's proposed match.
	IsFormatSupported(f audio.Format) (supported bool, closest *audio.Format, err error)

	// MixFormat returns the device's native shared-mode format
	MixFormat() (audio.Format, error)

	// Initialize configures event driven shared-mode buffering with the
	// given nominal latency. Rejections are reported as *InitError.
	Initialize(f audio.Format, latency time.Duration) error

	// BufferSize returns the device buffer capacity in frames
	BufferSize() (int, error)

	// RenderClient returns the submission interface
	RenderClient() (RenderClient, error)

	// SetEventHandle registers the signal raised whenever buffer space
	// becomes available
	SetEventHandle(ev *Event) error

	// CurrentPadding returns the number of frames queued but not yet played
	CurrentPadding() (int, error)

	Start() error
	Stop() error
	Release()
}

// RenderClient hands out writable regions of the device buffer
type RenderClient interface {
	// GetBuffer returns a region for frames frames. It stays valid until
	// ReleaseBuffer.
	GetBuffer(frames int) ([]byte, error)

	// ReleaseBuffer submits the region obtained by the last GetBuffer
	ReleaseBuffer(frames int) error

	Release()
}
