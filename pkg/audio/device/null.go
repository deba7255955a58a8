// ABOUTME: Null audio backend
// ABOUTME: Reports no render device so engines run silent, used by noaudio builds
package device

import (
	"context"

	"github.com/decred/slog"
)

func init() {
	Register("null", newNullPlatform)
}

type nullPlatform struct{}

func newNullPlatform(slog.Logger) (Platform, error) {
	return nullPlatform{}, nil
}

func (nullPlatform) Name() string { return "null" }

func (nullPlatform) DefaultEndpoint(context.Context) (Endpoint, error) {
	return nil, ErrNoDefaultDevice
}

func (nullPlatform) Endpoints(context.Context) ([]EndpointInfo, error) {
	return nil, nil
}

func (nullPlatform) Close() error { return nil }
