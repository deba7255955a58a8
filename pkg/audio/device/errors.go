// ABOUTME: Device error taxonomy
// ABOUTME: Sentinel errors and the init failure type returned by device sessions
package device

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDefaultDevice is returned when the platform has no render endpoint
	ErrNoDefaultDevice = errors.New("no default audio render device")

	// ErrActivationFailed is returned when an endpoint exists but a client
	// cannot be activated on it
	ErrActivationFailed = errors.New("audio client activation failed")

	// ErrInitFailed matches every *InitError
	ErrInitFailed = errors.New("audio client initialization failed")

	// ErrInvalidated is returned by a previously working session once the
	// underlying endpoint is gone or changed
	ErrInvalidated = errors.New("audio device invalidated")

	// ErrBufferTooLarge is returned when a submission region larger than the
	// free device buffer is requested. It is transient.
	ErrBufferTooLarge = errors.New("requested buffer exceeds free device space")

	// ErrNotInitialized is returned by client calls made before Initialize
	ErrNotInitialized = errors.New("audio client not initialized")
)

// Init failure codes used by the bundled backends when the platform did not
// supply one.
const (
	CodeUnknown      = -1
	CodeFormatLocked = -2
	CodeInvalidArgs  = -3
)

// InitError reports a platform rejecting the requested client configuration
type InitError struct {
	Code int
	Err  error
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio client initialization failed (code %#x)", e.Code)
	}
	return fmt.Sprintf("audio client initialization failed (code %#x): %v", e.Code, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInitFailed) true for any InitError
func (e *InitError) Is(target error) bool {
	return target == ErrInitFailed
}

// newInitError wraps err, pulling a platform code out of it when it carries
// one.
func newInitError(err error) *InitError {
	var ie *InitError
	if errors.As(err, &ie) {
		return ie
	}

	code := CodeUnknown
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code = coder.Code()
	}
	return &InitError{Code: code, Err: err}
}
