// ABOUTME: Test logger helpers
// ABOUTME: Routes decred/slog output through testing.TB
package devicetest

import (
	"strings"
	"testing"

	"github.com/decred/slog"
)

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Logger returns a trace level logger for subsys that writes to t.Log
func Logger(t testing.TB, subsys string) slog.Logger {
	log := slog.NewBackend(testWriter{t}).Logger(subsys)
	log.SetLevel(slog.LevelTrace)
	return log
}
