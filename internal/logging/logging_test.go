package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decred/slog"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		subsys    string
		wantLevel slog.Level
		wantErr   bool
	}{
		{"default", "", SubsysRender, slog.LevelInfo, false},
		{"global", "debug", SubsysMain, slog.LevelDebug, false},
		{"per subsystem", "warn,RNDR=trace", SubsysRender, slog.LevelTrace, false},
		{"per subsystem fallback", "warn,RNDR=trace", SubsysDevice, slog.LevelWarn, false},
		{"unknown level", "loud", "", 0, true},
		{"malformed", "a=b=c", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(Config{Level: tt.level})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := b.Logger(tt.subsys).Level(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}

func TestLoggerReused(t *testing.T) {
	b, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Logger(SubsysSource) != b.Logger(SubsysSource) {
		t.Error("Logger() returned a new logger for the same subsystem")
	}
}

func TestOutputs(t *testing.T) {
	var stdout bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "render.log")

	b, err := New(Config{File: file, MaxFiles: 2, Stdout: &stdout})
	if err != nil {
		t.Fatal(err)
	}

	log := b.Logger(SubsysMain)
	log.Infof("hello %d", 1)
	log.Debugf("hidden")
	log.Warnf("second")

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "[INF] MAIN: hello 1") {
		t.Errorf("stdout missing info line: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug line written at info level")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello 1") {
		t.Errorf("log file missing line: %q", data)
	}

	recent := b.Recent(10)
	if len(recent) != 2 || !strings.HasSuffix(recent[1], "MAIN: second") {
		t.Errorf("Recent() = %q", recent)
	}
}
