// ABOUTME: Render engine configuration
// ABOUTME: Defaults, underrun policy and recovery tuning
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/ring"
	"github.com/prometheus/client_golang/prometheus"
)

// UnderrunPolicy decides what fills frames the producer did not supply
type UnderrunPolicy int

const (
	// UnderrunSilence pads missing frames with zeros
	UnderrunSilence UnderrunPolicy = iota

	// UnderrunRepeatLast holds the last delivered frame
	UnderrunRepeatLast
)

func (p UnderrunPolicy) String() string {
	switch p {
	case UnderrunSilence:
		return "silence"
	case UnderrunRepeatLast:
		return "repeat"
	default:
		return fmt.Sprintf("UnderrunPolicy(%d)", int(p))
	}
}

// ParseUnderrunPolicy parses "silence" or "repeat"
func ParseUnderrunPolicy(s string) (UnderrunPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silence":
		return UnderrunSilence, nil
	case "repeat", "repeat-last":
		return UnderrunRepeatLast, nil
	default:
		return 0, fmt.Errorf("unknown underrun policy %q", s)
	}
}

// Config holds engine settings. Zero fields are replaced by the defaults.
type Config struct {
	// SampleRate is the preferred device rate (default: 48000)
	SampleRate int

	// Latency is the nominal device buffer latency (default: 40ms)
	Latency time.Duration

	// BufferBytes is the ring buffer capacity (default: 128 KiB)
	BufferBytes int

	// Underrun selects how producer shortfalls are filled
	Underrun UnderrunPolicy

	// MaxRecoveryAttempts bounds consecutive failed re-acquisitions before
	// the engine goes silent (default: 8)
	MaxRecoveryAttempts int

	// RecoveryInitialInterval is the first backoff delay (default: 50ms)
	RecoveryInitialInterval time.Duration

	// RecoveryMaxInterval caps the backoff delay (default: 2s)
	RecoveryMaxInterval time.Duration

	// Registerer receives the engine metrics. Nil leaves them unregistered.
	// Engines sharing a Registerer share counters; the gauges report the
	// engine that wrote last.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		SampleRate:              audio.DefaultSampleRate,
		Latency:                 device.DefaultLatency,
		BufferBytes:             ring.DefaultCapacity,
		Underrun:                UnderrunSilence,
		MaxRecoveryAttempts:     8,
		RecoveryInitialInterval: 50 * time.Millisecond,
		RecoveryMaxInterval:     2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Latency <= 0 {
		c.Latency = def.Latency
	}
	if c.BufferBytes <= 0 {
		c.BufferBytes = def.BufferBytes
	}
	if c.MaxRecoveryAttempts <= 0 {
		c.MaxRecoveryAttempts = def.MaxRecoveryAttempts
	}
	if c.RecoveryInitialInterval <= 0 {
		c.RecoveryInitialInterval = def.RecoveryInitialInterval
	}
	if c.RecoveryMaxInterval < c.RecoveryInitialInterval {
		c.RecoveryMaxInterval = def.RecoveryMaxInterval
		if c.RecoveryMaxInterval < c.RecoveryInitialInterval {
			c.RecoveryMaxInterval = c.RecoveryInitialInterval
		}
	}
	return c
}

func (c Config) device() device.Config {
	return device.Config{
		SampleRate: c.SampleRate,
		Latency:    c.Latency,
	}
}
