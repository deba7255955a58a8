// ABOUTME: Render engine statistics
// ABOUTME: Prometheus collectors mirrored by atomic counters for Stats
package render

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a snapshot of engine counters
type Stats struct {
	FramesSubmitted  uint64
	UnderrunFrames   uint64
	SkippedCycles    uint64
	Sessions         uint64
	Recoveries       uint64
	RecoveryFailures uint64
}

type metrics struct {
	framesSubmitted  prometheus.Counter
	underrunFrames   prometheus.Counter
	skippedCycles    prometheus.Counter
	sessions         prometheus.Counter
	recoveries       prometheus.Counter
	recoveryFailures prometheus.Counter
	state            prometheus.Gauge
	sampleRate       prometheus.Gauge

	framesSubmittedAtomic  atomic.Uint64
	underrunFramesAtomic   atomic.Uint64
	skippedCyclesAtomic    atomic.Uint64
	sessionsAtomic         atomic.Uint64
	recoveriesAtomic       atomic.Uint64
	recoveryFailuresAtomic atomic.Uint64
}

// register adds c to reg. When an engine sharing reg already registered the
// same metric, the existing collector is returned so the engines add up.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func newMetrics(reg prometheus.Registerer) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return register(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help}))
	}
	gauge := func(name, help string) prometheus.Gauge {
		return register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
	}

	return &metrics{
		framesSubmitted: counter("render_frames_submitted_total",
			"Frames handed to the audio device"),
		underrunFrames: counter("render_underrun_frames_total",
			"Frames the producer did not supply in time"),
		skippedCycles: counter("render_skipped_cycles_total",
			"Render cycles skipped after a transient device error"),
		sessions: counter("render_device_sessions_total",
			"Device sessions acquired"),
		recoveries: counter("render_device_recoveries_total",
			"Successful recoveries from device loss"),
		recoveryFailures: counter("render_device_recovery_failures_total",
			"Failed device re-acquisition attempts"),
		state: gauge("render_state",
			"Engine state (0 idle, 1 starting, 2 running, 3 recovering, 4 silent, 5 stopped)"),
		sampleRate: gauge("render_sample_rate_hz",
			"Negotiated device sample rate"),
	}
}

func (m *metrics) addSubmitted(frames int) {
	m.framesSubmitted.Add(float64(frames))
	m.framesSubmittedAtomic.Add(uint64(frames))
}

func (m *metrics) addUnderrun(frames int) {
	if frames == 0 {
		return
	}
	m.underrunFrames.Add(float64(frames))
	m.underrunFramesAtomic.Add(uint64(frames))
}

func (m *metrics) skipCycle() {
	m.skippedCycles.Inc()
	m.skippedCyclesAtomic.Add(1)
}

func (m *metrics) sessionAcquired(rate int) {
	m.sessions.Inc()
	m.sessionsAtomic.Add(1)
	m.sampleRate.Set(float64(rate))
}

func (m *metrics) recovered() {
	m.recoveries.Inc()
	m.recoveriesAtomic.Add(1)
}

func (m *metrics) recoveryFailed() {
	m.recoveryFailures.Inc()
	m.recoveryFailuresAtomic.Add(1)
}

func (m *metrics) snapshot() Stats {
	return Stats{
		FramesSubmitted:  m.framesSubmittedAtomic.Load(),
		UnderrunFrames:   m.underrunFramesAtomic.Load(),
		SkippedCycles:    m.skippedCyclesAtomic.Load(),
		Sessions:         m.sessionsAtomic.Load(),
		Recoveries:       m.recoveriesAtomic.Load(),
		RecoveryFailures: m.recoveryFailuresAtomic.Load(),
	}
}
