// ABOUTME: Entry point for the Resonate render player
// ABOUTME: Parses CLI flags and plays a tone or audio file through the render engine
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/resonate-render/internal/config"
	"github.com/Resonate-Protocol/resonate-render/internal/logging"
	"github.com/Resonate-Protocol/resonate-render/internal/ui"
	"github.com/Resonate-Protocol/resonate-render/internal/version"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
	"github.com/Resonate-Protocol/resonate-render/pkg/audio/source"
	"github.com/Resonate-Protocol/resonate-render/pkg/render"
	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var (
	configPath  = flag.String("config", "", "Config file path (default: search ~/.config/resonate-render and .)")
	backend     = flag.String("backend", "", "Audio backend: malgo, oto or null (default: first available)")
	sampleRate  = flag.Int("sample-rate", 48000, "Preferred device sample rate")
	latencyMs   = flag.Int("latency-ms", 40, "Device buffer latency in milliseconds")
	underrun    = flag.String("underrun", "silence", "Underrun policy: silence or repeat")
	maxRecovery = flag.Int("max-recovery", 8, "Device recovery attempts before going silent")
	logLevel    = flag.String("log-level", "info", "Log level, optionally per subsystem (debug,RNDR=trace)")
	logFile     = flag.String("log-file", "", "Rotated log file path")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	sourceFlag  = flag.String("source", "tone", "\"tone\" or an mp3, flac, wav or raw PCM file")
	loop        = flag.Bool("loop", false, "Restart the file when it ends")
	frequency   = flag.Float64("frequency", 440, "Test tone frequency in Hz")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
	listDevices = flag.Bool("list-devices", false, "List output devices and exit")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

// flagKeys maps flags to the config keys they override
var flagKeys = map[string]string{
	"backend":      "backend",
	"sample-rate":  "sample_rate",
	"latency-ms":   "latency_ms",
	"underrun":     "underrun",
	"max-recovery": "recovery.max_attempts",
	"log-level":    "log.level",
	"log-file":     "log.file",
	"metrics-addr": "metrics.addr",
	"source":       "source",
	"loop":         "loop",
	"frequency":    "tone.frequency",
}

var (
	errQuit     = errors.New("quit requested")
	errFinished = errors.New("playback finished")
)

// producer is what the player feeds the engine from
type producer interface {
	Fill(dst []float32) int
	Title() string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	v := config.New()
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	cfg, err := config.Load(v, *configPath)
	if err != nil {
		return err
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs || *listDevices)

	var stdout io.Writer
	if !useTUI {
		stdout = os.Stdout
	}
	logs, err := logging.New(logging.Config{
		File:     cfg.Log.File,
		Level:    cfg.Log.Level,
		MaxFiles: cfg.Log.MaxFiles,
		Stdout:   stdout,
	})
	if err != nil {
		return err
	}
	defer logs.Close()

	log := logs.Logger(logging.SubsysMain)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platform, err := device.Open(cfg.Backend, logs.Logger(logging.SubsysDevice))
	if err != nil {
		return err
	}
	defer platform.Close()

	if *listDevices {
		return printDevices(ctx, platform)
	}

	log.Infof("Starting %s (backend %s)", version.String(), platform.Name())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	rcfg := cfg.Render()
	rcfg.Registerer = reg
	engine := render.New(rcfg, platform, logs.Logger(logging.SubsysRender))

	g, gctx := errgroup.WithContext(ctx)

	var (
		src    producer
		feeder *source.Feeder
	)
	srcLog := logs.Logger(logging.SubsysSource)
	if cfg.IsTone() {
		src = source.NewTone(cfg.Tone.Frequency, cfg.Tone.Amplitude, engine.SampleRate)
	} else {
		path := cfg.Source
		feeder = source.NewFeeder(func() (decode.Decoder, error) { return decode.Open(path) },
			engine.SampleRate, source.FeederConfig{Loop: cfg.Loop}, srcLog)
		src = feeder
	}
	if err := engine.SetCallback(src.Fill); err != nil {
		return err
	}

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start render engine: %w", err)
	}
	defer engine.Stop()

	if feeder != nil {
		g.Go(func() error { return feedUntilDrained(gctx, feeder) })
	}
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, reg, log) })
	}
	if useTUI {
		g.Go(func() error {
			poll := func() ui.StatusMsg { return status(engine, platform, src, feeder, logs) }
			if err := ui.Run(gctx, poll); err != nil {
				return fmt.Errorf("TUI failed: %w", err)
			}
			return errQuit
		})
	} else {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	err = g.Wait()
	switch {
	case errors.Is(err, errQuit):
		log.Infof("Received quit signal from TUI")
		err = nil
	case errors.Is(err, errFinished):
		log.Infof("Playback finished")
		err = nil
	case err == nil:
		log.Infof("Shutdown signal received")
	}

	engine.Stop()
	log.Infof("Player stopped")
	return err
}

// feedUntilDrained decodes the file and waits until the engine consumed it
func feedUntilDrained(ctx context.Context, f *source.Feeder) error {
	if err := f.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for !f.Drained() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return errFinished
}

// serveMetrics exposes reg until ctx is done
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Serving metrics on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// status gathers the TUI snapshot
func status(e *render.Engine, p device.Platform, src producer, f *source.Feeder, logs *logging.Backend) ui.StatusMsg {
	stats := e.Stats()
	msg := ui.StatusMsg{
		State:      e.State().String(),
		Backend:    p.Name(),
		Err:        e.Err(),
		Title:      src.Title(),
		Played:     stats.FramesSubmitted,
		Submitted:  stats.FramesSubmitted,
		Underruns:  stats.UnderrunFrames,
		Skipped:    stats.SkippedCycles,
		Recoveries: stats.Recoveries,
		Logs:       logs.Recent(8),
	}
	if format, ok := e.Format(); ok {
		msg.Format = format.String()
		msg.SampleRate = format.SampleRate
	}
	if ep, ok := e.Device(); ok {
		msg.Device = ep.Name
	}
	if f != nil {
		msg.Played = f.Played()
		msg.Buffered = f.Buffered()
	}
	return msg
}

// printDevices lists the backend's output endpoints
func printDevices(ctx context.Context, p device.Platform) error {
	endpoints, err := p.Endpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	fmt.Printf("Output devices (%s backend):\n", p.Name())
	if len(endpoints) == 0 {
		fmt.Println("  (none)")
	}
	for _, ep := range endpoints {
		marker := " "
		if ep.IsDefault {
			marker = "*"
		}
		fmt.Printf("  %s %s", marker, ep.Name)
		if ep.ID != "" {
			fmt.Printf(" [%s]", ep.ID)
		}
		fmt.Println()
	}
	return nil
}
