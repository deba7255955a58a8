// ABOUTME: Player configuration
// ABOUTME: Viper defaults, optional config file, environment and flag overrides
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/render"
	"github.com/spf13/viper"
)

// Name is the config file base name searched for when no path is given
const Name = "resonate-render"

// EnvPrefix prefixes environment overrides, e.g. RESONATE_SAMPLE_RATE
const EnvPrefix = "RESONATE"

// Config is the resolved player configuration
type Config struct {
	Backend     string
	SampleRate  int
	Latency     time.Duration
	BufferBytes int
	Underrun    render.UnderrunPolicy

	Recovery struct {
		MaxAttempts int
		Initial     time.Duration
		Max         time.Duration
	}

	Log struct {
		Level    string
		File     string
		MaxFiles int
	}

	MetricsAddr string
	Source      string
	Loop        bool

	Tone struct {
		Frequency float64
		Amplitude float64
	}
}

// New returns a viper instance holding the defaults
func New() *viper.Viper {
	v := viper.New()
	def := render.DefaultConfig()

	v.SetDefault("backend", "")
	v.SetDefault("sample_rate", def.SampleRate)
	v.SetDefault("latency_ms", def.Latency.Milliseconds())
	v.SetDefault("buffer_bytes", def.BufferBytes)
	v.SetDefault("underrun", def.Underrun.String())
	v.SetDefault("recovery.max_attempts", def.MaxRecoveryAttempts)
	v.SetDefault("recovery.initial_ms", def.RecoveryInitialInterval.Milliseconds())
	v.SetDefault("recovery.max_ms", def.RecoveryMaxInterval.Milliseconds())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_files", 3)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("source", "tone")
	v.SetDefault("loop", false)
	v.SetDefault("tone.frequency", 440.0)
	v.SetDefault("tone.amplitude", 0.5)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and resolves the configuration. An
// explicit path must exist; without one the user config directory and the
// working directory are searched and a missing file is fine.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath("$HOME/.config/" + Name)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	c := &Config{
		Backend:     v.GetString("backend"),
		SampleRate:  v.GetInt("sample_rate"),
		Latency:     time.Duration(v.GetInt64("latency_ms")) * time.Millisecond,
		BufferBytes: v.GetInt("buffer_bytes"),
		MetricsAddr: v.GetString("metrics.addr"),
		Source:      v.GetString("source"),
		Loop:        v.GetBool("loop"),
	}
	c.Recovery.MaxAttempts = v.GetInt("recovery.max_attempts")
	c.Recovery.Initial = time.Duration(v.GetInt64("recovery.initial_ms")) * time.Millisecond
	c.Recovery.Max = time.Duration(v.GetInt64("recovery.max_ms")) * time.Millisecond
	c.Log.Level = v.GetString("log.level")
	c.Log.File = v.GetString("log.file")
	c.Log.MaxFiles = v.GetInt("log.max_files")
	c.Tone.Frequency = v.GetFloat64("tone.frequency")
	c.Tone.Amplitude = v.GetFloat64("tone.amplitude")

	var err error
	if c.Underrun, err = render.ParseUnderrunPolicy(v.GetString("underrun")); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("invalid sample_rate %d", c.SampleRate)
	case c.Latency <= 0:
		return fmt.Errorf("invalid latency_ms %v", c.Latency)
	case c.BufferBytes < 0:
		return fmt.Errorf("invalid buffer_bytes %d", c.BufferBytes)
	case c.Recovery.MaxAttempts <= 0:
		return fmt.Errorf("invalid recovery.max_attempts %d", c.Recovery.MaxAttempts)
	case c.Source == "":
		return errors.New("source must be \"tone\" or a file path")
	}
	return nil
}

// Render returns the engine configuration
func (c *Config) Render() render.Config {
	return render.Config{
		SampleRate:              c.SampleRate,
		Latency:                 c.Latency,
		BufferBytes:             c.BufferBytes,
		Underrun:                c.Underrun,
		MaxRecoveryAttempts:     c.Recovery.MaxAttempts,
		RecoveryInitialInterval: c.Recovery.Initial,
		RecoveryMaxInterval:     c.Recovery.Max,
	}
}

// IsTone reports whether the configured source is the test tone
func (c *Config) IsTone() bool {
	return strings.EqualFold(c.Source, "tone")
}
