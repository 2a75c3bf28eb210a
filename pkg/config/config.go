// Package config provides YAML-based configuration for the riley commands.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/riley/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrNoTargets         = errors.New("patch.targets must not be empty")
	ErrEmptyWrapper      = errors.New("patch.wrapper must not be empty")
	ErrInvalidLogFormat  = errors.New("invalid logging.format")
	ErrInvalidLogLevel   = errors.New("invalid logging.level")
	ErrInvalidSampleRate = errors.New("telemetry.sample_ratio must be within [0, 1]")
)

// Config holds all configuration for riley.
type Config struct {
	Patch     PatchConfig     `mapstructure:"patch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// PatchConfig configures the source patcher.
type PatchConfig struct {
	Root    string   `mapstructure:"root"`
	Wrapper string   `mapstructure:"wrapper"`
	Targets []string `mapstructure:"targets"`
	DryRun  bool     `mapstructure:"dry_run"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	Environment        string  `mapstructure:"environment"`
	OTLPEndpoint       string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders        string  `mapstructure:"otlp_headers"`
	PrometheusTextfile string  `mapstructure:"prometheus_textfile"`
	SampleRatio        float64 `mapstructure:"sample_ratio"`
	OTLPInsecure       bool    `mapstructure:"otlp_insecure"`
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if len(c.Patch.Targets) == 0 {
		return ErrNoTargets
	}

	if strings.TrimSpace(c.Patch.Wrapper) == "" {
		return ErrEmptyWrapper
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err := observability.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.Telemetry.SampleRatio)
	}

	return nil
}

// Observability maps logging and telemetry settings onto an observability config.
func (c *Config) Observability() observability.Config {
	obsCfg := observability.DefaultConfig()

	// Validate has already rejected unknown levels.
	obsCfg.LogLevel, _ = observability.ParseLogLevel(c.Logging.Level)
	obsCfg.LogJSON = c.Logging.Format == LogFormatJSON
	obsCfg.Environment = c.Telemetry.Environment
	obsCfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = c.Telemetry.SampleRatio
	obsCfg.PrometheusTextfile = c.Telemetry.PrometheusTextfile

	return obsCfg
}
