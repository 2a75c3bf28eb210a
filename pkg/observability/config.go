// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the riley commands.
package observability

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the CLI command execution mode.
	ModeCLI AppMode = "cli"
	// ModeTest is used by in-process harnesses.
	ModeTest AppMode = "test"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "riley"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// ErrInvalidLogLevel is returned by ParseLogLevel for unknown level names.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Config holds all observability configuration.
type Config struct {
	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// PrometheusTextfile, when set, receives the run metrics in Prometheus
	// text format on Shutdown, for the node_exporter textfile collector.
	PrometheusTextfile string

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	// Zero samples every root span.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// LogJSON enables JSON-formatted log output.
	LogJSON bool
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLogLevel maps debug, info, warn/warning and error to slog levels.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}
}
