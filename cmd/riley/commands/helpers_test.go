package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/riley/pkg/config"
	"github.com/Sumatoshi-tech/riley/pkg/observability"
)

const testWrapper = "toText"

var errStubLoader = errors.New("stub loader failure")

// testConfig returns a valid configuration rooted at root.
func testConfig(root string) *config.Config {
	return &config.Config{
		Patch: config.PatchConfig{
			Root:    root,
			Wrapper: testWrapper,
			Targets: config.DefaultPatchTargets(),
		},
		Logging: config.LoggingConfig{
			Level:  config.DefaultLogLevel,
			Format: config.DefaultLogFormat,
		},
	}
}

func stubLoader(cfg *config.Config) configLoader {
	return func(_ string) (*config.Config, error) {
		return cfg, nil
	}
}

func failingLoader(_ string) (*config.Config, error) {
	return nil, errStubLoader
}

func noopObservability(_ observability.Config) (observability.Providers, error) {
	return observability.Providers{
		Tracer:   nooptrace.NewTracerProvider().Tracer("test"),
		Meter:    noopmetric.NewMeterProvider().Meter("test"),
		Logger:   slog.New(slog.DiscardHandler),
		Shutdown: func(context.Context) error { return nil },
	}, nil
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())

	return outBuf.String(), errBuf.String(), err
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}
