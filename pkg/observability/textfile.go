package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// newPrometheusReader creates a private Prometheus registry and an OTel
// reader that exports into it. A fresh registry per call avoids collector
// conflicts when Init runs more than once in a process.
func newPrometheusReader() (*prometheus.Registry, sdkmetric.Reader, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return registry, exporter, nil
}

// WriteTextfile writes every metric gathered by gatherer to path in the
// Prometheus text format. The file is replaced atomically.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	err := prometheus.WriteToTextfile(path, gatherer)
	if err != nil {
		return fmt.Errorf("write prometheus textfile %s: %w", path, err)
	}

	return nil
}
