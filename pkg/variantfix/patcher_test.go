package variantfix_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/riley/pkg/observability"
	"github.com/Sumatoshi-tech/riley/pkg/variantfix"
)

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

func newPatcher(t *testing.T, opts variantfix.Options, extra ...variantfix.Option) (*variantfix.Patcher, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	if opts.Wrapper == "" {
		opts.Wrapper = testWrapper
	}

	options := append([]variantfix.Option{
		variantfix.WithProgress(variantfix.NewProgress(&out, true)),
		variantfix.WithLogger(slog.New(slog.DiscardHandler)),
	}, extra...)

	p, err := variantfix.New(opts, options...)
	require.NoError(t, err)

	return p, &out
}

func TestNew_RequiresTargets(t *testing.T) {
	t.Parallel()

	_, err := variantfix.New(variantfix.Options{})
	require.ErrorIs(t, err, variantfix.ErrNoTargets)
}

func TestNew_RejectsInvalidWrapper(t *testing.T) {
	t.Parallel()

	_, err := variantfix.New(variantfix.Options{Targets: []string{"a.cpp"}, Wrapper: "not valid"})
	require.ErrorIs(t, err, variantfix.ErrInvalidWrapper)
}

func TestNew_DefaultWrapper(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `foo.at("bar")`)

	p, err := variantfix.New(variantfix.Options{Root: root, Targets: []string{"a.cpp"}})
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, variantfix.DefaultWrapper, report.Wrapper)
	assert.Equal(t, `variantToString(foo.at("bar"))`, readFile(t, path))
}

func TestRun_PatchesSingleLookup(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "core/CRMModule.cpp", `foo.at("bar")`)

	p, out := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"core/CRMModule.cpp"}})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `conversionCall(foo.at("bar"))`, readFile(t, path))
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, variantfix.StatusPatched, report.Outcomes[0].Status)
	assert.Equal(t, 1, report.Replacements())
	assert.Equal(t, "Fixing core/CRMModule.cpp...\nFixed core/CRMModule.cpp\nAll files fixed!\n", out.String())
}

func TestRun_GuardedLookupNotDoubleWrapped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `x.count("k") ? conversionCall(x.at("k")) : ""`)

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	got := readFile(t, path)
	assert.NotContains(t, got, "conversionCall(conversionCall(")
	assert.Equal(t, `x.count("k") ? conversionCall(x.at("k")) : ""`, got)
	assert.Equal(t, variantfix.StatusUnchanged, report.Outcomes[0].Status)
}

func TestRun_StreamLookup(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `cout << m["key"] << endl;`)

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `cout << conversionCall(m["key"]) << endl;`, readFile(t, path))
}

func TestRun_SkipsMissingAndPatchesRest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := writeFile(t, root, "core/SalesModule.cpp", `a.at("x");`)
	last := writeFile(t, root, "core/HRModule.cpp", `cout << e["id"] << endl;`)

	p, out := newPatcher(t, variantfix.Options{
		Root:    root,
		Targets: []string{"core/SalesModule.cpp", "core/Missing.cpp", "core/HRModule.cpp"},
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `conversionCall(a.at("x"));`, readFile(t, first))
	assert.Equal(t, `cout << conversionCall(e["id"]) << endl;`, readFile(t, last))

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, variantfix.StatusSkipped, report.Outcomes[1].Status)
	assert.Equal(t, "core/Missing.cpp", report.Outcomes[1].Path)
	assert.Equal(t, 2, report.Count(variantfix.StatusPatched))
	assert.Contains(t, out.String(), "Skipping core/Missing.cpp: file not found\n")
	assert.NoFileExists(t, filepath.Join(root, "core/Missing.cpp"))
}

func TestRun_OnlyListedFilesTouched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	listed := writeFile(t, root, "a.cpp", `a.at("x");`)
	unlisted := writeFile(t, root, "b.cpp", `b.at("y");`)

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `conversionCall(a.at("x"));`, readFile(t, listed))
	assert.Equal(t, `b.at("y");`, readFile(t, unlisted))
}

func TestRun_SecondRunIsByteIdenticalForGuardedSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `std::string email = c.count("email") ? c.at("email") : "";
std::cout << "Email: " << c["email"] << std::endl;
`)

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	once := readFile(t, path)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, once, readFile(t, path))
	assert.Equal(t, variantfix.StatusUnchanged, report.Outcomes[0].Status)
}

func TestRun_DryRunLeavesFilesUntouched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := "int main() {\n  auto v = m.at(\"k\");\n  return 0;\n}\n"
	path := writeFile(t, root, "a.cpp", src)

	p, out := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}, DryRun: true})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, src, readFile(t, path))
	assert.True(t, report.DryRun)
	require.Len(t, report.Outcomes, 1)

	outcome := report.Outcomes[0]
	assert.Equal(t, variantfix.StatusPlanned, outcome.Status)
	assert.Equal(t, "-  auto v = m.at(\"k\");\n+  auto v = conversionCall(m.at(\"k\"));\n", outcome.Diff)
	assert.Equal(t, int64(len(src)), outcome.BytesBefore)
	assert.Equal(t, int64(len(src)+len("conversionCall()")), outcome.BytesAfter)
	assert.Equal(t, 4, outcome.Lines)
	assert.Contains(t, out.String(), "Would fix a.cpp\n")
	assert.Contains(t, out.String(), "Dry run complete, no files written.\n")
}

func TestRun_BinaryTargetAbortsAfterEarlierWrites(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := writeFile(t, root, "a.cpp", `a.at("x");`)
	writeFile(t, root, "b.cpp", "b.at(\"y\");\x00")
	third := writeFile(t, root, "c.cpp", `c.at("z");`)

	p, out := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp", "b.cpp", "c.cpp"}})

	report, err := p.Run(context.Background())
	require.ErrorIs(t, err, variantfix.ErrNotText)

	assert.Equal(t, `conversionCall(a.at("x"));`, readFile(t, first))
	assert.Equal(t, `c.at("z");`, readFile(t, third))
	require.Len(t, report.Outcomes, 1)
	assert.NotContains(t, out.String(), "All files fixed!")
}

func TestRun_DirectoryTargetIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.cpp"), 0o750))

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"dir.cpp"}})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "dir.cpp"), err.Error())
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `a.at("x");`)

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, `a.at("x");`, readFile(t, path))
}

func TestRun_PreservesPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "a.cpp", `a.at("x");`)
	require.NoError(t, os.Chmod(path, 0o640))

	p, _ := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"a.cpp"}})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRun_AbsoluteTargetIgnoresRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "abs.cpp", `a.at("x");`)

	p, _ := newPatcher(t, variantfix.Options{Root: t.TempDir(), Targets: []string{path}})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `conversionCall(a.at("x"));`, readFile(t, path))
}

func TestRun_RecordsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	root := t.TempDir()
	writeFile(t, root, "a.cpp", `a.at("x");`)

	p, _ := newPatcher(t,
		variantfix.Options{Root: root, Targets: []string{"a.cpp", "missing.cpp"}},
		variantfix.WithTracer(tp.Tracer("test")),
	)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.ElementsMatch(t, []string{"riley.patch.target", "riley.patch.target", "riley.patch.run"}, names)
}

func TestRun_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewPatchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	root := t.TempDir()
	writeFile(t, root, "a.cpp", `a.at("x"); b.at("y");`)

	p, _ := newPatcher(t,
		variantfix.Options{Root: root, Targets: []string{"a.cpp", "missing.cpp"}},
		variantfix.WithMetrics(metrics),
	)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]int64{}

	for _, m := range rm.ScopeMetrics[0].Metrics {
		data, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			continue
		}

		for _, dp := range data.DataPoints {
			sums[m.Name] += dp.Value
		}
	}

	assert.Equal(t, int64(2), sums["riley.patch.targets.total"])
	assert.Equal(t, int64(2), sums["riley.patch.replacements.total"])
}

func TestRun_DetectsLanguage(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	root := t.TempDir()
	writeFile(t, root, "core/Module.cpp", "auto v = m.at(\"k\");\n")
	writeFile(t, root, "notes.md", "# Notes\n\nSee m.at(\"k\") for details.\n")

	p, _ := newPatcher(t,
		variantfix.Options{Root: root, Targets: []string{"core/Module.cpp", "notes.md"}, DryRun: true},
		variantfix.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)

	assert.Equal(t, "C++", report.Outcomes[0].Language)
	assert.Equal(t, "Markdown", report.Outcomes[1].Language)
	assert.Contains(t, logs.String(), "does not look like C++")
	assert.Contains(t, logs.String(), "notes.md")
}

func TestRun_SkipsTargetUnderRegularFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "core", "not a directory\n")
	second := writeFile(t, root, "b.cpp", `a.at("x");`)

	p, out := newPatcher(t, variantfix.Options{Root: root, Targets: []string{"core/CRMModule.cpp", "b.cpp"}})

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)

	assert.Equal(t, variantfix.StatusSkipped, report.Outcomes[0].Status)
	assert.Equal(t, variantfix.StatusPatched, report.Outcomes[1].Status)
	assert.Equal(t, `conversionCall(a.at("x"));`, readFile(t, second))
	assert.Contains(t, out.String(), "Skipping core/CRMModule.cpp: file not found\n")
}

func TestRun_RecordsFailedTarget(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewPatchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	root := t.TempDir()
	writeFile(t, root, "a.cpp", `a.at("x");`)
	writeFile(t, root, "b.cpp", "b.at(\"y\");\x00")

	p, _ := newPatcher(t,
		variantfix.Options{Root: root, Targets: []string{"a.cpp", "b.cpp"}},
		variantfix.WithTracer(tp.Tracer("test")),
		variantfix.WithMetrics(metrics),
	)

	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, variantfix.ErrNotText)

	failedSpans := 0

	for _, span := range recorder.Ended() {
		if span.Name() != "riley.patch.target" || span.Status().Code != codes.Error {
			continue
		}

		failedSpans++

		assert.NotEmpty(t, span.Events(), "error event recorded")
	}

	assert.Equal(t, 1, failedSpans)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	byStatus := map[string]int64{}

	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "riley.patch.targets.total" {
			continue
		}

		data, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		for _, dp := range data.DataPoints {
			status, _ := dp.Attributes.Value(attribute.Key("status"))
			byStatus[status.AsString()] += dp.Value
		}
	}

	assert.Equal(t, map[string]int64{"patched": 1, "failed": 1}, byStatus)
}
