package variantfix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/riley/pkg/observability"
	"github.com/Sumatoshi-tech/riley/pkg/textutil"
)

var (
	// ErrNoTargets is returned when a patcher is built without targets.
	ErrNoTargets = errors.New("no patch targets")
	// ErrNotText indicates a target holds binary or non UTF-8 content.
	ErrNotText = errors.New("target is not a UTF-8 text file")
)

const (
	spanRun    = "riley.patch.run"
	spanTarget = "riley.patch.target"

	attrTargetPath   = "patch.target"
	attrTargetStatus = "patch.status"
	attrTargetCount  = "patch.targets"
	attrDryRun       = "patch.dry_run"
	attrReplacements = "patch.replacements"
	attrLanguage     = "patch.language"
)

// patchableLanguages are the enry languages the rules are written for.
var patchableLanguages = []string{"C++", "C"}

// Options configures a patch run.
type Options struct {
	// Root is the directory relative targets resolve against. Empty means
	// the current working directory.
	Root string

	// Wrapper is the conversion function name. Empty means DefaultWrapper.
	Wrapper string

	// Targets are processed in order. Report paths keep the given spelling.
	Targets []string

	// DryRun computes outcomes and diffs without writing any file.
	DryRun bool
}

// Patcher applies the rewrite rules to a fixed, ordered list of files.
type Patcher struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.PatchMetrics
	progress *Progress
	rules    []Rule
	opts     Options
}

// Option customizes a Patcher.
type Option func(*Patcher)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patcher) { p.logger = logger }
}

// WithTracer sets the tracer used for run and per-target spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Patcher) { p.tracer = tracer }
}

// WithMetrics records per-target metrics.
func WithMetrics(metrics *observability.PatchMetrics) Option {
	return func(p *Patcher) { p.metrics = metrics }
}

// WithProgress prints status lines before and after each target.
func WithProgress(progress *Progress) Option {
	return func(p *Patcher) { p.progress = progress }
}

// New validates opts and builds a Patcher.
func New(opts Options, options ...Option) (*Patcher, error) {
	if len(opts.Targets) == 0 {
		return nil, ErrNoTargets
	}

	if opts.Wrapper == "" {
		opts.Wrapper = DefaultWrapper
	}

	rules, err := Rules(opts.Wrapper)
	if err != nil {
		return nil, err
	}

	p := &Patcher{
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer(""),
		rules:  rules,
		opts:   opts,
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// Run processes every target in order. Missing files are skipped; any other
// failure stops the run and is returned together with the outcomes gathered
// so far. Targets written before the failure stay written.
func (p *Patcher) Run(ctx context.Context) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, spanRun, trace.WithAttributes(
		attribute.Int(attrTargetCount, len(p.opts.Targets)),
		attribute.Bool(attrDryRun, p.opts.DryRun),
	))
	defer span.End()

	report := &Report{
		Wrapper:  p.opts.Wrapper,
		DryRun:   p.opts.DryRun,
		Outcomes: make([]Outcome, 0, len(p.opts.Targets)),
	}

	for _, target := range p.opts.Targets {
		err := ctx.Err()
		if err != nil {
			return report, fmt.Errorf("patch interrupted before %s: %w", target, err)
		}

		outcome, err := p.patchTarget(ctx, target)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return report, err
		}

		report.Outcomes = append(report.Outcomes, outcome)
	}

	span.SetAttributes(attribute.Int(attrReplacements, report.Replacements()))
	p.progress.finished(p.opts.DryRun)
	p.logger.InfoContext(ctx, "patch run complete",
		"targets", len(report.Outcomes),
		"patched", report.Count(StatusPatched),
		"skipped", report.Count(StatusSkipped),
		"replacements", report.Replacements(),
		"dry_run", p.opts.DryRun)

	return report, nil
}

func (p *Patcher) patchTarget(ctx context.Context, target string) (Outcome, error) {
	ctx, span := p.tracer.Start(ctx, spanTarget, trace.WithAttributes(attribute.String(attrTargetPath, target)))
	defer span.End()

	started := time.Now()

	outcome, err := p.processTarget(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		outcome = Outcome{Path: target, Status: StatusFailed, Language: outcome.Language}
	}

	p.record(ctx, span, outcome, started)

	return outcome, err
}

func (p *Patcher) processTarget(ctx context.Context, target string) (Outcome, error) {
	outcome := Outcome{Path: target}
	path := p.resolve(target)

	info, err := os.Stat(path)
	if isMissing(err) {
		p.progress.skipped(target)
		p.logger.WarnContext(ctx, "patch target not found, skipping", "path", path)

		outcome.Status = StatusSkipped

		return outcome, nil
	}

	if err != nil {
		return outcome, fmt.Errorf("stat target: %w", err)
	}

	p.progress.fixing(target)

	original, err := os.ReadFile(path)
	if err != nil {
		return outcome, fmt.Errorf("read target: %w", err)
	}

	if !textutil.IsText(original) {
		return outcome, fmt.Errorf("%w: %s", ErrNotText, path)
	}

	outcome.Language = enry.GetLanguage(filepath.Base(path), original)
	if !slices.Contains(patchableLanguages, outcome.Language) {
		p.logger.WarnContext(ctx, "patch target does not look like C++", "path", path, "language", outcome.Language)
	}

	rewritten, hits := Rewrite(string(original), p.rules)

	outcome.Hits = hits
	outcome.BytesBefore = int64(len(original))
	outcome.BytesAfter = int64(len(rewritten))
	outcome.Lines = textutil.CountLines([]byte(rewritten))

	for _, hit := range hits {
		p.logger.DebugContext(ctx, "rule applied", "path", path, "rule", hit.Rule, "count", hit.Count)
	}

	switch {
	case rewritten == string(original):
		outcome.Status = StatusUnchanged
	case p.opts.DryRun:
		outcome.Status = StatusPlanned
		outcome.Diff = LineDiff(string(original), rewritten)
	default:
		err = os.WriteFile(path, []byte(rewritten), info.Mode().Perm())
		if err != nil {
			return outcome, fmt.Errorf("write target: %w", err)
		}

		outcome.Status = StatusPatched
	}

	p.progress.fixed(target, outcome.Status)

	return outcome, nil
}

// isMissing reports whether a stat error means the target does not resolve
// to a file. A regular file in place of a parent directory yields ENOTDIR.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (p *Patcher) resolve(target string) string {
	if p.opts.Root == "" || filepath.IsAbs(target) {
		return target
	}

	return filepath.Join(p.opts.Root, target)
}

func (p *Patcher) record(ctx context.Context, span trace.Span, outcome Outcome, started time.Time) {
	span.SetAttributes(
		attribute.String(attrTargetStatus, string(outcome.Status)),
		attribute.Int(attrReplacements, outcome.Replacements()),
		attribute.String(attrLanguage, outcome.Language),
	)

	hits := make(map[string]int, len(outcome.Hits))
	for _, hit := range outcome.Hits {
		hits[hit.Rule] = hit.Count
	}

	p.metrics.RecordTarget(ctx, observability.TargetStats{
		Status:   string(outcome.Status),
		Hits:     hits,
		Duration: time.Since(started),
	})
}
