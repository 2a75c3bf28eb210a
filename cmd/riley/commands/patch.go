package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/riley/pkg/config"
	"github.com/Sumatoshi-tech/riley/pkg/observability"
	"github.com/Sumatoshi-tech/riley/pkg/render"
	"github.com/Sumatoshi-tech/riley/pkg/safeconv"
	"github.com/Sumatoshi-tech/riley/pkg/variantfix"
)

const (
	patchCmdName = "patch"
	flagConfig   = "config"
	flagRoot     = "root"
	flagWrapper  = "wrapper"
	flagDryRun   = "dry-run"
	flagFormat   = "format"
	flagNoColor  = "no-color"
	flagQuiet    = "quiet"
)

// PatchCommand holds configuration and dependencies for the patch command.
type PatchCommand struct {
	loadConfig configLoader
	initObs    observabilityInit
	configPath string
	root       string
	wrapper    string
	format     string
	dryRun     bool
	noColor    bool
	quiet      bool
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	return newPatchCommandWithDeps(config.LoadConfig, observability.Init)
}

func newPatchCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	pc := &PatchCommand{
		loadConfig: loadConfig,
		initObs:    initObs,
		format:     render.FormatText,
	}

	cmd := &cobra.Command{
		Use:   "patch [file...]",
		Short: "Wrap variant lookups with a string conversion call",
		Long: `Rewrite the module sources so variant lookups go through a conversion call.

Three rules run over each file in order:
  wrap-at           name.at("key")                    -> W(name.at("key"))
  collapse-guarded  m.count("k") ? W(W(m.at("k")))    -> m.count("k") ? W(m.at("k"))
  wrap-stream       << name["key"] <<                 -> << W(name["key"]) <<

Files are taken from the arguments, else from patch.targets in the config,
else the eight core module sources. Missing files are skipped. Files are
overwritten in place without backup; use --dry-run to preview.

This is a textual heuristic, not a C++ parser. Running it twice wraps plain
.at() lookups a second time.`,
		RunE: pc.run,
	}

	cmd.Flags().StringVarP(&pc.configPath, flagConfig, "c", "", "Config file (default: .riley.yaml in cwd or $HOME)")
	cmd.Flags().StringVar(&pc.root, flagRoot, "", "Directory relative targets resolve against (default: patch.root)")
	cmd.Flags().StringVar(&pc.wrapper, flagWrapper, "", "Conversion function name (default: patch.wrapper)")
	cmd.Flags().BoolVar(&pc.dryRun, flagDryRun, false, "Show the changes without writing files")
	cmd.Flags().StringVar(&pc.format, flagFormat, render.FormatText, "Report format: text, json, yaml")
	cmd.Flags().BoolVar(&pc.noColor, flagNoColor, false, "Disable colored status lines")
	cmd.Flags().BoolVarP(&pc.quiet, flagQuiet, "q", false, "Suppress status lines")

	return cmd
}

func (pc *PatchCommand) run(cmd *cobra.Command, args []string) error {
	format, err := render.ValidateFormat(pc.format)
	if err != nil {
		return err
	}

	sess, err := startSession(cmd, patchCmdName, pc.configPath, pc.loadConfig, pc.initObs, func(cfg *config.Config) {
		pc.applyOverrides(cmd, cfg, args)
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	return sess.finish(ctx, pc.execute(cmd, sess, format))
}

func (pc *PatchCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Patch.Targets = args
	}

	if cmd.Flags().Changed(flagRoot) {
		cfg.Patch.Root = pc.root
	}

	if cmd.Flags().Changed(flagWrapper) {
		cfg.Patch.Wrapper = pc.wrapper
	}

	if cmd.Flags().Changed(flagDryRun) {
		cfg.Patch.DryRun = pc.dryRun
	}
}

func (pc *PatchCommand) execute(cmd *cobra.Command, sess *session, format string) error {
	ctx := cmd.Context()

	patchMetrics, err := observability.NewPatchMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	options := []variantfix.Option{
		variantfix.WithLogger(sess.logger),
		variantfix.WithTracer(sess.providers.Tracer),
		variantfix.WithMetrics(patchMetrics),
	}

	if !pc.quiet {
		// Machine-readable reports own stdout; status lines move to stderr.
		progressOut := cmd.OutOrStdout()
		if format != render.FormatText {
			progressOut = cmd.ErrOrStderr()
		}

		options = append(options, variantfix.WithProgress(variantfix.NewProgress(progressOut, pc.noColor)))
	}

	patcher, err := variantfix.New(variantfix.Options{
		Root:    sess.cfg.Patch.Root,
		Wrapper: sess.cfg.Patch.Wrapper,
		Targets: sess.cfg.Patch.Targets,
		DryRun:  sess.cfg.Patch.DryRun,
	}, options...)
	if err != nil {
		return err
	}

	report, runErr := patcher.Run(ctx)

	writeErr := writePatchReport(cmd.OutOrStdout(), report, format)
	if runErr != nil {
		return runErr
	}

	return writeErr
}

func writePatchReport(w io.Writer, report *variantfix.Report, format string) error {
	switch format {
	case render.FormatJSON:
		return render.WriteJSON(w, report)
	case render.FormatYAML:
		return render.WriteYAML(w, report)
	default:
		return writePatchTable(w, report)
	}
}

func writePatchTable(w io.Writer, report *variantfix.Report) error {
	if len(report.Outcomes) == 0 {
		return nil
	}

	tbl := render.NewTable(w)
	tbl.AppendHeader(table.Row{
		"target", "status", variantfix.RuleWrapAt, variantfix.RuleCollapseGuarded, variantfix.RuleWrapStream, "size",
	})

	for _, outcome := range report.Outcomes {
		row := table.Row{outcome.Path, string(outcome.Status)}

		counts := map[string]int{}
		for _, hit := range outcome.Hits {
			counts[hit.Rule] = hit.Count
		}

		row = append(row,
			counts[variantfix.RuleWrapAt],
			counts[variantfix.RuleCollapseGuarded],
			counts[variantfix.RuleWrapStream],
			sizeChange(outcome),
		)

		tbl.AppendRow(row)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf(
		"%d patched, %d planned, %d unchanged, %d skipped, %d replacements",
		report.Count(variantfix.StatusPatched),
		report.Count(variantfix.StatusPlanned),
		report.Count(variantfix.StatusUnchanged),
		report.Count(variantfix.StatusSkipped),
		report.Replacements(),
	)})

	fmt.Fprintln(w)
	tbl.Render()

	for _, outcome := range report.Outcomes {
		if outcome.Diff == "" {
			continue
		}

		fmt.Fprintf(w, "\n--- %s\n+++ %s\n%s", outcome.Path, outcome.Path, outcome.Diff)
	}

	return nil
}

func sizeChange(outcome variantfix.Outcome) string {
	if outcome.Status == variantfix.StatusSkipped {
		return "-"
	}

	before := humanize.Bytes(safeconv.MustInt64ToUint64(outcome.BytesBefore))
	after := humanize.Bytes(safeconv.MustInt64ToUint64(outcome.BytesAfter))

	if before == after {
		return before
	}

	return strings.Join([]string{before, after}, " -> ")
}
