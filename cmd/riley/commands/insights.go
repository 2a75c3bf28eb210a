package commands

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/riley/pkg/config"
	"github.com/Sumatoshi-tech/riley/pkg/insights"
	"github.com/Sumatoshi-tech/riley/pkg/observability"
	"github.com/Sumatoshi-tech/riley/pkg/render"
)

const (
	insightsCmdName = "insights"
	flagInput       = "input"
)

// InsightsCommand holds configuration and dependencies for the insights command.
type InsightsCommand struct {
	loadConfig configLoader
	initObs    observabilityInit
	configPath string
	inputPath  string
	format     string
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand() *cobra.Command {
	return newInsightsCommandWithDeps(config.LoadConfig, observability.Init)
}

func newInsightsCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	ic := &InsightsCommand{
		loadConfig: loadConfig,
		initObs:    initObs,
		format:     render.FormatText,
	}

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print sales, churn and support ticket summaries",
		Long: `Print the business-intelligence summaries.

The summaries are placeholders with fixed values. An optional --input file
(YAML or JSON) is decoded and handed to every summary, which ignores it.`,
		Args: cobra.NoArgs,
		RunE: ic.run,
	}

	cmd.Flags().StringVarP(&ic.configPath, flagConfig, "c", "", "Config file (default: .riley.yaml in cwd or $HOME)")
	cmd.Flags().StringVarP(&ic.inputPath, flagInput, "i", "", "YAML or JSON document passed to the summaries")
	cmd.Flags().StringVar(&ic.format, flagFormat, render.FormatText, "Output format: table, json, yaml")

	return cmd
}

func (ic *InsightsCommand) run(cmd *cobra.Command, _ []string) error {
	format, err := render.ValidateFormat(ic.format)
	if err != nil {
		return err
	}

	sess, err := startSession(cmd, insightsCmdName, ic.configPath, ic.loadConfig, ic.initObs, nil)
	if err != nil {
		return err
	}

	return sess.finish(cmd.Context(), ic.execute(cmd, sess, format))
}

func (ic *InsightsCommand) execute(cmd *cobra.Command, sess *session, format string) error {
	data, err := readInput(ic.inputPath)
	if err != nil {
		return err
	}

	sess.logger.DebugContext(cmd.Context(), "computing insights", "input", ic.inputPath)

	bundle := insights.Snapshot(data)
	out := cmd.OutOrStdout()

	switch format {
	case render.FormatJSON:
		return render.WriteJSON(out, bundle)
	case render.FormatYAML:
		return render.WriteYAML(out, bundle)
	default:
		writeInsightsTable(out, bundle)

		return nil
	}
}

// readInput decodes the document at path into an untyped value. JSON is a
// subset of YAML, so one decoder serves both.
func readInput(path string) (any, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var data any

	err = yaml.Unmarshal(raw, &data)
	if err != nil {
		return nil, fmt.Errorf("decode input %s: %w", path, err)
	}

	return data, nil
}

func writeInsightsTable(w io.Writer, bundle insights.Bundle) {
	tbl := render.NewTable(w)
	tbl.AppendHeader(table.Row{"section", "key", "value"})

	for _, section := range bundle.Sections() {
		keys := make([]string, 0, len(section.Fields))
		for key := range section.Fields {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		for _, key := range keys {
			tbl.AppendRow(table.Row{section.Name, key, section.Fields[key]})
		}
	}

	tbl.Render()
}
