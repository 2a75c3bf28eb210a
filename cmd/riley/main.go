// Package main provides the entry point for the riley CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/riley/cmd/riley/commands"
	"github.com/Sumatoshi-tech/riley/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "riley",
		Short: "Riley maintenance and reporting tool",
		Long: `Riley bundles the maintenance utilities of the Riley business suite.

Commands:
  patch     Wrap variant lookups in the module sources with a string conversion
  insights  Print the business-intelligence summaries`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewPatchCommand())
	rootCmd.AddCommand(commands.NewInsightsCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "riley %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
