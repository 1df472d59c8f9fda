package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getset [file]",
		Short: "Getset runs the shell steps of a task file in order",
		Long: `Getset runs the shell steps of a task file in order, stopping at the first failure.

Without a file argument it looks for getset.toml, getset.yaml or getset.yml.
A task file named "list" collides with the list subcommand; pass it as ./list.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runTasks,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.BoolP("verbose", "v", false, "stream command output in real time")
	persistent.Bool("report", false, "show per-step timing after the run")
	persistent.String("step", "", "run only steps whose title matches (case-insensitive substring or /regex/)")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Bool("plain", false, "never redraw earlier terminal output")
	persistent.String("log-level", "", "diagnostic log level (debug|info|warn|error)")

	cmd.AddCommand(newListCmd())

	return cmd
}
