// Package cmd implements the br0wse command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/pkg/profiling"
)

// NewRootCmd builds the br0wse command tree. Running it without a
// subcommand starts the interactive browser.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"br0wse",
		"Browse services advertised on the local network",
	)
	root.Long = `Browse services advertised over multicast DNS (DNS-SD) and watch them
appear live. Discovered services and a periodic tick counter are shown
side by side.

Examples:
  # Browse web servers on the local network
  br0wse

  # Browse printers, polling every 250ms
  br0wse -t _ipp._tcp --poll-timeout 250ms

  # Run headless and follow updates from another terminal
  br0wse daemon start
  br0wse watch`
	root.SilenceErrors = true
	root.SilenceUsage = true

	overrides := cli.BindOverrides(root.PersistentFlags())

	profiler := profiling.NewCobraProfiler(cli.GetLogger(root))
	profiler.AddFlags(root)
	root.PersistentPreRunE = profiler.PreRun
	root.PersistentPostRun = profiler.PostRun

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd, overrides)
	}

	root.AddCommand(newBrowseCmd(overrides))
	root.AddCommand(newDaemonCmd(overrides))
	root.AddCommand(newWatchCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newConfigCmd(overrides))
	root.AddCommand(cli.NewVersionCommand("br0wse"))

	cli.ApplyStyledHelpRecursive(root)
	return root
}

// Execute runs the root command and reports errors through cli.ErrorHandler.
// It returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
	return 1
}
