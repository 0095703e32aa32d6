// Package cmd provides the command-line interface of procsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "procsim",
	Short: "procsim simulates how a CPU scheduler serves a list of processes.",
	Long: `procsim simulates how a CPU scheduler serves a list of processes ` +
		`under FIFO, SJF, or preemptive Priority scheduling and reports ` +
		`wait, turnaround, and response times.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits through atexit so that registered flushes run.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
