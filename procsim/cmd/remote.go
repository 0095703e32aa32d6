package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/procsim/monitoring"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote <url> now|pause|continue|progress|ready",
	Short: "Control a simulation started with run --monitor.",
	Long: "`remote http://localhost:32776 pause` pauses the simulation " +
		"served at that address. `ready` lists the waiting processes.",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"now", "pause", "continue", "progress", "ready"},
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return runRemote(ctx, cmd.OutOrStdout(),
			monitoring.NewClient(args[0]), args[1])
	},
}

func init() {
	rootCmd.AddCommand(remoteCmd)

	remoteCmd.Flags().Duration("timeout", 5*time.Second,
		"Time to wait for the monitor")
}

func runRemote(
	ctx context.Context,
	w io.Writer,
	c *monitoring.Client,
	action string,
) error {
	switch action {
	case "now":
		return printStatus(w)(c.Now(ctx))
	case "pause":
		return printStatus(w)(c.Pause(ctx))
	case "continue":
		return printStatus(w)(c.Continue(ctx))
	case "progress":
		p, err := c.Progress(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%d of %d processes completed\n",
			p.Completed, p.Submitted)

		return nil
	case "ready":
		return printReadyQueue(ctx, w, c)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func printStatus(w io.Writer) func(monitoring.Status, error) error {
	return func(s monitoring.Status, err error) error {
		if err != nil {
			return err
		}

		state := "running"
		if s.Paused {
			state = "paused"
		}

		fmt.Fprintf(w, "time %d, %s\n", s.Now, state)

		return nil
	}
}

func printReadyQueue(
	ctx context.Context,
	w io.Writer,
	c *monitoring.Client,
) error {
	ps, err := c.ReadyQueue(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Process", "Arrival", "Remaining", "Priority"})

	for _, p := range ps {
		table.Append([]string{
			p.String(),
			strconv.FormatInt(int64(p.ArrivalTime), 10),
			strconv.FormatInt(int64(p.RemainingBurstTime()), 10),
			strconv.Itoa(p.Priority),
		})
	}

	table.Render()

	return nil
}
