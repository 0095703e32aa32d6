package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/procsim/datarecording"
	"github.com/sarchlab/procsim/tracing"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <database>",
	Short: "Print the CPU trace recorded by run --trace-db.",
	Long: "`trace out` reads out.sqlite3 and lists every dispatch in time " +
		"order. --where takes a SQL condition on the columns of the table.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		where, _ := cmd.Flags().GetString("where")

		return printTrace(cmd.Context(), cmd.OutOrStdout(),
			databaseFile(args[0]),
			datarecording.QueryParams{
				Where:   where,
				Limit:   limit,
				OrderBy: "StartTime, ID",
			})
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().Int("limit", 0, "Maximum number of rows, 0 for all")
	traceCmd.Flags().String("where", "", "Condition on the trace rows")
}

// databaseFile accepts the database name with or without its extension.
func databaseFile(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}

	return name + ".sqlite3"
}

func printTrace(
	ctx context.Context,
	w io.Writer,
	file string,
	params datarecording.QueryParams,
) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}

	reader, err := datarecording.NewReader(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.TraceTableName, tracing.TaskTableEntry{})

	if ctx == nil {
		ctx = context.Background()
	}

	rows, total, err := reader.Query(ctx, tracing.TraceTableName, params)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Kind", "What", "Location", "Start", "End"})

	for _, row := range rows {
		e := row.(tracing.TaskTableEntry)
		table.Append([]string{
			e.ID, e.Kind, e.What, e.Location,
			strconv.FormatInt(e.StartTime, 10),
			strconv.FormatInt(e.EndTime, 10),
		})
	}

	table.Render()
	fmt.Fprintf(w, "%d of %d tasks\n", len(rows), total)

	return nil
}
