package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/workload"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a random workload file.",
	Long: "`generate -n 100 --seed 7 -o input.txt` writes 100 random " +
		"processes. The same seed always gives the same file.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		n, _ := flags.GetInt("num")
		seed, _ := flags.GetInt64("seed")
		output, _ := flags.GetString("output")
		maxBurst, _ := flags.GetInt64("max-burst")
		maxGap, _ := flags.GetInt64("max-inter-arrival")
		maxPriority, _ := flags.GetInt("max-priority")

		if n <= 0 {
			return fmt.Errorf("number of processes must be positive, got %d", n)
		}

		gen := workload.GeneratorConfig{
			MaxInterArrival: sim.VTime(maxGap),
			MaxBurst:        sim.VTime(maxBurst),
			MaxPriority:     maxPriority,
		}
		specs := gen.Generate(n, seed)

		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			w = f
		}

		return workload.Write(w, specs)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	d := workload.DefaultGeneratorConfig
	generateCmd.Flags().IntP("num", "n", 100, "Number of processes")
	generateCmd.Flags().Int64("seed", 1, "Random seed")
	generateCmd.Flags().StringP("output", "o", "", "Output file, stdout if empty")
	generateCmd.Flags().Int64("max-burst", int64(d.MaxBurst), "Longest burst time")
	generateCmd.Flags().Int64("max-inter-arrival", int64(d.MaxInterArrival),
		"Longest gap between two arrivals")
	generateCmd.Flags().Int("max-priority", d.MaxPriority, "Largest priority value")
}
