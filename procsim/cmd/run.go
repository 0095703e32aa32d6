package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/markphelps/optional"
	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/cpu"
	"github.com/sarchlab/procsim/datarecording"
	"github.com/sarchlab/procsim/monitoring"
	"github.com/sarchlab/procsim/report"
	"github.com/sarchlab/procsim/scheduler"
	"github.com/sarchlab/procsim/tracing"
	"github.com/sarchlab/procsim/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var runCmd = &cobra.Command{
	Use:   "run <input-file> [algorithm]",
	Short: "Simulate a workload file and print the statistics.",
	Long: "`run input.txt Priority` simulates the processes in input.txt. " +
		"The algorithm is one of FIFO, SJF, or Priority and can also be " +
		"set with " + config.EnvAlgorithm + ".",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(cmd.Flags(), args)
		if err != nil {
			return err
		}

		specs, err := workload.Load(args[0], cfg.WorkloadOptions())
		if err != nil {
			return err
		}

		return runSimulation(cmd.Flags(), cfg, specs, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.String("format", "text", "Output format, text or json")
	f.Bool("gantt", false, "Print the CPU timeline")
	f.Bool("log-events", false, "Print every event to stderr as it is handled")
	f.Bool("dump-events", false, "Print the initial event queue to stderr")
	f.String("trace-db", "", "Record the CPU trace into this SQLite database")
	f.Bool("monitor", false, "Serve the monitoring API while simulating")
	f.Int("monitor-port", 0, "Port of the monitoring server")
	f.Bool("open-browser", false, "Open the monitor in a browser")
	f.Bool("pause-at-start", false,
		"Start paused, continue from the monitor")
	f.Int("max-processes", workload.DefaultMaxProcesses,
		"Maximum number of processes read from the input")
}

func loadRunConfig(flags *pflag.FlagSet, args []string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	o := config.Overrides{}

	if len(args) > 1 {
		o.Algorithm = optional.NewString(args[1])
	}

	if flags.Changed("trace-db") {
		v, _ := flags.GetString("trace-db")
		o.TraceDB = optional.NewString(v)
	}

	if flags.Changed("monitor-port") {
		v, _ := flags.GetInt("monitor-port")
		o.MonitorPort = optional.NewInt(v)
	}

	if flags.Changed("max-processes") {
		v, _ := flags.GetInt("max-processes")
		o.MaxProcesses = optional.NewInt(v)
	}

	return cfg.Apply(o)
}

type runOutput struct {
	format string
	gantt  bool
}

func runSimulation(
	flags *pflag.FlagSet,
	cfg config.Config,
	specs []workload.Spec,
	out io.Writer,
) error {
	ro := runOutput{}
	ro.format, _ = flags.GetString("format")
	ro.gantt, _ = flags.GetBool("gantt")

	if ro.format != "text" && ro.format != "json" {
		return fmt.Errorf("unknown format %q, use text or json", ro.format)
	}

	b := scheduler.MakeBuilder().
		WithAlgorithm(cfg.Algorithm).
		WithCPU(cpu.New("CPU"))

	if logEvents, _ := flags.GetBool("log-events"); logEvents {
		b = b.WithEventLogger(log.New(os.Stderr, "", 0))
	}

	s, err := b.Build()
	if err != nil {
		return err
	}

	if _, err = s.Submit(specs); err != nil {
		return err
	}

	if dump, _ := flags.GetBool("dump-events"); dump {
		s.EventQueue().Dump(os.Stderr)
	}

	busyTracer := tracing.NewBusyTimeTracer(s, nil)
	tracing.CollectTrace(s.CPU(), busyTracer)

	var recorder datarecording.DataRecorder
	var dbTracer *tracing.DBTracer
	if cfg.TraceDB != "" {
		if _, err := os.Stat(cfg.TraceDB + ".sqlite3"); err == nil {
			return fmt.Errorf("trace database %s.sqlite3 already exists",
				cfg.TraceDB)
		}

		recorder = datarecording.New(cfg.TraceDB)
		dbTracer = tracing.NewDBTracer(s, recorder)
		tracing.CollectTrace(s.CPU(), dbTracer)
	}

	var mon *monitoring.Monitor
	var bar *monitoring.ProgressBar
	if monitorOn, _ := flags.GetBool("monitor"); monitorOn {
		mon, bar, err = startMonitor(flags, cfg, s, len(specs))
		if err != nil {
			return err
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = mon.Shutdown(ctx)
		}()
	}

	err = s.Run()
	if bar != nil {
		mon.CompleteProgressBar(bar)
	}

	if err != nil {
		return fmt.Errorf("simulation aborted: %w", err)
	}

	busyTracer.TerminateAllTasks(s.CurrentTime())
	if busyTracer.BusyTime() != s.CPU().TotalBusyTime() {
		log.Printf("warning: traced busy time %d differs from CPU busy time %d",
			busyTracer.BusyTime(), s.CPU().TotalBusyTime())
	}

	r, err := report.New(s)
	if err != nil {
		return err
	}

	if recorder != nil {
		dbTracer.Terminate()
		r.Record(recorder)

		if err := recorder.Close(); err != nil {
			return err
		}
	}

	return ro.write(r, out)
}

func startMonitor(
	flags *pflag.FlagSet,
	cfg config.Config,
	s *scheduler.Scheduler,
	numProcesses int,
) (*monitoring.Monitor, *monitoring.ProgressBar, error) {
	m := monitoring.NewMonitor()
	if cfg.MonitorPort > 0 {
		m.WithPortNumber(cfg.MonitorPort)
	}

	m.RegisterSimulation(s)
	m.RegisterComponent(s.CPU())

	bar := m.CreateProgressBar("Processes", uint64(numProcesses))
	s.AcceptHook(monitoring.NewProgressHook(bar,
		nil, scheduler.HookPosProcessCompleted))

	url, err := m.StartServer()
	if err != nil {
		return nil, nil, err
	}

	if open, _ := flags.GetBool("open-browser"); open {
		if err := m.OpenInBrowser(url); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	if pause, _ := flags.GetBool("pause-at-start"); pause {
		s.Pause()
		fmt.Fprintf(os.Stderr,
			"Simulation paused, continue with %s/api/continue\n", url)
	}

	return m, bar, nil
}

func (o runOutput) write(r report.Report, out io.Writer) error {
	if o.format == "json" {
		return r.WriteJSON(out)
	}

	fmt.Fprintf(out, "Scheduling algorithm: %s\n", r.Algorithm)
	r.WriteProcesses(out)
	r.WriteSummary(out)

	if o.gantt {
		r.WriteGantt(out)
	}

	return nil
}
