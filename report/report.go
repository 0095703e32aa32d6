// Package report presents the outcome of a simulation.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/scheduler"
	"github.com/sarchlab/procsim/sim"
	"gonum.org/v1/gonum/stat"
)

// A Report holds everything that is printed about one simulation.
type Report struct {
	Algorithm  string               `json:"algorithm"`
	Statistics scheduler.Statistics `json:"statistics"`
	WaitTime   Distribution         `json:"wait_time"`
	Processes  []process.Process    `json:"processes"`
	Timeline   []scheduler.Slice    `json:"timeline,omitempty"`
}

// Distribution describes the spread of a per-process metric.
type Distribution struct {
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// New collects the report of a finished simulation. Processes are listed by
// ID.
func New(s *scheduler.Scheduler) (Report, error) {
	st, err := s.Statistics()
	if err != nil {
		return Report{}, err
	}

	ps := s.CompletedProcesses()
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })

	waits := make([]float64, len(ps))
	for i, p := range ps {
		waits[i] = float64(p.WaitTime)
	}

	return Report{
		Algorithm:  s.Algorithm().String(),
		Statistics: st,
		WaitTime:   distributionOf(waits),
		Processes:  ps,
		Timeline:   s.Timeline(),
	}, nil
}

func distributionOf(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d := Distribution{
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}

	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}

	return d
}

// WriteSummary writes the aggregate statistics as a two-column table.
func (r Report) WriteSummary(w io.Writer) {
	st := r.Statistics

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Statistic", r.Algorithm})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Number of processes", fmt.Sprint(st.NumProcesses)},
		{"Total elapsed time", fmt.Sprint(st.ElapsedTime)},
		{"Throughput", fmt.Sprintf("%.4f", st.Throughput)},
		{"CPU utilization", fmt.Sprintf("%.2f%%", st.CPUUtilization*100)},
		{"Average waiting time", fmt.Sprintf("%.2f", st.AverageWaitTime)},
		{"Average turnaround time", fmt.Sprintf("%.2f", st.AverageTurnaroundTime)},
		{"Average response time", fmt.Sprintf("%.2f", st.AverageResponseTime)},
		{"Median waiting time", fmt.Sprintf("%.2f", r.WaitTime.Median)},
		{"P95 waiting time", fmt.Sprintf("%.2f", r.WaitTime.P95)},
	})
	table.Render()
}

// WriteProcesses writes one row per process with the averages in the footer.
func (r Report) WriteProcesses(w io.Writer) {
	st := r.Statistics

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"ID", "Arrival", "Burst", "Priority",
		"Wait", "Turnaround", "Response", "Completion",
	})

	rows := make([][]string, 0, len(r.Processes))
	for _, p := range r.Processes {
		rows = append(rows, []string{
			fmt.Sprint(p.ID),
			fmt.Sprint(p.ArrivalTime),
			fmt.Sprint(p.BurstTime),
			fmt.Sprint(p.Priority),
			fmt.Sprint(p.WaitTime),
			fmt.Sprint(p.TurnaroundTime()),
			fmt.Sprint(p.ResponseTime),
			fmt.Sprint(p.CompletionTime),
		})
	}
	table.AppendBulk(rows)

	table.SetFooter([]string{"", "", "", "Average",
		fmt.Sprintf("%.2f", st.AverageWaitTime),
		fmt.Sprintf("%.2f", st.AverageTurnaroundTime),
		fmt.Sprintf("%.2f", st.AverageResponseTime),
		"",
	})
	table.Render()
}

// WriteGantt writes the CPU timeline. Gaps where the CPU is idle are shown as
// "-".
func (r Report) WriteGantt(w io.Writer) {
	fmt.Fprintln(w, "Gantt schedule")

	if len(r.Timeline) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}

	g := ganttChart{}
	g.names.WriteString("|")
	g.times.WriteString(fmt.Sprint(r.Timeline[0].Start))

	prevEnd := r.Timeline[0].Start
	for _, s := range r.Timeline {
		if s.Start > prevEnd {
			g.addCell("-", s.Start)
		}

		g.addCell(s.Process, s.End)
		prevEnd = s.End
	}

	fmt.Fprintln(w, g.names.String())
	fmt.Fprintln(w, g.times.String())
}

const ganttCellWidth = 8

// ganttChart builds two aligned rows. Each cell of the name row is closed by
// a "|", and the time row prints the end time of the cell under that "|".
type ganttChart struct {
	names, times strings.Builder
	numCells     int
}

func (g *ganttChart) addCell(label string, end sim.VTime) {
	pad := max(ganttCellWidth-len(label), 0)

	g.names.WriteString(strings.Repeat(" ", pad/2))
	g.names.WriteString(label)
	g.names.WriteString(strings.Repeat(" ", pad-pad/2))
	g.names.WriteString("|")
	g.numCells++

	column := g.numCells * (ganttCellWidth + 1)
	fill := max(column-g.times.Len(), 1)

	g.times.WriteString(strings.Repeat(" ", fill))
	g.times.WriteString(fmt.Sprint(end))
}

// WriteJSON writes the whole report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}
