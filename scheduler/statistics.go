package scheduler

import (
	"errors"
	"fmt"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
	"gonum.org/v1/gonum/stat"
)

// ErrNoCompletedProcess is returned when statistics are requested before any
// process has finished.
var ErrNoCompletedProcess = errors.New("scheduler: no completed process")

// Statistics summarizes a finished simulation.
type Statistics struct {
	NumProcesses  int       `json:"num_processes"`
	ElapsedTime   sim.VTime `json:"elapsed_time"`
	TotalBusyTime sim.VTime `json:"total_busy_time"`

	// Throughput is the number of processes finished per unit of time.
	Throughput float64 `json:"throughput"`

	// CPUUtilization is the fraction of the elapsed time the CPU was busy.
	CPUUtilization float64 `json:"cpu_utilization"`

	AverageWaitTime       float64 `json:"average_wait_time"`
	AverageTurnaroundTime float64 `json:"average_turnaround_time"`
	AverageResponseTime   float64 `json:"average_response_time"`
}

// Statistics computes the statistics of the completed processes. It fails if
// the last run failed or if nothing has completed.
func (s *Scheduler) Statistics() (Statistics, error) {
	s.stateLock.RLock()
	runErr := s.runErr
	s.stateLock.RUnlock()

	if runErr != nil {
		return Statistics{}, fmt.Errorf("simulation failed: %w", runErr)
	}

	return Summarize(s.CompletedProcesses(), s.cpu.TotalBusyTime())
}

// Summarize computes statistics of finished processes that kept the CPU busy
// for busyTime.
func Summarize(
	completed []process.Process,
	busyTime sim.VTime,
) (Statistics, error) {
	if len(completed) == 0 {
		return Statistics{}, ErrNoCompletedProcess
	}

	waits := make([]float64, len(completed))
	turnarounds := make([]float64, len(completed))
	responses := make([]float64, len(completed))
	elapsed := sim.VTime(0)

	for i, p := range completed {
		waits[i] = float64(p.WaitTime)
		turnarounds[i] = float64(p.TurnaroundTime())
		responses[i] = float64(p.ResponseTime)

		if p.CompletionTime > elapsed {
			elapsed = p.CompletionTime
		}
	}

	st := Statistics{
		NumProcesses:          len(completed),
		ElapsedTime:           elapsed,
		TotalBusyTime:         busyTime,
		AverageWaitTime:       stat.Mean(waits, nil),
		AverageTurnaroundTime: stat.Mean(turnarounds, nil),
		AverageResponseTime:   stat.Mean(responses, nil),
	}

	if elapsed > 0 {
		st.Throughput = float64(st.NumProcesses) / float64(elapsed)
		st.CPUUtilization = float64(busyTime) / float64(elapsed)
	}

	return st, nil
}
