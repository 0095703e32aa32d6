// Package process defines the schedulable unit of work and its statistics.
package process

import (
	"fmt"

	"github.com/sarchlab/procsim/sim"
)

// ID uniquely identifies a process within a simulation.
type ID uint64

// NotSet marks a time field that has not been recorded yet.
const NotSet sim.VTime = -1

// A Process is one job that needs the CPU. Processes are passed by value; the
// copy held by the component that currently owns the process is the
// authoritative one.
type Process struct {
	ID ID

	ArrivalTime sim.VTime
	BurstTime   sim.VTime

	// Priority of the process. Lower values are more urgent.
	Priority int

	// CompletedBurstTime is the CPU time the process has consumed so far.
	CompletedBurstTime sim.VTime

	// StartTime is the time of the most recent dispatch onto the CPU.
	StartTime sim.VTime

	// CompletionTime is the time the current dispatch would finish the
	// process. It is final once the process is complete.
	CompletionTime sim.VTime

	WaitTime     sim.VTime
	ResponseTime sim.VTime
	HasStarted   bool
}

// New creates a process that has not arrived yet.
func New(id ID, arrival, burst sim.VTime, priority int) Process {
	return Process{
		ID:             id,
		ArrivalTime:    arrival,
		BurstTime:      burst,
		Priority:       priority,
		StartTime:      NotSet,
		CompletionTime: NotSet,
	}
}

// RemainingBurstTime returns the CPU time still needed to finish.
func (p Process) RemainingBurstTime() sim.VTime {
	return p.BurstTime - p.CompletedBurstTime
}

// IsComplete tells if the process has received all its burst.
func (p Process) IsComplete() bool {
	return p.CompletedBurstTime == p.BurstTime
}

// TurnaroundTime is the time between arrival and completion.
func (p Process) TurnaroundTime() sim.VTime {
	return p.CompletionTime - p.ArrivalTime
}

// String returns a short label such as "P3".
func (p Process) String() string {
	return fmt.Sprintf("P%d", p.ID)
}
