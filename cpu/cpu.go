// Package cpu models the single processor that the scheduler dispatches
// processes onto.
package cpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/tracing"
)

var (
	// ErrCPUEmpty is returned when the resident process is requested from an
	// idle CPU.
	ErrCPUEmpty = errors.New("cpu: no running process")

	// ErrCPUBusy is returned when a process is loaded onto a busy CPU.
	ErrCPUBusy = errors.New("cpu: already running a process")
)

// TaskKindDispatch is the tracing task kind of one stay of a process on the
// CPU.
const TaskKindDispatch = "dispatch"

// A CPU runs at most one process at a time. The resident process is owned by
// the CPU: it is copied in by LoadProcess and copied out by UnloadProcess.
type CPU struct {
	*sim.HookableBase

	lock sync.RWMutex
	name string

	resident      *process.Process
	totalBusyTime sim.VTime
	lastLoadTime  sim.VTime

	numDispatches uint64
	taskID        string
}

// New creates an idle CPU.
func New(name string) *CPU {
	return &CPU{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		lastLoadTime: process.NotSet,
	}
}

// Name returns the name of the CPU.
func (c *CPU) Name() string {
	return c.name
}

// IsIdle tells if no process is resident.
func (c *CPU) IsIdle() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.resident == nil
}

// RunningProcess returns a copy of the resident process.
func (c *CPU) RunningProcess() (process.Process, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.resident == nil {
		return process.Process{}, ErrCPUEmpty
	}

	return *c.resident, nil
}

// LoadProcess makes p the resident process at time now and returns the time
// at which the process would finish if it is not interrupted.
func (c *CPU) LoadProcess(p process.Process, now sim.VTime) (sim.VTime, error) {
	c.lock.Lock()

	if c.resident != nil {
		c.lock.Unlock()
		return 0, fmt.Errorf("loading %s: %w", p, ErrCPUBusy)
	}

	p.StartTime = now
	if !p.HasStarted {
		p.HasStarted = true
		p.ResponseTime = now - p.ArrivalTime
	}

	p.CompletionTime = now + p.RemainingBurstTime()

	c.resident = &p
	c.lastLoadTime = now
	c.numDispatches++
	c.taskID = fmt.Sprintf("%s.dispatch.%d", c.name, c.numDispatches)
	taskID := c.taskID

	c.lock.Unlock()

	tracing.StartTask(c, tracing.Task{
		ID:     taskID,
		Kind:   TaskKindDispatch,
		What:   p.String(),
		Detail: p,
	})

	return p.CompletionTime, nil
}

// UnloadProcess removes the resident process at time now. The work done since
// the process was loaded is credited to the process and to the CPU.
func (c *CPU) UnloadProcess(now sim.VTime) (process.Process, error) {
	c.lock.Lock()

	if c.resident == nil {
		c.lock.Unlock()
		return process.Process{}, ErrCPUEmpty
	}

	p := *c.resident
	ran := now - p.StartTime

	p.CompletedBurstTime += ran
	p.WaitTime = now - p.ArrivalTime - p.CompletedBurstTime
	c.totalBusyTime += ran

	c.resident = nil
	taskID := c.taskID
	c.taskID = ""

	c.lock.Unlock()

	tracing.EndTask(c, taskID)

	return p, nil
}

// TotalBusyTime returns the accumulated time that processes have run on the
// CPU.
func (c *CPU) TotalBusyTime() sim.VTime {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.totalBusyTime
}

// LastLoadTime returns the time that the latest process was loaded, or
// process.NotSet if no process was ever loaded.
func (c *CPU) LastLoadTime() sim.VTime {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.lastLoadTime
}

// Status is a snapshot of the CPU that is safe to share.
type Status struct {
	Name          string           `json:"name"`
	Idle          bool             `json:"idle"`
	Running       *process.Process `json:"running,omitempty"`
	TotalBusyTime sim.VTime        `json:"total_busy_time"`
	LastLoadTime  sim.VTime        `json:"last_load_time"`
	NumDispatches uint64           `json:"num_dispatches"`
}

// Status returns a snapshot of the CPU.
func (c *CPU) Status() Status {
	c.lock.RLock()
	defer c.lock.RUnlock()

	s := Status{
		Name:          c.name,
		Idle:          c.resident == nil,
		TotalBusyTime: c.totalBusyTime,
		LastLoadTime:  c.lastLoadTime,
		NumDispatches: c.numDispatches,
	}

	if c.resident != nil {
		p := *c.resident
		s.Running = &p
	}

	return s
}
