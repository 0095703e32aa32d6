// Package scheduler runs the discrete-event loop that moves processes between
// the ready queue and the CPU.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/procsim/cpu"
	"github.com/sarchlab/procsim/event"
	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/readyqueue"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/tracing"
	"github.com/sarchlab/procsim/workload"
)

// ErrBrokenInvariant is returned by Run when the simulation state is no
// longer consistent. A run that fails with it produces no statistics.
var ErrBrokenInvariant = errors.New("scheduler: broken invariant")

// Hook positions raised by the scheduler in addition to
// sim.HookPosBeforeEvent and sim.HookPosAfterEvent.
var (
	// HookPosPreempt is raised after a process is taken off the CPU by an
	// arrival. Item is the preempted process and Detail is the arriving one.
	HookPosPreempt = &sim.HookPos{Name: "Preempt"}

	// HookPosStaleEvent is raised when a completion event no longer matches
	// the process on the CPU. Item is the ignored event.
	HookPosStaleEvent = &sim.HookPos{Name: "StaleEvent"}

	// HookPosProcessCompleted is raised when a process finishes. Item is the
	// finished process.
	HookPosProcessCompleted = &sim.HookPos{Name: "ProcessCompleted"}
)

// A Scheduler owns the event queue, the CPU, and the ready queue of one
// simulation.
type Scheduler struct {
	*sim.HookableBase

	name        string
	algorithm   readyqueue.Algorithm
	cpu         *cpu.CPU
	events      *event.Queue
	idGenerator process.IDGenerator
	timeline    *tracing.TimelineTracer

	timeLock sync.RWMutex
	now      sim.VTime

	stateLock    sync.RWMutex
	readyQueue   readyqueue.ReadyQueue
	completed    []process.Process
	numSubmitted int
	runErr       error

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// Name returns the name of the scheduler.
func (s *Scheduler) Name() string {
	return s.name
}

// Algorithm returns the ready queue policy.
func (s *Scheduler) Algorithm() readyqueue.Algorithm {
	return s.algorithm
}

// CPU returns the CPU that the scheduler dispatches onto.
func (s *Scheduler) CPU() *cpu.CPU {
	return s.cpu
}

// EventQueue returns the pending events.
func (s *Scheduler) EventQueue() *event.Queue {
	return s.events
}

// CurrentTime returns the time of the event being or last handled.
func (s *Scheduler) CurrentTime() sim.VTime {
	s.timeLock.RLock()
	defer s.timeLock.RUnlock()

	return s.now
}

func (s *Scheduler) writeNow(t sim.VTime) {
	s.timeLock.Lock()
	s.now = t
	s.timeLock.Unlock()
}

// Submit creates a process for each spec and schedules its arrival. The
// created processes are returned in the order of specs.
func (s *Scheduler) Submit(specs []workload.Spec) ([]process.Process, error) {
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
	}

	ps := workload.ToProcesses(specs, s.idGenerator)
	for _, p := range ps {
		if err := s.AddProcess(p); err != nil {
			return nil, err
		}
	}

	return ps, nil
}

// AddProcess schedules the arrival of p.
func (s *Scheduler) AddProcess(p process.Process) error {
	now := s.CurrentTime()
	if p.ArrivalTime < now {
		return fmt.Errorf("%s arrives at %d, before the current time %d",
			p, p.ArrivalTime, now)
	}

	s.events.Push(event.NewArrival(p))

	s.stateLock.Lock()
	s.numSubmitted++
	s.stateLock.Unlock()

	return nil
}

// Run handles events until the event queue is empty.
func (s *Scheduler) Run() error {
	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	for !s.events.IsEmpty() {
		s.pauseLock.Lock()
		err := s.handleNextEvent()
		s.pauseLock.Unlock()

		if err != nil {
			s.stateLock.Lock()
			s.runErr = err
			s.stateLock.Unlock()

			return err
		}
	}

	return nil
}

func (s *Scheduler) handleNextEvent() error {
	evt, err := s.events.Pop()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	now := s.CurrentTime()
	if evt.Time() < now {
		return fmt.Errorf("%w: event %s at %d is earlier than now (%d)",
			ErrBrokenInvariant, evt, evt.Time(), now)
	}

	s.writeNow(evt.Time())

	ctx := sim.HookCtx{
		Domain: s,
		Pos:    sim.HookPosBeforeEvent,
		Item:   evt,
	}
	s.InvokeHook(ctx)

	switch evt.Kind {
	case event.Arrival:
		err = s.handleArrival(evt)
	case event.Completion:
		err = s.handleCompletion(evt)
	default:
		err = fmt.Errorf("%w: unknown event kind %s", ErrBrokenInvariant, evt.Kind)
	}

	if err != nil {
		return err
	}

	ctx.Pos = sim.HookPosAfterEvent
	s.InvokeHook(ctx)

	return nil
}

func (s *Scheduler) handleArrival(evt event.Event) error {
	p := evt.Process

	if s.cpu.IsIdle() {
		return s.dispatch(p)
	}

	running, err := s.cpu.RunningProcess()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	// A process due to finish now completes instead of being preempted.
	if running.CompletionTime > s.CurrentTime() &&
		s.algorithm.ShouldPreempt(p, running) {
		return s.preempt(p)
	}

	s.addToReadyQueue(p)

	return nil
}

func (s *Scheduler) preempt(arriving process.Process) error {
	preempted, err := s.cpu.UnloadProcess(s.CurrentTime())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	s.addToReadyQueue(preempted)

	s.events.Remove(event.Key{
		Time:      preempted.CompletionTime,
		ProcessID: preempted.ID,
	})

	if err := s.dispatch(arriving); err != nil {
		return err
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosPreempt,
		Item:   preempted,
		Detail: arriving,
	})

	return nil
}

func (s *Scheduler) handleCompletion(evt event.Event) error {
	running, err := s.cpu.RunningProcess()
	if err != nil {
		return fmt.Errorf("%w: completion of %s: %w",
			ErrBrokenInvariant, evt.Process, err)
	}

	if running.ID != evt.Process.ID || running.CompletionTime != evt.Time() {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosStaleEvent,
			Item:   evt,
		})

		return nil
	}

	finished, err := s.cpu.UnloadProcess(s.CurrentTime())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	s.stateLock.Lock()
	s.completed = append(s.completed, finished)
	s.stateLock.Unlock()

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosProcessCompleted,
		Item:   finished,
	})

	return s.dispatchNextReady()
}

func (s *Scheduler) dispatchNextReady() error {
	s.stateLock.Lock()
	if s.readyQueue.IsEmpty() {
		s.stateLock.Unlock()
		return nil
	}

	next, err := s.readyQueue.GetNextProcess()
	s.stateLock.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	return s.dispatch(next)
}

func (s *Scheduler) dispatch(p process.Process) error {
	completion, err := s.cpu.LoadProcess(p, s.CurrentTime())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	loaded, err := s.cpu.RunningProcess()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBrokenInvariant, err)
	}

	s.events.Push(event.NewCompletion(completion, loaded))

	return nil
}

func (s *Scheduler) addToReadyQueue(p process.Process) {
	s.stateLock.Lock()
	s.readyQueue.AddProcess(p)
	s.stateLock.Unlock()
}

// ReadyProcesses returns the waiting processes in selection order.
func (s *Scheduler) ReadyProcesses() []process.Process {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	return s.readyQueue.Snapshot()
}

// CompletedProcesses returns the finished processes in completion order.
func (s *Scheduler) CompletedProcesses() []process.Process {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	ps := make([]process.Process, len(s.completed))
	copy(ps, s.completed)

	return ps
}

// Progress returns the number of finished and submitted processes.
func (s *Scheduler) Progress() (completed, submitted int) {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	return len(s.completed), s.numSubmitted
}

// A Slice is one uninterrupted stay of a process on the CPU.
type Slice struct {
	Process string    `json:"process"`
	Start   sim.VTime `json:"start"`
	End     sim.VTime `json:"end"`
}

// Timeline returns every finished dispatch in the order they started.
func (s *Scheduler) Timeline() []Slice {
	tasks := s.timeline.Tasks()
	slices := make([]Slice, 0, len(tasks))

	for _, t := range tasks {
		slices = append(slices, Slice{
			Process: t.What,
			Start:   t.StartTime,
			End:     t.EndTime,
		})
	}

	return slices
}

// Pause prevents the scheduler from handling more events until Continue is
// called.
func (s *Scheduler) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue resumes event handling after a Pause.
func (s *Scheduler) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// IsPaused tells if Pause has been called without a matching Continue.
func (s *Scheduler) IsPaused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}
