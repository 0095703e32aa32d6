package scheduler

import (
	"fmt"
	"log"

	"github.com/sarchlab/procsim/cpu"
	"github.com/sarchlab/procsim/event"
	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/readyqueue"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/tracing"
)

// Builder can be used to build a Scheduler.
type Builder struct {
	name        string
	algorithm   readyqueue.Algorithm
	cpu         *cpu.CPU
	eventLogger *log.Logger
	idGenerator process.IDGenerator
}

// MakeBuilder creates a builder with the default parameters. By default, the
// scheduler uses FIFO and owns a CPU named "CPU".
func MakeBuilder() Builder {
	return Builder{
		name:      "Scheduler",
		algorithm: readyqueue.AlgorithmFIFO,
	}
}

// WithName sets the name of the scheduler.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithAlgorithm sets the ready queue policy.
func (b Builder) WithAlgorithm(a readyqueue.Algorithm) Builder {
	b.algorithm = a
	return b
}

// WithCPU sets the CPU that processes are dispatched onto.
func (b Builder) WithCPU(c *cpu.CPU) Builder {
	b.cpu = c
	return b
}

// WithEventLogger prints every event into l before it is handled.
func (b Builder) WithEventLogger(l *log.Logger) Builder {
	b.eventLogger = l
	return b
}

// WithIDGenerator sets how submitted processes get their IDs.
func (b Builder) WithIDGenerator(g process.IDGenerator) Builder {
	b.idGenerator = g
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.name == "" {
		return fmt.Errorf("scheduler name must not be empty")
	}

	return nil
}

// Build creates the scheduler.
func (b Builder) Build() (*Scheduler, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	rq, err := readyqueue.New(b.algorithm)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		HookableBase: sim.NewHookableBase(),
		name:         b.name,
		algorithm:    b.algorithm,
		cpu:          b.cpu,
		readyQueue:   rq,
		events:       event.NewQueue(),
		idGenerator:  b.idGenerator,
	}

	if s.cpu == nil {
		s.cpu = cpu.New("CPU")
	}

	if s.idGenerator == nil {
		s.idGenerator = process.NewIDGenerator()
	}

	if b.eventLogger != nil {
		s.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}

	s.timeline = tracing.NewTimelineTracer(s, func(t tracing.Task) bool {
		return t.Kind == cpu.TaskKindDispatch
	})
	tracing.CollectTrace(s.cpu, s.timeline)

	return s, nil
}
