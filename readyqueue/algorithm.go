package readyqueue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/procsim/process"
)

// ErrInvalidPolicy is returned for an unknown scheduling algorithm.
var ErrInvalidPolicy = errors.New("invalid scheduling algorithm")

// Algorithm selects the ready queue policy of a simulation.
type Algorithm int

// The supported scheduling algorithms.
const (
	AlgorithmFIFO Algorithm = iota
	AlgorithmSJF
	AlgorithmPriority
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{AlgorithmFIFO, AlgorithmSJF, AlgorithmPriority}

// ParseAlgorithm converts a user supplied name to an Algorithm. Names are
// case-insensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "FIFO", "FCFS":
		return AlgorithmFIFO, nil
	case "SJF":
		return AlgorithmSJF, nil
	case "PRIORITY", "PRIO":
		return AlgorithmPriority, nil
	}

	return 0, fmt.Errorf("%w %q, use one of FIFO, SJF, Priority",
		ErrInvalidPolicy, name)
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmFIFO:
		return "FIFO"
	case AlgorithmSJF:
		return "SJF"
	case AlgorithmPriority:
		return "Priority"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Preemptive tells if an arriving process may take the CPU from the running
// one.
func (a Algorithm) Preemptive() bool {
	return a == AlgorithmPriority
}

// ShouldPreempt tells if arriving should replace running on the CPU.
func (a Algorithm) ShouldPreempt(arriving, running process.Process) bool {
	return a.Preemptive() && arriving.Priority < running.Priority
}

// New creates an empty ready queue of the algorithm.
func New(a Algorithm) (ReadyQueue, error) {
	switch a {
	case AlgorithmFIFO:
		return NewFIFO(), nil
	case AlgorithmSJF:
		return NewSJF(), nil
	case AlgorithmPriority:
		return NewPriority(), nil
	}

	return nil, fmt.Errorf("%w %s", ErrInvalidPolicy, a)
}
