// Package event provides the events that drive a scheduling simulation and
// the queue that orders them.
package event

import (
	"fmt"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
)

// Kind tells what happens when an event is triggered.
type Kind int

// Kinds are declared in the order they are handled when they share a
// timestamp. An arrival is always considered before a completion at the same
// time.
const (
	Arrival Kind = iota
	Completion
)

func (k Kind) String() string {
	switch k {
	case Arrival:
		return "Arrival"
	case Completion:
		return "Completion"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// An Event is an arrival or a completion of a process at a point in time.
type Event struct {
	Kind      Kind
	Timestamp sim.VTime

	// Process is a snapshot of the process taken when the event is created.
	Process process.Process
}

// NewArrival creates the event of a process entering the system.
func NewArrival(p process.Process) Event {
	return Event{
		Kind:      Arrival,
		Timestamp: p.ArrivalTime,
		Process:   p,
	}
}

// NewCompletion creates the event of a process finishing its burst at time t.
func NewCompletion(t sim.VTime, p process.Process) Event {
	return Event{
		Kind:      Completion,
		Timestamp: t,
		Process:   p,
	}
}

// Time returns the time that the event happens.
func (e Event) Time() sim.VTime {
	return e.Timestamp
}

// Key returns the key that can be used to cancel the event.
func (e Event) Key() Key {
	return Key{Time: e.Timestamp, ProcessID: e.Process.ID}
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Process)
}

// Before tells if e must be handled before other. Events are ordered by time,
// then arrivals before completions, then by process ID.
func (e Event) Before(other Event) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp < other.Timestamp
	}

	if e.Kind != other.Kind {
		return e.Kind < other.Kind
	}

	return e.Process.ID < other.Process.ID
}

// Key identifies the events of one process at one time.
type Key struct {
	Time      sim.VTime
	ProcessID process.ID
}

var _ sim.Event = Event{}
