package tracing

import "github.com/sarchlab/procsim/sim"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time sim.VTime `json:"time"`
	What string    `json:"what"`
}

// A Task is a period of time during which a domain works on something. For
// a CPU, a task is one dispatch of a process.
type Task struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id"`
	Kind      string     `json:"kind"`
	What      string     `json:"what"`
	Location  string     `json:"location"`
	StartTime sim.VTime  `json:"start_time"`
	EndTime   sim.VTime  `json:"end_time"`
	Steps     []TaskStep `json:"steps"`
	Detail    any        `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}
