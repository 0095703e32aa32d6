// Package tracing records what the simulated components are working on and
// for how long.
package tracing

import (
	"fmt"

	"github.com/sarchlab/procsim/sim"
)

// NamedHookable is a domain that tasks can be traced on.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// Hook positions raised on a domain as its tasks progress.
var (
	HookPosTaskStart = &sim.HookPos{Name: "TaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "TaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "TaskEnd"}
)

// StartTask reports that domain begins working on task. The task must carry
// an ID, a Kind, and a What. Its Location is set to the name of the domain.
// Nothing is checked when no tracer watches the domain.
func StartTask(domain NamedHookable, task Task) {
	if domain.NumHooks() == 0 {
		return
	}

	if err := startable(domain, task); err != nil {
		panic(err)
	}

	task.Location = domain.Name()
	notify(domain, HookPosTaskStart, task)
}

func startable(domain NamedHookable, task Task) error {
	switch {
	case domain.Name() == "":
		return fmt.Errorf("task %q: domain has no name", task.ID)
	case task.ID == "":
		return fmt.Errorf("task on %s: empty id", domain.Name())
	case task.Kind == "":
		return fmt.Errorf("task %q: empty kind", task.ID)
	case task.What == "":
		return fmt.Errorf("task %q: empty what", task.ID)
	}

	return nil
}

// StepTask reports a milestone of a started task.
func StepTask(domain NamedHookable, id, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	notify(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask reports that domain finished the task with the given ID.
func EndTask(domain NamedHookable, id string) {
	if domain.NumHooks() == 0 {
		return
	}

	notify(domain, HookPosTaskEnd, Task{ID: id})
}

func notify(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    pos,
		Item:   task,
	})
}
