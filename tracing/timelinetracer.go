package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/procsim/sim"
)

// TimelineTracer keeps every finished task in memory so that the order and
// length of the tasks can be reviewed after the simulation.
type TimelineTracer struct {
	lock          sync.Mutex
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	inflightTasks map[string]Task
	finishedTasks []Task
}

// NewTimelineTracer creates a new TimelineTracer. A nil filter accepts all
// tasks.
func NewTimelineTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TimelineTracer {
	return &TimelineTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// StartTask records the task start time
func (t *TimelineTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask records a milestone of an in-flight task.
func (t *TimelineTracer) StepTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		step.Time = now
		original.Steps = append(original.Steps, step)
	}

	t.inflightTasks[task.ID] = original
}

// EndTask moves the task to the timeline.
func (t *TimelineTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	original.EndTime = now
	delete(t.inflightTasks, task.ID)
	t.finishedTasks = append(t.finishedTasks, original)
}

// Tasks returns the finished tasks sorted by start time.
func (t *TimelineTracer) Tasks() []Task {
	t.lock.Lock()
	tasks := make([]Task, len(t.finishedTasks))
	copy(tasks, t.finishedTasks)
	t.lock.Unlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].StartTime < tasks[j].StartTime
	})

	return tasks
}
