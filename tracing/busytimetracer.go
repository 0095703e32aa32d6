package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/procsim/sim"
)

type interval struct {
	start, end sim.VTime
}

// BusyTimeTracer measures how long a domain has been working on at least one
// task. Time covered by several overlapping tasks counts once.
type BusyTimeTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	filter     TaskFilter
	starts     map[string]sim.VTime
	finished   []interval
}

// NewBusyTimeTracer creates a new BusyTimeTracer. A nil filter accepts all
// tasks.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		starts:     make(map[string]sim.VTime),
	}
}

// BusyTime returns the length of the union of all finished tasks.
func (t *BusyTimeTracer) BusyTime() sim.VTime {
	t.lock.Lock()
	defer t.lock.Unlock()

	return unionLength(t.finished)
}

// TerminateAllTasks ends every in-flight task at now.
func (t *BusyTimeTracer) TerminateAllTasks(now sim.VTime) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for id, start := range t.starts {
		t.finished = append(t.finished, interval{start: start, end: now})
		delete(t.starts, id)
	}
}

// StartTask records when the task starts.
func (t *BusyTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.starts[task.ID] = now
	t.lock.Unlock()
}

// StepTask does nothing.
func (t *BusyTimeTracer) StepTask(_ Task) {}

// EndTask closes the interval of the task. Tasks that were filtered out at
// their start are ignored.
func (t *BusyTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.starts[task.ID]
	if !ok {
		return
	}

	delete(t.starts, task.ID)
	t.finished = append(t.finished, interval{start: start, end: now})
}

// unionLength merges the intervals in place and returns the covered length.
func unionLength(intervals []interval) sim.VTime {
	if len(intervals) == 0 {
		return 0
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	total := sim.VTime(0)
	cur := intervals[0]

	for _, in := range intervals[1:] {
		if in.start > cur.end {
			total += cur.end - cur.start
			cur = in

			continue
		}

		if in.end > cur.end {
			cur.end = in.end
		}
	}

	return total + cur.end - cur.start
}
