// Package readyqueue provides the policies that choose which waiting process
// runs next.
package readyqueue

import (
	"container/heap"
	"errors"
	"sort"

	"github.com/sarchlab/procsim/process"
)

// ErrQueueEmpty is returned when a process is requested from an empty queue.
var ErrQueueEmpty = errors.New("ready queue: empty")

// A ReadyQueue holds the processes that are waiting for the CPU.
type ReadyQueue interface {
	// AddProcess makes p wait for the CPU.
	AddProcess(p process.Process)

	// GetNextProcess removes and returns the process that should run next.
	GetNextProcess() (process.Process, error)

	IsEmpty() bool
	Len() int

	// Snapshot returns the waiting processes in the order they would be
	// selected. The queue is not modified.
	Snapshot() []process.Process
}

// less reports whether a should be selected before b. Ties that less cannot
// break fall back to the insertion order.
type less func(a, b process.Process) bool

type item struct {
	p   process.Process
	seq uint64
}

type itemHeap struct {
	items []item
	less  less
}

func (h *itemHeap) Len() int { return len(h.items) }

func (h *itemHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less != nil {
		if h.less(a.p, b.p) {
			return true
		}

		if h.less(b.p, a.p) {
			return false
		}
	}

	return a.seq < b.seq
}

func (h *itemHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *itemHeap) Push(x any) { h.items = append(h.items, x.(item)) }

func (h *itemHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]

	return it
}

// orderedQueue is a ReadyQueue that selects by a comparator and then by
// insertion order, which makes every policy a total order.
type orderedQueue struct {
	h       itemHeap
	nextSeq uint64
}

func newOrderedQueue(l less) *orderedQueue {
	return &orderedQueue{h: itemHeap{less: l}}
}

func (q *orderedQueue) AddProcess(p process.Process) {
	heap.Push(&q.h, item{p: p, seq: q.nextSeq})
	q.nextSeq++
}

func (q *orderedQueue) GetNextProcess() (process.Process, error) {
	if q.h.Len() == 0 {
		return process.Process{}, ErrQueueEmpty
	}

	it := heap.Pop(&q.h).(item)

	return it.p, nil
}

func (q *orderedQueue) IsEmpty() bool {
	return q.h.Len() == 0
}

func (q *orderedQueue) Len() int {
	return q.h.Len()
}

func (q *orderedQueue) Snapshot() []process.Process {
	sorted := itemHeap{
		items: make([]item, len(q.h.items)),
		less:  q.h.less,
	}
	copy(sorted.items, q.h.items)
	sort.Sort(&sorted)

	ps := make([]process.Process, 0, len(sorted.items))
	for _, it := range sorted.items {
		ps = append(ps, it.p)
	}

	return ps
}

// FIFO selects processes in the order they were added.
type FIFO struct {
	*orderedQueue
}

// NewFIFO creates an empty FIFO queue.
func NewFIFO() *FIFO {
	return &FIFO{orderedQueue: newOrderedQueue(nil)}
}

// SJF selects the process with the least remaining work, then the earliest
// arrival.
type SJF struct {
	*orderedQueue
}

// NewSJF creates an empty shortest-job-first queue.
func NewSJF() *SJF {
	return &SJF{orderedQueue: newOrderedQueue(shorterJob)}
}

func shorterJob(a, b process.Process) bool {
	if a.RemainingBurstTime() != b.RemainingBurstTime() {
		return a.RemainingBurstTime() < b.RemainingBurstTime()
	}

	return a.ArrivalTime < b.ArrivalTime
}

// Priority selects the process with the lowest priority value, then the
// earliest arrival.
type Priority struct {
	*orderedQueue
}

// NewPriority creates an empty priority queue.
func NewPriority() *Priority {
	return &Priority{orderedQueue: newOrderedQueue(morePrecedent)}
}

func morePrecedent(a, b process.Process) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}

	return a.ArrivalTime < b.ArrivalTime
}

var (
	_ ReadyQueue = (*FIFO)(nil)
	_ ReadyQueue = (*SJF)(nil)
	_ ReadyQueue = (*Priority)(nil)
)
