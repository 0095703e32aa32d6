package event

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrEmptyQueue is returned when reading from a queue that holds no event.
var ErrEmptyQueue = errors.New("event queue is empty")

// Queue is a queue of events ordered by Event.Before. Events can be cancelled
// by key before they are popped.
type Queue struct {
	sync.Mutex
	events  eventHeap
	byKey   map[Key][]*entry
	nextSeq uint64
}

// NewQueue creates and returns a newly created Queue.
func NewQueue() *Queue {
	q := new(Queue)
	q.events = make([]*entry, 0)
	q.byKey = make(map[Key][]*entry)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the queue.
func (q *Queue) Push(evt Event) {
	q.Lock()
	defer q.Unlock()

	e := &entry{evt: evt, seq: q.nextSeq}
	q.nextSeq++

	heap.Push(&q.events, e)

	key := evt.Key()
	q.byKey[key] = append(q.byKey[key], e)
}

// Top returns the next event without removing it from the queue.
func (q *Queue) Top() (Event, error) {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return Event{}, ErrEmptyQueue
	}

	return q.events[0].evt, nil
}

// Pop removes the next event from the queue and returns it.
func (q *Queue) Pop() (Event, error) {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return Event{}, ErrEmptyQueue
	}

	e := heap.Pop(&q.events).(*entry)
	q.unindex(e)

	return e.evt, nil
}

// Remove cancels all the events that match the key. It returns false if no
// event matches.
func (q *Queue) Remove(key Key) bool {
	q.Lock()
	defer q.Unlock()

	entries, found := q.byKey[key]
	if !found {
		return false
	}

	for _, e := range entries {
		heap.Remove(&q.events, e.index)
	}

	delete(q.byKey, key)

	return true
}

// IsEmpty tells if there is no event left in the queue.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of events in the queue.
func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

// Events returns the pending events in the order they would be popped.
func (q *Queue) Events() []Event {
	q.Lock()
	entries := make([]*entry, len(q.events))
	copy(entries, q.events)
	q.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].less(entries[j])
	})

	events := make([]Event, len(entries))
	for i, e := range entries {
		events[i] = e.evt
	}

	return events
}

// Dump writes a human-readable listing of the pending events.
func (q *Queue) Dump(w io.Writer) {
	fmt.Fprintln(w, "Event Queue:")

	for _, evt := range q.Events() {
		fmt.Fprintf(w, "Time: %d | Type: %-10s | Process ID: %d\n",
			evt.Timestamp, evt.Kind, evt.Process.ID)
	}
}

func (q *Queue) unindex(e *entry) {
	key := e.evt.Key()
	entries := q.byKey[key]

	for i, other := range entries {
		if other == e {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}

	if len(entries) == 0 {
		delete(q.byKey, key)
		return
	}

	q.byKey[key] = entries
}

type entry struct {
	evt   Event
	seq   uint64
	index int
}

func (e *entry) less(other *entry) bool {
	if e.evt.Before(other.evt) {
		return true
	}

	if other.evt.Before(e.evt) {
		return false
	}

	return e.seq < other.seq
}

type eventHeap []*entry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	return h[i].less(h[j])
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]

	return e
}
