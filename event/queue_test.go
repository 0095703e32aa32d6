package event

import (
	"bytes"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
)

func proc(id process.ID, arrival sim.VTime) process.Process {
	return process.New(id, arrival, 5, 0)
}

var _ = Describe("Event", func() {
	It("should order by time, then kind, then process id", func() {
		early := NewCompletion(1, proc(9, 0))
		arrival := NewArrival(proc(5, 2))
		completion := NewCompletion(2, proc(1, 0))
		sameKind := NewArrival(proc(6, 2))

		Expect(early.Before(arrival)).To(BeTrue())
		Expect(arrival.Before(completion)).To(BeTrue())
		Expect(completion.Before(arrival)).To(BeFalse())
		Expect(arrival.Before(sameKind)).To(BeTrue())
		Expect(sameKind.Before(arrival)).To(BeFalse())
	})

	It("should describe itself", func() {
		evt := NewArrival(proc(3, 4))

		Expect(evt.Time()).To(Equal(sim.VTime(4)))
		Expect(evt.Key()).To(Equal(Key{Time: 4, ProcessID: 3}))
		Expect(evt.String()).To(Equal("Arrival P3"))
		Expect(Kind(7).String()).To(Equal("Kind(7)"))
	})
})

var _ = Describe("Queue", func() {
	var queue *Queue

	BeforeEach(func() {
		queue = NewQueue()
	})

	It("should report empty queues", func() {
		Expect(queue.IsEmpty()).To(BeTrue())

		_, err := queue.Top()
		Expect(err).To(MatchError(ErrEmptyQueue))

		_, err = queue.Pop()
		Expect(err).To(MatchError(ErrEmptyQueue))
	})

	It("should peek without removing", func() {
		queue.Push(NewArrival(proc(1, 3)))
		queue.Push(NewArrival(proc(2, 1)))

		top, err := queue.Top()

		Expect(err).NotTo(HaveOccurred())
		Expect(top.Process.ID).To(Equal(process.ID(2)))
		Expect(queue.Len()).To(Equal(2))
	})

	It("should pop in order", func() {
		numEvents := 200
		for i := 0; i < numEvents; i++ {
			p := proc(process.ID(i+1), sim.VTime(rand.Intn(20)))
			if rand.Intn(2) == 0 {
				queue.Push(NewArrival(p))
			} else {
				queue.Push(NewCompletion(sim.VTime(rand.Intn(20)), p))
			}
		}

		prev, err := queue.Pop()
		Expect(err).NotTo(HaveOccurred())

		for !queue.IsEmpty() {
			evt, err := queue.Pop()
			Expect(err).NotTo(HaveOccurred())

			Expect(evt.Timestamp).To(BeNumerically(">=", prev.Timestamp))
			if evt.Timestamp == prev.Timestamp {
				Expect(evt.Kind).To(BeNumerically(">=", prev.Kind))
			}

			prev = evt
		}
	})

	It("should pop arrivals before completions at the same time", func() {
		queue.Push(NewCompletion(5, proc(1, 0)))
		queue.Push(NewArrival(proc(2, 5)))

		first, _ := queue.Pop()
		second, _ := queue.Pop()

		Expect(first.Kind).To(Equal(Arrival))
		Expect(second.Kind).To(Equal(Completion))
	})

	It("should break ties by process id", func() {
		queue.Push(NewArrival(proc(3, 0)))
		queue.Push(NewArrival(proc(1, 0)))
		queue.Push(NewArrival(proc(2, 0)))

		ids := []process.ID{}
		for !queue.IsEmpty() {
			evt, _ := queue.Pop()
			ids = append(ids, evt.Process.ID)
		}

		Expect(ids).To(Equal([]process.ID{1, 2, 3}))
	})

	It("should cancel an event by key", func() {
		queue.Push(NewArrival(proc(2, 3)))
		queue.Push(NewCompletion(10, proc(1, 0)))
		queue.Push(NewCompletion(12, proc(3, 0)))

		Expect(queue.Remove(Key{Time: 10, ProcessID: 1})).To(BeTrue())
		Expect(queue.Len()).To(Equal(2))

		for !queue.IsEmpty() {
			evt, _ := queue.Pop()
			Expect(evt.Process.ID).NotTo(Equal(process.ID(1)))
		}
	})

	It("should signal when there is nothing to cancel", func() {
		queue.Push(NewCompletion(10, proc(1, 0)))

		Expect(queue.Remove(Key{Time: 9, ProcessID: 1})).To(BeFalse())
		Expect(queue.Remove(Key{Time: 10, ProcessID: 2})).To(BeFalse())
		Expect(queue.Len()).To(Equal(1))
	})

	It("should not find popped events", func() {
		queue.Push(NewCompletion(10, proc(1, 0)))
		_, _ = queue.Pop()

		Expect(queue.Remove(Key{Time: 10, ProcessID: 1})).To(BeFalse())
	})

	It("should keep the heap valid after cancelling from the middle", func() {
		for i := 1; i <= 50; i++ {
			queue.Push(NewCompletion(sim.VTime(i*7%50), proc(process.ID(i), 0)))
		}

		for i := 2; i <= 50; i += 2 {
			Expect(queue.Remove(Key{
				Time:      sim.VTime(i * 7 % 50),
				ProcessID: process.ID(i),
			})).To(BeTrue())
		}

		Expect(queue.Len()).To(Equal(25))

		prev := sim.VTime(-1)
		for !queue.IsEmpty() {
			evt, _ := queue.Pop()
			Expect(evt.Process.ID % 2).To(Equal(process.ID(1)))
			Expect(evt.Timestamp).To(BeNumerically(">=", prev))
			prev = evt.Timestamp
		}
	})

	It("should list and dump pending events in pop order", func() {
		queue.Push(NewCompletion(4, proc(1, 0)))
		queue.Push(NewArrival(proc(2, 4)))

		events := queue.Events()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Kind).To(Equal(Arrival))

		buf := new(bytes.Buffer)
		queue.Dump(buf)

		Expect(buf.String()).To(Equal("Event Queue:\n" +
			"Time: 4 | Type: Arrival    | Process ID: 2\n" +
			"Time: 4 | Type: Completion | Process ID: 1\n"))
		Expect(queue.Len()).To(Equal(2))
	})
})
