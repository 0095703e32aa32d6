package tracing

import (
	"github.com/sarchlab/procsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TimelineTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *TimelineTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		t = NewTimelineTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep finished tasks sorted by start time", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(3))
		t.StartTask(Task{ID: "b", What: "P2"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(0))
		t.StartTask(Task{ID: "a", What: "P1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(3))
		t.EndTask(Task{ID: "a"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(8))
		t.EndTask(Task{ID: "b"})

		tasks := t.Tasks()

		Expect(tasks).To(HaveLen(2))
		Expect(tasks[0].What).To(Equal("P1"))
		Expect(tasks[0].StartTime).To(Equal(sim.VTime(0)))
		Expect(tasks[0].EndTime).To(Equal(sim.VTime(3)))
		Expect(tasks[1].What).To(Equal("P2"))
		Expect(tasks[1].EndTime).To(Equal(sim.VTime(8)))
	})

	It("should record steps and ignore unknown tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(1))
		t.StartTask(Task{ID: "a", What: "P1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(2))
		t.StepTask(Task{ID: "a", Steps: []TaskStep{{What: "preempted"}}})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(2))
		t.EndTask(Task{ID: "a"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(5))
		t.EndTask(Task{ID: "unknown"})

		tasks := t.Tasks()

		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].Steps).To(Equal([]TaskStep{{Time: 2, What: "preempted"}}))
	})
})
