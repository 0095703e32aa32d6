package cpu

import (
	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/tracing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("CPU", func() {
	var (
		c *CPU
		p process.Process
	)

	BeforeEach(func() {
		c = New("CPU")
		p = process.New(1, 2, 10, 5)
	})

	It("should start idle", func() {
		Expect(c.IsIdle()).To(BeTrue())
		Expect(c.TotalBusyTime()).To(BeZero())
		Expect(c.LastLoadTime()).To(Equal(process.NotSet))

		_, err := c.RunningProcess()
		Expect(err).To(MatchError(ErrCPUEmpty))
	})

	It("should refuse to unload when idle", func() {
		_, err := c.UnloadProcess(3)

		Expect(err).To(MatchError(ErrCPUEmpty))
	})

	It("should load a process for the first time", func() {
		completion, err := c.LoadProcess(p, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(completion).To(Equal(sim.VTime(14)))
		Expect(c.IsIdle()).To(BeFalse())
		Expect(c.LastLoadTime()).To(Equal(sim.VTime(4)))

		running, err := c.RunningProcess()
		Expect(err).NotTo(HaveOccurred())
		Expect(running.StartTime).To(Equal(sim.VTime(4)))
		Expect(running.HasStarted).To(BeTrue())
		Expect(running.ResponseTime).To(Equal(sim.VTime(2)))
		Expect(running.CompletionTime).To(Equal(sim.VTime(14)))
	})

	It("should refuse to load onto a busy CPU", func() {
		_, err := c.LoadProcess(p, 2)
		Expect(err).NotTo(HaveOccurred())

		_, err = c.LoadProcess(process.New(2, 2, 1, 0), 3)

		Expect(err).To(MatchError(ErrCPUBusy))
		running, _ := c.RunningProcess()
		Expect(running.ID).To(Equal(process.ID(1)))
	})

	It("should credit partial work on unload", func() {
		_, _ = c.LoadProcess(p, 2)

		preempted, err := c.UnloadProcess(5)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.IsIdle()).To(BeTrue())
		Expect(preempted.CompletedBurstTime).To(Equal(sim.VTime(3)))
		Expect(preempted.RemainingBurstTime()).To(Equal(sim.VTime(7)))
		Expect(preempted.WaitTime).To(BeZero())
		Expect(c.TotalBusyTime()).To(Equal(sim.VTime(3)))
	})

	It("should keep the response time when resuming", func() {
		_, _ = c.LoadProcess(p, 2)
		preempted, _ := c.UnloadProcess(5)

		completion, err := c.LoadProcess(preempted, 9)
		Expect(err).NotTo(HaveOccurred())
		Expect(completion).To(Equal(sim.VTime(16)))

		finished, err := c.UnloadProcess(16)
		Expect(err).NotTo(HaveOccurred())
		Expect(finished.IsComplete()).To(BeTrue())
		Expect(finished.ResponseTime).To(BeZero())
		Expect(finished.WaitTime).To(Equal(sim.VTime(4)))
		Expect(finished.TurnaroundTime()).To(Equal(sim.VTime(14)))
		Expect(c.TotalBusyTime()).To(Equal(sim.VTime(10)))
	})

	It("should report its status", func() {
		_, _ = c.LoadProcess(p, 2)

		s := c.Status()

		Expect(s.Name).To(Equal("CPU"))
		Expect(s.Idle).To(BeFalse())
		Expect(s.Running.ID).To(Equal(process.ID(1)))
		Expect(s.NumDispatches).To(Equal(uint64(1)))
	})

	Context("with a tracer", func() {
		var (
			mockCtrl *gomock.Controller
			tracer   *MockTracer
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			tracer = NewMockTracer(mockCtrl)
			tracing.CollectTrace(c, tracer)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should trace each dispatch", func() {
			tracer.EXPECT().StartTask(gomock.Any()).Do(func(task tracing.Task) {
				Expect(task.ID).To(Equal("CPU.dispatch.1"))
				Expect(task.Kind).To(Equal(TaskKindDispatch))
				Expect(task.What).To(Equal("P1"))
				Expect(task.Location).To(Equal("CPU"))
			})
			_, _ = c.LoadProcess(p, 2)

			tracer.EXPECT().EndTask(tracing.Task{ID: "CPU.dispatch.1"})
			_, _ = c.UnloadProcess(4)
		})
	})
})
