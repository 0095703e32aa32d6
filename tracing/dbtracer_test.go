package tracing

import (
	"github.com/sarchlab/procsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockDataRecorder
		t          *DBTracer
	)

	task := func(id string) Task {
		return Task{ID: id, Kind: "dispatch", What: "P1", Location: "CPU"}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(TraceTableName, TaskTableEntry{})
		t = NewDBTracer(timeTeller, backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write finished tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(2))
		t.StartTask(task("1"))

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(7))
		backend.EXPECT().InsertData(TraceTableName, TaskTableEntry{
			ID:        "1",
			Kind:      "dispatch",
			What:      "P1",
			Location:  "CPU",
			StartTime: 2,
			EndTime:   7,
		})
		t.EndTask(Task{ID: "1"})
	})

	It("should panic on incomplete tasks", func() {
		Expect(func() { t.StartTask(Task{ID: "1"}) }).To(Panic())
	})

	It("should skip tasks outside of the time range", func() {
		t.SetTimeRange(5, 10)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(11))
		t.StartTask(task("late"))

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(0))
		t.StartTask(task("early"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(3))
		t.EndTask(Task{ID: "early"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTime(12))
		t.EndTask(Task{ID: "late"})
	})

	It("should flush on terminate", func() {
		backend.EXPECT().Flush()

		t.Terminate()
	})
})
