package report

import (
	"github.com/sarchlab/procsim/datarecording"
)

// Table names written by Record.
const (
	ProcessTableName = "process"
	SummaryTableName = "summary"
)

// ProcessEntry is the row format of the process table.
type ProcessEntry struct {
	ID             uint64
	ArrivalTime    int64
	BurstTime      int64
	Priority       int
	WaitTime       int64
	TurnaroundTime int64
	ResponseTime   int64
	CompletionTime int64
}

// SummaryEntry is the row format of the summary table.
type SummaryEntry struct {
	Algorithm             string
	NumProcesses          int
	ElapsedTime           int64
	TotalBusyTime         int64
	Throughput            float64
	CPUUtilization        float64
	AverageWaitTime       float64
	AverageTurnaroundTime float64
	AverageResponseTime   float64
}

// Record writes the report into recorder and flushes it.
func (r Report) Record(recorder datarecording.DataRecorder) {
	recorder.CreateTable(ProcessTableName, ProcessEntry{})
	recorder.CreateTable(SummaryTableName, SummaryEntry{})

	for _, p := range r.Processes {
		recorder.InsertData(ProcessTableName, ProcessEntry{
			ID:             uint64(p.ID),
			ArrivalTime:    int64(p.ArrivalTime),
			BurstTime:      int64(p.BurstTime),
			Priority:       p.Priority,
			WaitTime:       int64(p.WaitTime),
			TurnaroundTime: int64(p.TurnaroundTime()),
			ResponseTime:   int64(p.ResponseTime),
			CompletionTime: int64(p.CompletionTime),
		})
	}

	st := r.Statistics
	recorder.InsertData(SummaryTableName, SummaryEntry{
		Algorithm:             r.Algorithm,
		NumProcesses:          st.NumProcesses,
		ElapsedTime:           int64(st.ElapsedTime),
		TotalBusyTime:         int64(st.TotalBusyTime),
		Throughput:            st.Throughput,
		CPUUtilization:        st.CPUUtilization,
		AverageWaitTime:       st.AverageWaitTime,
		AverageTurnaroundTime: st.AverageTurnaroundTime,
		AverageResponseTime:   st.AverageResponseTime,
	})

	recorder.Flush()
}
