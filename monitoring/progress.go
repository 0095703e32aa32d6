package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/procsim/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

func (b *ProgressBar) snapshot() *ProgressBar {
	b.Lock()
	defer b.Unlock()

	return &ProgressBar{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

// ProgressHook moves a progress bar forward as the simulation reaches the
// hook position it watches.
type ProgressHook struct {
	bar       *ProgressBar
	startPos  *sim.HookPos
	finishPos *sim.HookPos
}

// NewProgressHook creates a hook that counts an item as in progress at
// startPos and as finished at finishPos. A nil startPos counts items as
// finished directly.
func NewProgressHook(
	bar *ProgressBar,
	startPos, finishPos *sim.HookPos,
) *ProgressHook {
	return &ProgressHook{
		bar:       bar,
		startPos:  startPos,
		finishPos: finishPos,
	}
}

// Func updates the bar.
func (h *ProgressHook) Func(ctx sim.HookCtx) {
	switch {
	case h.startPos != nil && ctx.Pos == h.startPos:
		h.bar.IncrementInProgress(1)
	case ctx.Pos == h.finishPos && h.startPos != nil:
		h.bar.MoveInProgressToFinished(1)
	case ctx.Pos == h.finishPos:
		h.bar.IncrementFinished(1)
	}
}
