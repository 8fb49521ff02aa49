package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/metapop/pipeline"
	"github.com/sarchlab/metapop/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

type progressRsp struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
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

// ReplicateProgress is a hook that moves a bar as a pipeline finishes
// replicates. A replicate counts as in progress from its first generation.
type ReplicateProgress struct {
	bar     *ProgressBar
	running bool
}

// NewReplicateProgress creates a hook that drives bar.
func NewReplicateProgress(bar *ProgressBar) *ReplicateProgress {
	return &ReplicateProgress{bar: bar}
}

// Func updates the bar.
func (p *ReplicateProgress) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case pipeline.HookPosGenerationEnd:
		if !p.running {
			p.running = true
			p.bar.IncrementInProgress(1)
		}
	case pipeline.HookPosReplicateEnd:
		if p.running {
			p.running = false
			p.bar.MoveInProgressToFinished(1)
			return
		}

		p.bar.IncrementFinished(1)
	}
}
