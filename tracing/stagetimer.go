// Package tracing measures where a run spends its time.
package tracing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metapop/pipeline"
	"github.com/sarchlab/metapop/sim"
)

// A StageTimer is a hook that adds up the wall time spent in every stage of
// a pipeline. If the same stage starts twice before ending, only the last
// start counts.
type StageTimer struct {
	lock     sync.Mutex
	now      func() time.Time
	inflight map[string]time.Time
	total    map[string]time.Duration
	calls    map[string]uint64
	order    []string
}

// NewStageTimer creates a StageTimer that reads the wall clock.
func NewStageTimer() *StageTimer {
	return &StageTimer{
		now:      time.Now,
		inflight: make(map[string]time.Time),
		total:    make(map[string]time.Duration),
		calls:    make(map[string]uint64),
	}
}

// Func records the start or the end of a stage.
func (t *StageTimer) Func(ctx sim.HookCtx) {
	stage, ok := ctx.Item.(pipeline.Stage)
	if !ok {
		return
	}

	switch ctx.Pos {
	case pipeline.HookPosStageStart:
		t.start(stage.Name())
	case pipeline.HookPosStageEnd:
		t.end(stage.Name())
	}
}

func (t *StageTimer) start(name string) {
	now := t.now()

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.total[name]; !seen {
		t.total[name] = 0
		t.order = append(t.order, name)
	}

	t.inflight[name] = now
}

func (t *StageTimer) end(name string) {
	now := t.now()

	t.lock.Lock()
	defer t.lock.Unlock()

	began, ok := t.inflight[name]
	if !ok {
		return
	}

	t.total[name] += now.Sub(began)
	t.calls[name]++
	delete(t.inflight, name)
}

// TotalTime returns the time spent in the named stage so far.
func (t *StageTimer) TotalTime(name string) time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total[name]
}

// Calls returns how many times the named stage has completed.
func (t *StageTimer) Calls(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.calls[name]
}

// Stages lists the timed stages in the order they first ran.
func (t *StageTimer) Stages() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.order...)
}

// Report logs the totals, one field per stage, in seconds.
func (t *StageTimer) Report(log logrus.FieldLogger) {
	fields := logrus.Fields{}
	for _, name := range t.Stages() {
		fields[name] = t.TotalTime(name).Seconds()
	}

	log.WithFields(fields).Info("stage time")
}
