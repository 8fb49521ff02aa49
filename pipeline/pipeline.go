package pipeline

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/population"
	"github.com/sarchlab/metapop/recording"
	"github.com/sarchlab/metapop/sim"
)

// Status tells how far a run has progressed.
type Status struct {
	Replicate   int
	Generation  int
	Replicates  int
	Generations int
	Pop1        float64
	Pop2        float64
	Extinct     bool
}

// A Pipeline runs all replicates of a simulation. Each generation is an
// event on the engine, and each event runs the stages of one generation.
type Pipeline struct {
	*sim.HookableBase

	name     string
	cfg      *config.Config
	engine   sim.EventScheduler
	rng      Sampler
	recorder recording.Recorder
	log      logrus.FieldLogger

	store  *population.Store
	census *population.Census
	start  *population.Census
	stages []Stage

	statusLock sync.RWMutex
	status     Status
}

type generationEvent struct {
	*sim.EventBase
	replicate  int
	generation int
}

// Name returns the name of the pipeline.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns the stages in the order they run.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Store returns the population store.
func (p *Pipeline) Store() *population.Store {
	return p.store
}

// Census returns the census of the current grid.
func (p *Pipeline) Census() *population.Census {
	return p.census
}

// Status returns a snapshot of the progress. It is safe to call from other
// goroutines.
func (p *Pipeline) Status() Status {
	p.statusLock.RLock()
	defer p.statusLock.RUnlock()

	return p.status
}

// Start schedules the first generation of the first replicate.
func (p *Pipeline) Start() {
	p.scheduleGeneration(0, 0)
}

func (p *Pipeline) scheduleGeneration(rep, gen int) {
	t := sim.VTime(rep*p.cfg.Generations + gen)

	p.engine.Schedule(&generationEvent{
		EventBase:  sim.NewEventBase(t, p),
		replicate:  rep,
		generation: gen,
	})
}

// Handle runs one generation.
func (p *Pipeline) Handle(e sim.Event) error {
	evt, ok := e.(*generationEvent)
	if !ok {
		panic(fmt.Sprintf("pipeline: cannot handle event of type %T", e))
	}

	rep, gen := evt.replicate, evt.generation

	if gen == 0 {
		if err := p.beginReplicate(rep); err != nil {
			return err
		}
	}

	if p.census.Total() > 0 {
		if err := p.Step(); err != nil {
			return fmt.Errorf("replicate %d generation %d: %w",
				rep+1, gen+1, err)
		}
	} else if p.cfg.UntilExtinction {
		return p.endReplicate(rep, gen)
	}

	if p.cfg.Timestep {
		if err := p.record(rep, gen+1); err != nil {
			return err
		}
	}

	p.updateStatus(rep, gen+1)
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosGenerationEnd,
		Item:   p.Status(),
	})

	if gen+1 < p.cfg.Generations {
		p.scheduleGeneration(rep, gen+1)
		return nil
	}

	return p.endReplicate(rep, gen+1)
}

func (p *Pipeline) beginReplicate(rep int) error {
	if rep%100 == 0 {
		p.log.WithField("replicate", rep).Info("starting replicate")
	}

	return p.Seed()
}

func (p *Pipeline) endReplicate(rep, gen int) error {
	if !p.cfg.Timestep {
		if err := p.record(rep, gen); err != nil {
			return err
		}
	}

	p.updateStatus(rep, gen)
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosReplicateEnd,
		Item:   p.Status(),
	})

	if rep+1 < p.cfg.Replicates {
		p.scheduleGeneration(rep+1, 0)
	}

	return nil
}

// Seed resets the store and places the initial population.
func (p *Pipeline) Seed() error {
	p.store.Reset()
	g := p.store.Current()
	n0 := float64(p.cfg.N0)

	for h := 1; h <= g.Hosts(); h++ {
		if p.cfg.Model == config.ModelSingle {
			g.Set(h, 0, 0, n0/float64(g.Hosts()))
			continue
		}

		g.Set(h, 0, 0, n0*p.cfg.Pop2Init[h-1])
		g.SetOne(h, 0, n0*p.cfg.Pop1Init[h-1])
	}

	return p.census.Count(g)
}

// Step runs every stage once on the current population.
func (p *Pipeline) Step() error {
	p.start.CopyFrom(p.census)

	for _, s := range p.stages {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosStageStart, Item: s})

		st := &State{
			Current: p.store.Current(),
			Next:    p.store.Next(),
			Census:  p.census,
			Start:   p.start,
			RNG:     p.rng,
		}

		if err := s.Apply(st); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}

		p.store.Swap()

		if err := p.census.Count(p.store.Current()); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}

		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosStageEnd, Item: s})
	}

	return nil
}

func (p *Pipeline) record(rep, gen int) error {
	row := recording.Row{
		Replicate:  rep + 1,
		Generation: gen,
		Hosts: recording.Summarize(
			p.store.Current(), p.census, p.cfg.KRecord),
	}

	if err := p.recorder.Record(row); err != nil {
		return fmt.Errorf("recording replicate %d: %w", rep+1, err)
	}

	return nil
}

func (p *Pipeline) updateStatus(rep, gen int) {
	p.statusLock.Lock()
	defer p.statusLock.Unlock()

	p.status.Replicate = rep + 1
	p.status.Generation = gen
	p.status.Pop1 = p.census.TotalOne()
	p.status.Pop2 = p.census.TotalTwo()
	p.status.Extinct = p.census.Total() <= 0
}
