package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/mutation"
	"github.com/sarchlab/metapop/population"
	"github.com/sarchlab/metapop/recording"
	"github.com/sarchlab/metapop/sim"
)

// Builder can build pipelines.
type Builder struct {
	cfg      *config.Config
	engine   sim.EventScheduler
	rng      Sampler
	recorder recording.Recorder
	log      logrus.FieldLogger
	stages   []Stage
}

// MakeBuilder creates a Builder with no collaborators set.
func MakeBuilder() Builder {
	return Builder{}
}

// WithConfig sets the run configuration. The configuration must be valid.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithEngine sets the engine that the generations are scheduled on.
func (b Builder) WithEngine(e sim.EventScheduler) Builder {
	b.engine = e
	return b
}

// WithSampler sets the source of Poisson draws.
func (b Builder) WithSampler(s Sampler) Builder {
	b.rng = s
	return b
}

// WithRecorder sets where rows are recorded.
func (b Builder) WithRecorder(r recording.Recorder) Builder {
	b.recorder = r
	return b
}

// WithLogger sets the logger. The standard logrus logger is used otherwise.
func (b Builder) WithLogger(l logrus.FieldLogger) Builder {
	b.log = l
	return b
}

// WithStages replaces the stage list derived from the configuration.
func (b Builder) WithStages(stages ...Stage) Builder {
	b.stages = stages
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.cfg == nil {
		panic("pipeline: config is not set")
	}

	if b.engine == nil {
		panic("pipeline: engine is not set")
	}

	if b.rng == nil {
		panic("pipeline: sampler is not set")
	}

	if b.recorder == nil {
		panic("pipeline: recorder is not set")
	}
}

// Build creates the pipeline.
func (b Builder) Build(name string) *Pipeline {
	b.parametersMustBeValid()

	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}

	cfg := b.cfg
	p := &Pipeline{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		cfg:          cfg,
		engine:       b.engine,
		rng:          b.rng,
		recorder:     b.recorder,
		log:          log.WithField("pipeline", name),
		store:        population.NewStore(cfg.Hosts, cfg.KMax, cfg.HasOneSegment()),
		census:       population.NewCensus(cfg.Hosts),
		start:        population.NewCensus(cfg.Hosts),
		stages:       b.stages,
		status: Status{
			Replicates:  cfg.Replicates,
			Generations: cfg.Generations,
		},
	}

	if p.stages == nil {
		p.stages = StagesFor(cfg)
	}

	return p
}

// StagesFor returns the stages of a generation for the configured model.
func StagesFor(cfg *config.Config) []Stage {
	op := mutation.NewOperator(cfg.KMax, cfg.U, cfg.MutCap)

	stages := []Stage{
		NewMutate(op),
		NewReassort(cfg.R),
		NewReproduce(cfg),
	}

	if cfg.Model == config.ModelMeta {
		stages = append(stages, NewMigrate(cfg.Mig, cfg.Tr))
	}

	return stages
}
