package simulation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/monitoring"
	"github.com/sarchlab/metapop/pipeline"
	"github.com/sarchlab/metapop/recording"
	"github.com/sarchlab/metapop/rng"
	"github.com/sarchlab/metapop/sim"
	"github.com/sarchlab/metapop/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	recorders []recording.Recorder
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithConfig sets the run configuration.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger sets the logger. The standard logrus logger is used otherwise.
func (b Builder) WithLogger(l logrus.FieldLogger) Builder {
	b.log = l
	return b
}

// WithExtraRecorder adds a recorder next to the CSV file and the optional
// database.
func (b Builder) WithExtraRecorder(r recording.Recorder) Builder {
	b.recorders = append(b.recorders, r)
	return b
}

// Build validates the configuration, creates the output files and wires
// the engine, the pipeline and the optional monitor together.
func (b Builder) Build() (*Simulation, error) {
	if b.cfg == nil {
		panic("simulation: config is not set")
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:  xid.New().String(),
		cfg: b.cfg,
	}

	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s.log = log.WithField("run", s.id)

	if err := b.buildRecorders(s); err != nil {
		s.Terminate()
		return nil, err
	}

	s.engine = sim.NewSerialEngine()
	s.rng = rng.New(b.cfg.Seed)

	s.pipeline = pipeline.MakeBuilder().
		WithConfig(b.cfg).
		WithEngine(s.engine).
		WithSampler(s.rng).
		WithRecorder(s.recorder).
		WithLogger(s.log).
		Build(string(b.cfg.Model))

	s.timer = tracing.NewStageTimer()
	s.pipeline.AcceptHook(s.timer)
	s.engine.RegisterSimulationEndHandler(s)

	if b.cfg.Monitor {
		if err := b.buildMonitor(s); err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}

func (b Builder) buildRecorders(s *Simulation) error {
	dir := filepath.Join(b.cfg.DataDir, b.cfg.Destination)

	path, err := recording.NextFreePath(dir, recording.BaseName(b.cfg), ".csv")
	if err != nil {
		return err
	}

	s.csv, err = recording.NewCSVWriter(path, recording.LayoutOf(b.cfg))
	if err != nil {
		return err
	}

	recorders := []recording.Recorder{s.csv}

	if b.cfg.SQLite {
		s.db, err = recording.NewSQLiteRecorder(
			strings.TrimSuffix(path, ".csv"), s.id)
		if err != nil {
			b.discardCSV(s)
			return fmt.Errorf("creating database: %w", err)
		}

		recorders = append(recorders, s.db)
	}

	recorders = append(recorders, b.recorders...)
	s.recorder = recording.NewMultiRecorder(recorders...)

	return nil
}

// discardCSV removes a CSV file that never got any rows, so that its name
// is free for the next run.
func (b Builder) discardCSV(s *Simulation) {
	path := s.csv.Path()

	if err := s.csv.Close(); err != nil {
		s.log.WithError(err).Warn("closing unused output")
	}
	s.csv = nil

	if err := os.Remove(path); err != nil {
		s.log.WithError(err).Warn("removing unused output")
	}
}

func (b Builder) buildMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor().
		WithLogger(s.log).
		WithPortNumber(b.cfg.MonitorPort)
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterReporter(s.pipeline)

	s.progress = s.monitor.CreateProgressBar(
		"replicates", uint64(b.cfg.Replicates))
	s.pipeline.AcceptHook(monitoring.NewReplicateProgress(s.progress))

	if err := s.monitor.StartServer(); err != nil {
		return err
	}

	if b.cfg.OpenBrowser {
		if err := s.monitor.OpenInBrowser(); err != nil {
			s.log.WithError(err).Warn("cannot open browser")
		}
	}

	return nil
}
