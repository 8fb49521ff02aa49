// Package simulation wires a configuration into a runnable simulation.
package simulation

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/monitoring"
	"github.com/sarchlab/metapop/pipeline"
	"github.com/sarchlab/metapop/recording"
	"github.com/sarchlab/metapop/rng"
	"github.com/sarchlab/metapop/sim"
	"github.com/sarchlab/metapop/tracing"
)

// A Simulation owns everything a run needs.
type Simulation struct {
	id  string
	cfg *config.Config
	log logrus.FieldLogger

	engine   *sim.SerialEngine
	rng      *rng.Generator
	pipeline *pipeline.Pipeline
	timer    *tracing.StageTimer

	csv      *recording.CSVWriter
	db       *recording.SQLiteRecorder
	recorder *recording.MultiRecorder

	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the run configuration.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// Pipeline returns the generation pipeline.
func (s *Simulation) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// StageTimer returns the per-stage wall clock totals.
func (s *Simulation) StageTimer() *tracing.StageTimer {
	return s.timer
}

// GetMonitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// CSVPath returns the file the rows are written to.
func (s *Simulation) CSVPath() string {
	return s.csv.Path()
}

// DatabasePath returns the SQLite file, or "" without one.
func (s *Simulation) DatabasePath() string {
	if s.db == nil {
		return ""
	}

	return s.db.Path()
}

// Run runs every replicate and flushes the recorders.
func (s *Simulation) Run() error {
	s.log.WithFields(logrus.Fields{
		"model":       s.cfg.Model,
		"replicates":  s.cfg.Replicates,
		"generations": s.cfg.Generations,
		"output":      s.CSVPath(),
	}).Info("simulation started")

	s.pipeline.Start()

	err := s.engine.Run()
	if err == nil {
		s.engine.Finished()
	}

	return errors.Join(err, s.recorder.Flush())
}

// Handle logs the end of the run.
func (s *Simulation) Handle(now sim.VTime) {
	s.timer.Report(s.log)
	s.log.WithField("generations", float64(now)+1).Info("simulation finished")
}

// Terminate closes the output files and stops the monitor.
func (s *Simulation) Terminate() {
	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.progress)

		if err := s.monitor.StopServer(); err != nil {
			s.log.WithError(err).Warn("stopping monitor")
		}
	}

	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.log.WithError(err).Error("closing recorders")
		}

		return
	}

	if s.csv != nil {
		_ = s.csv.Close()
	}
}
