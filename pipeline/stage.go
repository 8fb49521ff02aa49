// Package pipeline advances a viral metapopulation one generation at a time.
//
// A generation runs a fixed list of stages. Every stage reads the current
// grid of the store and writes the next one; the pipeline swaps the grids
// and recounts the census after each stage.
package pipeline

import (
	"github.com/sarchlab/metapop/population"
	"github.com/sarchlab/metapop/sim"
)

// A Sampler draws Poisson deviates. Stages call it in a fixed order, so a
// seeded sampler makes a run reproducible.
type Sampler interface {
	Poisson(mean float64) float64
}

// State is what a stage works on.
type State struct {
	// Current holds the population before the stage. Stages must not write
	// to it.
	Current *population.Grid

	// Next is zeroed before the stage and receives its result.
	Next *population.Grid

	// Census counts Current.
	Census *population.Census

	// Start counts the population as it was when the generation began.
	Start *population.Census

	RNG Sampler
}

// A Stage is one step of a generation.
type Stage interface {
	Name() string
	Apply(st *State) error
}

// HookPosStageStart is triggered before a stage runs. The hook item is the
// Stage.
var HookPosStageStart = &sim.HookPos{Name: "StageStart"}

// HookPosStageEnd is triggered after a stage has run and the census has been
// recounted.
var HookPosStageEnd = &sim.HookPos{Name: "StageEnd"}

// HookPosGenerationEnd is triggered once a generation has been handled. The
// hook item is the Status.
var HookPosGenerationEnd = &sim.HookPos{Name: "GenerationEnd"}

// HookPosReplicateEnd is triggered when a replicate finishes. The hook item
// is the Status.
var HookPosReplicateEnd = &sim.HookPos{Name: "ReplicateEnd"}
