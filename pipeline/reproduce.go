package pipeline

import (
	"math"

	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/population"
)

// Reproduce replaces every class by a Poisson number of offspring. The mean
// offspring number falls with the mutation load through selection and with
// crowding through the carrying capacity. Classes at or above the lethal
// load still take a Poisson(0) draw so that the draw order does not depend
// on the population.
type Reproduce struct {
	model  config.Model
	s      float64
	c      float64
	k      float64
	lethal int
}

// NewReproduce creates a Reproduce stage from the run configuration.
func NewReproduce(cfg *config.Config) *Reproduce {
	return &Reproduce{
		model:  cfg.Model,
		s:      cfg.S,
		c:      cfg.C,
		k:      float64(cfg.K),
		lethal: cfg.Lethal(),
	}
}

// Name returns "reproduce".
func (r *Reproduce) Name() string {
	return "reproduce"
}

// Apply draws the next generation.
func (r *Reproduce) Apply(st *State) error {
	if r.model == config.ModelSingle {
		r.single(st)
		return nil
	}

	r.meta(st)

	return nil
}

// single uses one density for all hosts and draws every host.
func (r *Reproduce) single(st *State) {
	growth := r.growth(st.Start.Total())

	for h := 1; h <= st.Current.Hosts(); h++ {
		r.drawTwo(st, h, growth)
	}
}

// meta uses a per-host density and skips empty layers.
func (r *Reproduce) meta(st *State) {
	for h := 1; h <= st.Current.Hosts(); h++ {
		growth := r.growth(st.Start.Host(h))

		if st.Census.Two(h) > 0 {
			r.drawTwo(st, h, growth)
		}

		if st.Current.HasOneSegment() && st.Census.One(h) > 0 {
			r.drawOne(st, h, growth)
		}
	}
}

func (r *Reproduce) growth(n float64) float64 {
	return 2 / (1 + n/r.k)
}

func (r *Reproduce) drawTwo(st *State, h int, growth float64) {
	kmax := st.Current.KMax()
	src := st.Current.Two(h)
	dst := st.Next.Two(h)

	for idx, v := range src {
		j, k := population.TwoState(kmax, idx)

		if j+k >= r.lethal {
			dst[idx] = st.RNG.Poisson(0)
			continue
		}

		mean := v * math.Pow(1-r.s, float64(j+k)) * (1 - r.c) * growth
		dst[idx] = st.RNG.Poisson(mean)
	}
}

func (r *Reproduce) drawOne(st *State, h int, growth float64) {
	src := st.Current.One(h)
	dst := st.Next.One(h)

	for j, v := range src {
		if j >= r.lethal {
			dst[j] = st.RNG.Poisson(0)
			continue
		}

		mean := v * math.Pow(1-r.s, float64(j)) * growth
		dst[j] = st.RNG.Poisson(mean)
	}
}
