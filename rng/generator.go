package rng

// A Generator owns one uniform stream and the Poisson sampler built on top
// of it. Every stochastic stage of a run draws from the same Generator, so
// the draw order is fixed by the order in which stages call it.
type Generator struct {
	uniform *Ran1
	poisson *Poisson
}

// New creates a Generator for the given seed.
func New(seed int64) *Generator {
	u := NewRan1(seed)

	return &Generator{
		uniform: u,
		poisson: NewPoisson(u),
	}
}

// Uniform returns the next uniform deviate.
func (g *Generator) Uniform() float32 {
	return g.uniform.Float32()
}

// Poisson returns a Poisson deviate with the given mean. The mean is
// narrowed to single precision before sampling.
func (g *Generator) Poisson(mean float64) float64 {
	return float64(g.poisson.Sample(float32(mean)))
}

// Draws reports how many uniforms the generator has consumed.
func (g *Generator) Draws() uint64 {
	return g.uniform.Draws()
}
