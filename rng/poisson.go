package rng

import "math"

const lorentzPi = 3.141592654

// Poisson draws Poisson deviates from a uniform Source. Small means use the
// multiplicative method; means of 12 and above use rejection against a
// Lorentzian envelope. Arithmetic is carried out in single precision so
// that streams stay comparable with runs produced by older tooling.
type Poisson struct {
	src Source

	oldm float32
	g    float32
	sq   float32
	alxm float32
}

// NewPoisson creates a Poisson sampler that pulls uniforms from src.
func NewPoisson(src Source) *Poisson {
	return &Poisson{
		src:  src,
		oldm: -1,
	}
}

// Sample returns a deviate with mean xm. A mean of zero still consumes one
// uniform and returns zero.
func (p *Poisson) Sample(xm float32) float32 {
	if xm < 12.0 {
		return p.multiplicative(xm)
	}

	return p.rejection(xm)
}

func (p *Poisson) multiplicative(xm float32) float32 {
	if xm != p.oldm {
		p.oldm = xm
		p.g = float32(math.Exp(-float64(xm)))
	}

	em := float32(-1)
	t := float32(1)

	for {
		em++
		t = float32(t * p.src.Float32())

		if !(t > p.g) {
			break
		}
	}

	return em
}

func (p *Poisson) rejection(xm float32) float32 {
	if xm != p.oldm {
		p.oldm = xm
		p.sq = float32(math.Sqrt(2.0 * float64(xm)))
		p.alxm = float32(math.Log(float64(xm)))
		p.g = float32(xm*p.alxm) - LogGamma(float32(float64(xm)+1.0))
	}

	var em, t, y float32

	for {
		for {
			y = float32(math.Tan(lorentzPi * float64(p.src.Float32())))
			em = float32(p.sq*y) + xm

			if !(em < 0) {
				break
			}
		}

		em = float32(math.Floor(float64(em)))

		exponent := float32(em*p.alxm) -
			LogGamma(float32(float64(em)+1.0)) - p.g
		t = float32(0.9 * (1.0 + float64(float32(y*y))) *
			math.Exp(float64(exponent)))

		if !(p.src.Float32() > t) {
			break
		}
	}

	return em
}
