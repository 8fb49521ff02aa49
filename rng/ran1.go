// Package rng provides the reproducible random streams that drive the
// stochastic parts of a run.
package rng

const (
	ia   = 16807
	im   = 2147483647
	am   = 1.0 / im
	iq   = 127773
	ir   = 2836
	ntab = 32
	ndiv = 1 + (im-1)/ntab
	eps  = 1.2e-7
	rnmx = 1.0 - eps
)

// A Source produces uniform deviates in the open interval (0, 1).
type Source interface {
	Float32() float32
}

// Ran1 is a minimal-standard multiplicative congruential generator with a
// Bays-Durham shuffle table. All of its state lives in the struct, so two
// generators with the same seed produce the same stream.
type Ran1 struct {
	idum  int64
	iy    int64
	iv    [ntab]int64
	draws uint64
}

// NewRan1 creates a generator seeded with the given value. Positive and
// negative seeds of the same magnitude select the same stream.
func NewRan1(seed int64) *Ran1 {
	r := &Ran1{}

	if seed > 0 {
		seed = -seed
	}

	r.idum = seed

	return r
}

// Float32 returns the next deviate in the stream.
func (r *Ran1) Float32() float32 {
	if r.idum <= 0 || r.iy == 0 {
		r.shuffle()
	}

	r.advance()

	j := r.iy / ndiv
	r.iy = r.iv[j]
	r.iv[j] = r.idum
	r.draws++

	temp := float32(am * float64(r.iy))
	if float64(temp) > rnmx {
		return float32(rnmx)
	}

	return temp
}

// Draws returns how many deviates have been handed out.
func (r *Ran1) Draws() uint64 {
	return r.draws
}

func (r *Ran1) shuffle() {
	if -r.idum < 1 {
		r.idum = 1
	} else {
		r.idum = -r.idum
	}

	for j := ntab + 7; j >= 0; j-- {
		r.advance()

		if j < ntab {
			r.iv[j] = r.idum
		}
	}

	r.iy = r.iv[0]
}

// advance runs one Schrage step, which keeps ia*idum from overflowing.
func (r *Ran1) advance() {
	k := r.idum / iq
	r.idum = ia*(r.idum-k*iq) - ir*k

	if r.idum < 0 {
		r.idum += im
	}
}
